package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rdo34/fuel/internal/app"
	"github.com/rdo34/fuel/internal/config"
	"github.com/rdo34/fuel/internal/logging"
	"github.com/rdo34/fuel/internal/report"
	"github.com/rdo34/fuel/internal/store"
	"github.com/rdo34/fuel/internal/ui"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	DataDir    string
	Backend    string
	Format     string // "json" | "text"
	Verbose    bool
}

var validFormats = []string{"text", "json"}

// session is everything a command needs once flags are parsed.
type session struct {
	cfg     config.Config
	kv      store.KV
	app     *app.App
	out     *report.OutputFormatter
	logger  *slog.Logger
	in      *bufio.Reader
	closers []io.Closer
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
	s.closers = nil
}

// execute runs the command line and returns the process exit code.
func execute(args []string, in io.Reader, out, errOut io.Writer) int {
	cmd, s := newRootCommand(in)
	defer s.Close()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	err := cmd.Execute()
	if err == nil {
		return report.ExitSuccess
	}
	if !reported(err) {
		fmt.Fprintln(errOut, "fuel:", err)
		return report.ExitCommandError
	}
	return report.GetExitCode(err)
}

// newRootCommand builds the fuel command tree. With no subcommand it
// starts the terminal UI.
func newRootCommand(in io.Reader) (*cobra.Command, *session) {
	opts := &rootOptions{}
	s := &session{in: bufio.NewReader(in)}

	cmd := &cobra.Command{
		Use:           "fuel",
		Short:         "Track fuel fills, mileage and cost",
		Long:          "fuel keeps a log of refuelling events and derives mileage and cost per distance from odometer readings.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return s.open(opts, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ui.New(s.app, ui.Options{KV: s.kv, Placeholder: s.cfg.Placeholder, Logger: s.logger}).Run(); err != nil {
				return s.fail(err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default <data-dir>/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "override data directory")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend ("+strings.Join(store.Backends, "|")+")")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr at debug level")

	cmd.AddCommand(
		newListCommand(s),
		newAddCommand(s),
		newEditCommand(s),
		newDeleteCommand(s),
		newSummaryCommand(s),
		newImportCommand(s),
		newExportCommand(s),
	)
	return cmd, s
}

// open layers configuration (defaults, YAML, environment, flags), then
// opens logging, storage and the controller.
func (s *session) open(opts *rootOptions, cmd *cobra.Command) error {
	path := opts.ConfigPath
	if path == "" {
		if opts.DataDir != "" {
			path = filepath.Join(opts.DataDir, "config.yaml")
		} else {
			path = config.DefaultPath()
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	config.FromEnv(&cfg)
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if err := cfg.Resolve(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	s.cfg = cfg

	if opts.Verbose {
		s.logger = logging.New(cmd.ErrOrStderr(), "debug")
	} else {
		logger, closer, err := logging.OpenFile(cfg.Log.File, cfg.Log.Level)
		if err != nil {
			return err
		}
		s.logger = logger
		s.closers = append(s.closers, closer)
	}

	kv, err := store.Open(cfg.Backend, cfg.DataDir, s.logger)
	if err != nil {
		s.Close()
		return fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	s.kv = kv
	s.closers = append(s.closers, kv)

	s.app = app.New(store.NewLog(kv, s.logger), app.Options{
		TankCapacity: cfg.TankCapacity,
		Logger:       s.logger,
	})
	s.app.Load()

	s.out = &report.OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	s.out.VerboseLog("data dir %s, backend %s, %d entries", cfg.DataDir, cfg.Backend, len(s.app.Entries()))
	return nil
}

// fail reports err through the formatter and returns the matching
// ExitError.
func (s *session) fail(err error) error {
	var (
		ve       *app.ValidationError
		ie       *app.ImportError
		declined *declinedError
		code     = report.ExitFailure
		errCode  = report.CodeStorage
		details  any
	)
	switch {
	case errors.As(err, &ve):
		errCode, details = report.CodeValidation, ve.Fields
	case errors.As(err, &ie):
		errCode, details = report.CodeValidation, ie.Rejected
	case errors.Is(err, app.ErrUnknownEntry):
		code, errCode = report.ExitCommandError, report.CodeNotFound
	case errors.As(err, &declined):
		errCode = report.CodeDeclined
	}
	_ = s.out.Error(errCode, err.Error(), details)
	return report.WrapExitError(code, errCode, "fuel", err)
}

// usage reports a bad argument as a command error.
func (s *session) usage(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	_ = s.out.Error(report.CodeUsage, msg, nil)
	return report.NewExitError(report.ExitCommandError, report.CodeUsage, msg)
}

type declinedError struct{ prompt string }

func (e *declinedError) Error() string { return "cancelled: " + e.prompt }

// dispatch runs cmd, answering confirmations with yes or a stdin prompt.
func (s *session) dispatch(cmd app.Command, yes bool) (app.Result, error) {
	res, err := s.app.Dispatch(cmd)
	c, ok := app.IsConfirmation(err)
	if !ok {
		return res, err
	}
	if !yes && !s.ask(c.Prompt) {
		return app.Result{}, &declinedError{prompt: c.Prompt}
	}
	return s.app.Dispatch(c.Retry)
}

func (s *session) ask(prompt string) bool {
	fmt.Fprintf(s.out.GetErrWriter(), "%s [y/N] ", prompt)
	line, _ := s.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// reported is true for errors a command has already written out.
func reported(err error) bool {
	var exitErr *report.ExitError
	return errors.As(err, &exitErr)
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}
