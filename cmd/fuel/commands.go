package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rdo34/fuel/internal/app"
	"github.com/rdo34/fuel/internal/filter"
	"github.com/rdo34/fuel/internal/model"
	"github.com/rdo34/fuel/internal/report"
)

// entryResult is the payload for commands that touch one entry.
type entryResult struct {
	Action string      `json:"action"`
	Entry  model.Entry `json:"entry"`
}

func (r entryResult) String() string {
	return fmt.Sprintf("%s %s (%s, meter %d)", r.Action, r.Entry.ID, r.Entry.Date, r.Entry.Meter)
}

type countResult struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
	Path   string `json:"path,omitempty"`
}

func (r countResult) String() string {
	if r.Path != "" {
		return fmt.Sprintf("%s %d entries (%s)", r.Action, r.Count, r.Path)
	}
	return fmt.Sprintf("%s %d entries", r.Action, r.Count)
}

func newListCommand(s *session) *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries in meter order",
		Long: `List entries in meter order with derived mileage and cost.

--where takes a CEL expression over id, date, year, month, liters, amount,
rate, meter, mileage and cost, for example:

  fuel list --where 'year == 2024 && liters > 4.0'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filter.Compile(where)
			if err != nil {
				return s.usage("%v", err)
			}
			return s.out.Success(report.EntryTable{
				Entries:     f.Apply(s.app.Entries()),
				Placeholder: s.cfg.Placeholder,
			})
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "CEL filter expression")
	return cmd
}

// entryFlags are the five editable fields as raw text.
type entryFlags struct {
	app.Input
	yes bool
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Date, "date", "", "fill date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.Liters, "liters", "", "volume filled")
	cmd.Flags().StringVar(&f.Amount, "amount", "", "total price paid")
	cmd.Flags().StringVar(&f.Rate, "rate", "", "price per liter")
	cmd.Flags().StringVar(&f.Meter, "meter", "", "odometer reading")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "skip confirmation prompts")
}

// overlay copies the flags that were set onto in.
func (f *entryFlags) overlay(cmd *cobra.Command, in app.Input) app.Input {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("date", &in.Date, f.Date)
	set("liters", &in.Liters, f.Liters)
	set("amount", &in.Amount, f.Amount)
	set("rate", &in.Rate, f.Rate)
	set("meter", &in.Meter, f.Meter)
	return in
}

func newAddCommand(s *session) *cobra.Command {
	f := &entryFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a fill",
		Long:  "Record a fill. --date defaults to today. Fills above the configured tank capacity ask for confirmation unless --yes is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := f.overlay(cmd, app.Input{Date: time.Now().Format(model.DateLayout)})
			res, err := s.dispatch(app.Submit{Input: in}, f.yes)
			if err != nil {
				return s.fail(err)
			}
			return s.out.Success(entryResult{Action: "Added", Entry: res.Entry})
		},
	}
	f.register(cmd)
	for _, name := range []string{"liters", "amount", "rate", "meter"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newEditCommand(s *session) *cobra.Command {
	f := &entryFlags{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an entry",
		Long:  "Change fields of an entry. Fields without a flag keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := s.app.Lookup(args[0])
			if err != nil {
				return s.fail(err)
			}
			if _, err := s.app.Dispatch(app.RequestEdit{ID: current.ID}); err != nil {
				return s.fail(err)
			}
			in := f.overlay(cmd, app.InputFrom(current))
			res, err := s.dispatch(app.Submit{Input: in}, f.yes)
			if err != nil {
				return s.fail(err)
			}
			return s.out.Success(entryResult{Action: "Updated", Entry: res.Entry})
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCommand(s *session) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an entry",
		Long:  "Remove an entry. Asks for confirmation on stdin unless --yes is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := s.app.Lookup(args[0]); err != nil {
				return s.fail(err)
			}
			res, err := s.dispatch(app.RequestDelete{ID: args[0]}, yes)
			if err != nil {
				return s.fail(err)
			}
			return s.out.Success(entryResult{Action: "Deleted", Entry: res.Entry})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newSummaryCommand(s *session) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals and averages for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := s.app.CurrentMonth()
			if month != "" {
				var err error
				if m, err = model.ParseMonth(month); err != nil {
					return s.usage("%v", err)
				}
			}
			return s.out.Success(report.SummaryView{Summary: s.app.Summary(m), Placeholder: s.cfg.Placeholder})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to summarize (YYYY-MM, default current)")
	return cmd
}

func newImportCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add entries from a JSON array",
		Long: `Add entries from a JSON array of entry records, such as an exported
fuelLogs value. Entries without an id, or whose id already exists, get a new one.
Every record must pass the same checks as add; if any fails, nothing is imported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return s.usage("read %s: %v", args[0], err)
			}
			var entries []model.Entry
			if err := json.Unmarshal(data, &entries); err != nil {
				return s.usage("parse %s: %v", args[0], err)
			}
			n, err := s.app.Import(entries)
			if err != nil {
				return s.fail(err)
			}
			return s.out.Success(countResult{Action: "Imported", Count: n, Path: args[0]})
		},
	}
}

func newExportCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write all entries as a JSON array",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := s.app.Entries()
			data, err := json.MarshalIndent(report.EntryTable{Entries: entries}, "", "  ")
			if err != nil {
				return s.fail(err)
			}
			data = append(data, '\n')
			if len(args) == 0 {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return s.fail(fmt.Errorf("write %s: %w", args[0], err))
			}
			return s.out.Success(countResult{Action: "Exported", Count: len(entries), Path: args[0]})
		},
	}
}
