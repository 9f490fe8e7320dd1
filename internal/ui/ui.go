package ui

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rdo34/fuel/internal/app"
	"github.com/rdo34/fuel/internal/calc"
	"github.com/rdo34/fuel/internal/model"
	"github.com/rdo34/fuel/internal/report"
	"github.com/rdo34/fuel/internal/store"
)

const DefaultControls = "[a] Add  [e] Edit  [x] Delete  [ / ] Month  [T] This month  [?] Help  [esc] Quit"

const (
	labelDate   = "Date"
	labelLiters = "Liters"
	labelAmount = "Amount"
	labelRate   = "Rate"
	labelMeter  = "Meter"
)

var columns = []string{"DATE", "LITERS", "AMOUNT", "RATE", "METER", "MILEAGE", "COST"}

type Options struct {
	// KV holds UI preferences; nil disables them.
	KV          store.KV
	Placeholder string
	Logger      *slog.Logger
}

type UI struct {
	app        *tview.Application
	pages      *tview.Pages
	grid       *tview.Grid
	table      *tview.Table
	form       *tview.Form
	summary    *tview.TextView
	titleRight *tview.TextView
	controls   *tview.TextView

	state       *app.App
	kv          store.KV
	prefs       store.Preferences
	month       model.Month
	selID       string
	placeholder string
	logger      *slog.Logger
}

// New builds the TUI around a loaded App.
func New(state *app.App, opts Options) *UI {
	u := &UI{
		app:         tview.NewApplication(),
		state:       state,
		kv:          opts.KV,
		placeholder: opts.Placeholder,
		logger:      opts.Logger,
		month:       state.CurrentMonth(),
	}
	if u.placeholder == "" {
		u.placeholder = report.DefaultPlaceholder
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	u.logger = u.logger.With("component", "ui")

	tableWidth := 0
	if u.kv != nil {
		if p, err := store.LoadPreferences(u.kv); err == nil {
			u.prefs = p
			if m, err := model.ParseMonth(p.LastMonth); err == nil {
				u.month = m
			}
			tableWidth = p.TableWidth
		} else if !errors.Is(err, store.ErrNotFound) {
			u.logger.Warn("preferences unreadable", "error", err)
		}
	}

	titleLeft := tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignLeft)
	titleLeft.SetText("[red::b]FUEL[-]")
	u.titleRight = tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignRight)
	titleGrid := tview.NewGrid().SetRows(1).SetColumns(0, 0)
	titleGrid.AddItem(titleLeft, 0, 0, 1, 1, 0, 0, false)
	titleGrid.AddItem(u.titleRight, 0, 1, 1, 1, 0, 0, false)
	headerRule := tview.NewTextView().SetDynamicColors(true)
	headerRule.SetText("[green]" + strings.Repeat("─", 200))
	u.controls = tview.NewTextView().SetTextAlign(tview.AlignCenter)

	u.table = tview.NewTable().SetSelectable(true, false).SetFixed(1, 0)
	u.table.SetSelectionChangedFunc(func(row, column int) {
		if id, ok := u.rowID(row); ok {
			u.selID = id
		}
	})

	u.form = tview.NewForm()
	u.form.SetBorder(true).SetTitle(" Entry ")
	for _, l := range []string{labelDate, labelLiters, labelAmount, labelRate, labelMeter} {
		u.form.AddInputField(l, "", 14, nil, nil)
		styleInputField(u.form.GetFormItemByLabel(l).(*tview.InputField))
	}
	u.form.AddButton(submitLabel(app.Creating{}), u.submit)
	u.form.AddButton("Cancel", u.cancelEdit)
	u.form.SetCancelFunc(u.cancelEdit)

	u.summary = tview.NewTextView().SetDynamicColors(true)
	u.summary.SetBorder(true)

	side := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(u.form, 15, 0, false).
		AddItem(u.summary, 0, 1, false)
	body := tview.NewFlex()
	if tableWidth > 0 {
		body.AddItem(u.table, tableWidth, 0, true)
	} else {
		body.AddItem(u.table, 0, 2, true)
	}
	body.AddItem(side, 36, 0, false)

	u.grid = tview.NewGrid().
		SetRows(1, 1, 0, 1).
		SetColumns(0).
		AddItem(titleGrid, 0, 0, 1, 1, 0, 0, false).
		AddItem(headerRule, 1, 0, 1, 1, 0, 0, false).
		AddItem(body, 2, 0, 1, 1, 0, 0, true).
		AddItem(u.controls, 3, 0, 1, 1, 0, 0, false)
	u.grid.SetInputCapture(u.handleKey)

	u.pages = tview.NewPages()
	u.pages.AddPage("main", u.grid, true, true)

	u.refresh()
	return u
}

// Run starts the application event loop.
func (u *UI) Run() error {
	return u.app.SetRoot(u.pages, true).SetFocus(u.table).Run()
}

func (u *UI) handleKey(event *tcell.EventKey) *tcell.EventKey {
	// Keys typed into the form belong to the form.
	if u.form.HasFocus() {
		if event.Key() == tcell.KeyEscape {
			u.cancelEdit()
			return nil
		}
		return event
	}
	switch event.Key() {
	case tcell.KeyEscape:
		if _, editing := u.state.Mode().(app.Editing); editing {
			u.cancelEdit()
			return nil
		}
		u.app.Stop()
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'a':
			u.app.SetFocus(u.form)
			return nil
		case 'e':
			if u.selID != "" {
				u.dispatch(app.RequestEdit{ID: u.selID})
			}
			return nil
		case 'x':
			if u.selID != "" {
				u.dispatch(app.RequestDelete{ID: u.selID})
			}
			return nil
		case '[':
			u.setMonth(u.month.Prev())
			return nil
		case ']':
			u.setMonth(u.month.Next())
			return nil
		case 'T':
			u.setMonth(u.state.CurrentMonth())
			return nil
		case '?':
			u.showHelp()
			return nil
		}
	}
	return event
}

// dispatch sends cmd to the controller and turns confirmations and
// validation failures into modals.
func (u *UI) dispatch(cmd app.Command) {
	res, err := u.state.Dispatch(cmd)
	if c, ok := app.IsConfirmation(err); ok {
		yes := "Continue"
		if _, del := cmd.(app.RequestDelete); del {
			yes = "Delete"
		}
		u.confirm(c.Prompt, yes, func() { u.dispatch(c.Retry) })
		return
	}
	var ve *app.ValidationError
	if errors.As(err, &ve) {
		u.alert(ve.Error())
		return
	}
	if err != nil {
		u.alert("Could not save: " + err.Error())
		return
	}

	switch cmd.(type) {
	case app.Submit:
		u.selID = res.Entry.ID
		u.clearForm()
		u.app.SetFocus(u.table)
	case app.RequestEdit:
		if res.Entry.ID != "" {
			u.fillForm(app.InputFrom(res.Entry))
			u.app.SetFocus(u.form)
		}
	case app.RequestDelete:
		if res.Changed && u.selID == res.Entry.ID {
			u.selID = ""
		}
	}
	u.refresh()
}

func (u *UI) submit() {
	u.dispatch(app.Submit{Input: u.readForm()})
}

func (u *UI) cancelEdit() {
	u.dispatch(app.CancelEdit{})
	u.clearForm()
	u.app.SetFocus(u.table)
}

func (u *UI) setMonth(m model.Month) {
	u.month = m
	u.refresh()
	if u.kv == nil {
		return
	}
	u.prefs.LastMonth = m.String()
	if err := store.SavePreferences(u.kv, u.prefs); err != nil {
		u.logger.Warn("save preferences failed", "error", err)
	}
}

func (u *UI) refresh() {
	u.refreshTable()
	u.summary.SetTitle(" " + u.month.Label() + " ")
	u.summary.SetText(summaryText(u.state.Summary(u.month), u.placeholder))
	u.titleRight.SetText(u.month.Label())
	u.form.GetButton(0).SetLabel(submitLabel(u.state.Mode()))
	if ed, ok := u.state.Mode().(app.Editing); ok {
		u.controls.SetText("Editing " + ed.ID + "  [esc] Cancel")
	} else {
		u.controls.SetText(DefaultControls)
	}
}

// refreshTable rebuilds the rows and keeps the selection on the same id.
func (u *UI) refreshTable() {
	u.table.Clear()
	for c, h := range columns {
		u.table.SetCell(0, c, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(tcell.ColorYellow).
			SetExpansion(1))
	}
	entries := u.state.Entries()
	if len(entries) == 0 {
		u.table.SetCell(1, 0, tview.NewTableCell("No entries yet; press 'a' to add one").SetSelectable(false))
		u.selID = ""
		return
	}
	target := 1
	for i, e := range entries {
		row := i + 1
		for c, text := range rowCells(e, u.placeholder) {
			cell := tview.NewTableCell(text).SetExpansion(1)
			if c > 0 {
				cell.SetAlign(tview.AlignRight)
			}
			if c == 0 {
				cell.SetReference(e.ID)
			}
			u.table.SetCell(row, c, cell)
		}
		if e.ID == u.selID {
			target = row
		}
	}
	u.table.Select(target, 0)
	if id, ok := u.rowID(target); ok {
		u.selID = id
	}
}

func (u *UI) rowID(row int) (string, bool) {
	cell := u.table.GetCell(row, 0)
	if cell == nil {
		return "", false
	}
	id, ok := cell.GetReference().(string)
	return id, ok
}

func (u *UI) field(label string) *tview.InputField {
	return u.form.GetFormItemByLabel(label).(*tview.InputField)
}

func (u *UI) readForm() app.Input {
	return app.Input{
		Date:   u.field(labelDate).GetText(),
		Liters: u.field(labelLiters).GetText(),
		Amount: u.field(labelAmount).GetText(),
		Rate:   u.field(labelRate).GetText(),
		Meter:  u.field(labelMeter).GetText(),
	}
}

func (u *UI) fillForm(in app.Input) {
	u.field(labelDate).SetText(in.Date)
	u.field(labelLiters).SetText(in.Liters)
	u.field(labelAmount).SetText(in.Amount)
	u.field(labelRate).SetText(in.Rate)
	u.field(labelMeter).SetText(in.Meter)
}

func (u *UI) clearForm() { u.fillForm(app.Input{}) }

// confirm shows a two-button modal. onYes runs only when the first button
// is chosen.
func (u *UI) confirm(prompt, yes string, onYes func()) {
	prev := u.app.GetFocus()
	modal := tview.NewModal().
		SetText(prompt).
		AddButtons([]string{yes, "Cancel"}).
		SetDoneFunc(func(index int, _ string) {
			u.pages.RemovePage("modal")
			u.app.SetFocus(prev)
			if index == 0 {
				onYes()
			}
		})
	u.pages.AddPage("modal", modal, false, true)
	u.app.SetFocus(modal)
}

func (u *UI) alert(msg string) {
	prev := u.app.GetFocus()
	modal := tview.NewModal().
		SetText(msg).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			u.pages.RemovePage("modal")
			u.app.SetFocus(prev)
		})
	u.pages.AddPage("modal", modal, false, true)
	u.app.SetFocus(modal)
}

func (u *UI) showHelp() {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true).
		SetText(helpText).
		SetTextAlign(tview.AlignLeft)
	tv.SetBorder(false)
	tv.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			u.pages.RemovePage("help")
			u.app.SetFocus(u.table)
		}
		return nil
	})
	u.pages.AddPage("help", center(52, 20, pad(wrapWithRules(tv), 1, 0)), true, true)
	u.app.SetFocus(tv)
}

var helpText = strings.Join([]string{
	"[red::b]FUEL[-] Help",
	"",
	"Entries:",
	"  a  Add (focus the form)",
	"  e  Edit selected",
	"  x  Delete selected",
	"  Tab moves between form fields",
	"",
	"Summary:",
	"  [  Previous month   ]  Next month",
	"  T  This month",
	"",
	"Esc cancels an edit, otherwise quits.",
	"Close: Esc",
}, "\n")

func submitLabel(m app.Mode) string {
	if _, ok := m.(app.Editing); ok {
		return "Update Entry"
	}
	return "Add Entry"
}

// rowCells renders one table row in column order.
func rowCells(e model.Entry, placeholder string) []string {
	return []string{
		e.Date,
		report.Number(e.Liters),
		report.Number(e.Amount),
		report.Number(e.Rate),
		strconv.FormatInt(e.Meter, 10),
		report.Optional(e.Mileage, placeholder),
		report.Optional(e.Cost, placeholder),
	}
}

func summaryText(s calc.Summary, placeholder string) string {
	var b strings.Builder
	_ = report.SummaryView{Summary: s, Placeholder: placeholder}.WriteText(&b)
	// Drop the month line; the pane title carries it.
	text := b.String()
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimRight(text, "\n")
}

// center returns a centered primitive with a fixed size.
func center(w, h int, p tview.Primitive) tview.Primitive {
	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(tview.NewBox(), 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(tview.NewBox(), 0, 1, false).
			AddItem(p, w, 0, true).
			AddItem(tview.NewBox(), 0, 1, false),
			h, 0, true).
		AddItem(tview.NewBox(), 0, 1, false)
}

func styleInputField(f *tview.InputField) {
	f.SetBackgroundColor(tcell.ColorDefault)
	f.SetFieldBackgroundColor(tcell.ColorDefault)
}

// wrapWithRules surrounds a primitive with a top and bottom horizontal rule.
func wrapWithRules(p tview.Primitive) tview.Primitive {
	top := tview.NewTextView().SetDynamicColors(true)
	bottom := tview.NewTextView().SetDynamicColors(true)
	line := "[green]" + strings.Repeat("─", 200)
	top.SetText(line)
	bottom.SetText(line)
	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 1, 0, false).
		AddItem(p, 0, 1, true).
		AddItem(bottom, 1, 0, false)
}

// pad adds horizontal and vertical padding around a primitive.
func pad(p tview.Primitive, hpad, vpad int) tview.Primitive {
	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(tview.NewBox(), vpad, 0, false).
		AddItem(tview.NewFlex().
			AddItem(tview.NewBox(), hpad, 0, false).
			AddItem(p, 0, 1, true).
			AddItem(tview.NewBox(), hpad, 0, false),
			0, 1, true).
		AddItem(tview.NewBox(), vpad, 0, false)
}
