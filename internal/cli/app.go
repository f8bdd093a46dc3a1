package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/state"
)

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage")

// DataCommands are the subcommands App.Run handles.
var DataCommands = []string{"add", "edit", "delete", "list", "summary", "categories"}

// App runs the data subcommands against a state holder.
type App struct {
	holder *state.Holder
	out    io.Writer
	errOut io.Writer
}

func NewApp(holder *state.Holder, out, errOut io.Writer) *App {
	return &App{holder: holder, out: out, errOut: errOut}
}

// Run executes the named subcommand with its arguments.
func (a *App) Run(ctx context.Context, name string, args []string) error {
	switch name {
	case "add":
		return a.add(ctx, args)
	case "edit":
		return a.edit(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "list":
		return a.list(ctx, args)
	case "summary":
		return a.summary(ctx, args)
	case "categories":
		return a.categories(ctx, args)
	}
	return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", ErrUsage, fs.Args())
	}
	return nil
}

// viewFlags selects the operations a read command works on.
type viewFlags struct {
	filter string
	from   string
	to     string
}

func (v *viewFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&v.filter, "filter", state.FilterAll, "named filter: "+strings.Join(state.FilterNames(), ", "))
	fs.StringVar(&v.from, "from", "", "range start date (inclusive)")
	fs.StringVar(&v.to, "to", "", "range end date (inclusive)")
}

func (a *App) applyView(ctx context.Context, v viewFlags) error {
	if v.from == "" && v.to == "" {
		return a.holder.ApplyFilter(ctx, v.filter)
	}
	from, err := optionalDate(v.from)
	if err != nil {
		return err
	}
	to, err := optionalDate(v.to)
	if err != nil {
		return err
	}
	return a.holder.ApplyRange(ctx, from, to)
}

func optionalDate(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

// operationFlags are the editable fields of an operation.
type operationFlags struct {
	kind     string
	name     string
	amount   string
	category string
	date     string
}

func (o *operationFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&o.kind, "kind", "", "income or expense")
	fs.StringVar(&o.name, "name", "", "optional description")
	fs.StringVar(&o.amount, "amount", "", "positive amount, e.g. 12.50")
	fs.StringVar(&o.category, "category", "", "category name")
	fs.StringVar(&o.date, "date", "", "YYYY-MM-DD, DD.MM.YYYY or DD-MM-YYYY")
}

func (a *App) add(ctx context.Context, args []string) error {
	var of operationFlags
	fs := a.flagSet("add")
	of.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	kind, err := core.ParseKind(of.kind)
	if err != nil {
		return err
	}
	amount, err := core.ParseMoney(of.amount)
	if err != nil {
		return err
	}
	date, err := core.ParseDate(of.date)
	if err != nil {
		return err
	}

	added, err := a.holder.AddOperation(ctx, core.Operation{
		Kind:     kind,
		Name:     strings.TrimSpace(of.name),
		Amount:   amount,
		Category: strings.TrimSpace(of.category),
		Date:     date,
	})
	if err != nil {
		if added.ID == 0 {
			return err
		}
		applog.FromContext(ctx).WarnContext(ctx, "Operation added but snapshot is stale",
			applog.NewFields().WithEntry(added).WithError(err).ToSlice()...)
	}

	fmt.Fprintf(a.out, "Added %s #%d: %s %s on %s\n", added.Kind, added.ID, added.Amount, added.Category, added.Date)
	return nil
}

// edit overwrites only the fields given on the command line.
func (a *App) edit(ctx context.Context, args []string) error {
	var of operationFlags
	var id int64
	fs := a.flagSet("edit")
	of.register(fs)
	fs.Int64Var(&id, "id", 0, "operation id")
	if err := parse(fs, args); err != nil {
		return err
	}

	kind, err := core.ParseKind(of.kind)
	if err != nil {
		return err
	}
	if id <= 0 {
		return fmt.Errorf("%w: operation id %d", core.ErrInvalidID, id)
	}

	if err := a.holder.ApplyFilter(ctx, state.FilterAll); err != nil {
		return err
	}
	op, ok := findOperation(a.holder.State().Snapshot.Operations, kind, id)
	if !ok {
		return fmt.Errorf("%w: %s transaction %d", core.ErrTransactionNotFound, kind, id)
	}

	var fieldErr error
	fs.Visit(func(f *flag.Flag) {
		if fieldErr != nil {
			return
		}
		switch f.Name {
		case "name":
			op.Name = strings.TrimSpace(of.name)
		case "amount":
			op.Amount, fieldErr = core.ParseMoney(of.amount)
		case "category":
			op.Category = strings.TrimSpace(of.category)
		case "date":
			op.Date, fieldErr = core.ParseDate(of.date)
		}
	})
	if fieldErr != nil {
		return fieldErr
	}

	if err := a.holder.EditOperation(ctx, op); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s #%d: %s %s on %s\n", op.Kind, op.ID, op.Amount, op.Category, op.Date)
	return nil
}

func findOperation(ops []core.Operation, kind core.Kind, id int64) (core.Operation, bool) {
	for _, op := range ops {
		if op.Kind == kind && op.ID == id {
			return op, true
		}
	}
	return core.Operation{}, false
}

func (a *App) delete(ctx context.Context, args []string) error {
	var kindFlag string
	var id int64
	fs := a.flagSet("delete")
	fs.StringVar(&kindFlag, "kind", "", "income or expense")
	fs.Int64Var(&id, "id", 0, "operation id")
	if err := parse(fs, args); err != nil {
		return err
	}

	kind, err := core.ParseKind(kindFlag)
	if err != nil {
		return err
	}
	if err := a.holder.DeleteOperation(ctx, id, kind); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s #%d\n", kind, id)
	return nil
}

func (a *App) list(ctx context.Context, args []string) error {
	var v viewFlags
	fs := a.flagSet("list")
	v.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.applyView(ctx, v); err != nil {
		return err
	}

	ops := a.holder.State().Snapshot.Operations
	if len(ops) == 0 {
		fmt.Fprintln(a.out, "No operations.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tDATE\tCATEGORY\tAMOUNT\tNAME")
	for _, op := range ops {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", op.ID, op.Kind, op.Date, op.Category, op.Amount, op.Name)
	}
	return tw.Flush()
}

func (a *App) summary(ctx context.Context, args []string) error {
	var v viewFlags
	fs := a.flagSet("summary")
	v.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.applyView(ctx, v); err != nil {
		return err
	}

	view := a.holder.State()
	snap := view.Snapshot

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(a.out, "Filter: %s\n", describeFilter(view.Filter))
	fmt.Fprintf(tw, "Income\t%s\t\n", snap.TotalIncome)
	fmt.Fprintf(tw, "Expenses\t%s\t\n", snap.TotalExpenses)
	fmt.Fprintf(tw, "Balance\t%s\t\n", snap.Balance)
	if err := tw.Flush(); err != nil {
		return err
	}

	printBreakdown(a.out, "Expenses by category", snap.ExpensesByCategory)
	printBreakdown(a.out, "Income by category", snap.IncomeByCategory)
	return nil
}

func describeFilter(f state.Filter) string {
	if f.From.IsZero() && f.To.IsZero() {
		return f.Name
	}
	from, to := "...", "..."
	if !f.From.IsZero() {
		from = f.From.ISO()
	}
	if !f.To.IsZero() {
		to = f.To.ISO()
	}
	return fmt.Sprintf("%s (%s to %s)", f.Name, from, to)
}

func printBreakdown(w io.Writer, title string, byCategory map[string]core.Money) {
	rows := core.Breakdown(byCategory)
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "  %s\t%s\n", row.Name, row.Amount)
	}
	_ = tw.Flush()
}

func (a *App) categories(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: categories requires list, add or delete", ErrUsage)
	}

	var kindFlag, name string
	fs := a.flagSet("categories " + args[0])
	fs.StringVar(&kindFlag, "kind", "", "income or expense")
	if args[0] != "list" {
		fs.StringVar(&name, "name", "", "category name")
	}
	if err := parse(fs, args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		return a.listCategories(ctx, kindFlag)
	case "add":
		kind, err := core.ParseKind(kindFlag)
		if err != nil {
			return err
		}
		c, err := a.holder.AddCategory(ctx, name, kind)
		if err != nil && c.ID == 0 {
			return err
		}
		fmt.Fprintf(a.out, "Added %s category %q\n", c.Kind, c.Name)
		return nil
	case "delete":
		kind, err := core.ParseKind(kindFlag)
		if err != nil {
			return err
		}
		if err := a.holder.DeleteCategory(ctx, name, kind); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted %s category %q\n", kind, strings.TrimSpace(name))
		return nil
	}
	return fmt.Errorf("%w: unknown categories action %q", ErrUsage, args[0])
}

func (a *App) listCategories(ctx context.Context, kindFlag string) error {
	kinds := core.Kinds()
	if kindFlag != "" {
		kind, err := core.ParseKind(kindFlag)
		if err != nil {
			return err
		}
		kinds = []core.Kind{kind}
	}

	if err := a.holder.Refresh(ctx); err != nil {
		return err
	}
	snap := a.holder.State().Snapshot
	for _, kind := range kinds {
		names := snap.ExpenseCategories
		if kind == core.Income {
			names = snap.IncomeCategories
		}
		fmt.Fprintf(a.out, "%s:\n", kind)
		for _, name := range names {
			fmt.Fprintf(a.out, "  %s\n", name)
		}
	}
	return nil
}

// ExporterFactory opens the spreadsheet destination for an export.
type ExporterFactory func(ctx context.Context) (sheets.SnapshotExporter, error)

// Export writes the snapshot selected by args to the exporter from open.
// With -dry-run the rows are printed instead and open is not called.
func (a *App) Export(ctx context.Context, open ExporterFactory, args []string) error {
	var v viewFlags
	var dryRun bool
	fs := a.flagSet("export")
	v.register(fs)
	fs.BoolVar(&dryRun, "dry-run", false, "print the rows instead of writing the spreadsheet")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.applyView(ctx, v); err != nil {
		return err
	}
	snap := a.holder.State().Snapshot

	if dryRun {
		preview := memory.New()
		if err := preview.ExportSnapshot(ctx, snap); err != nil {
			return err
		}
		operations, summary := preview.Sheets()
		printRows(a.out, operations)
		fmt.Fprintln(a.out)
		printRows(a.out, summary)
		return nil
	}

	exporter, err := open(ctx)
	if err != nil {
		return fmt.Errorf("open exporter: %w", err)
	}
	if err := exporter.ExportSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(a.out, "Exported %d operations\n", len(snap.Operations))
	return nil
}

func printRows(w io.Writer, rows [][]any) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprint(cell)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}
