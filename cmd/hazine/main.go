// Command hazine is a personal expense logger: dated entries with a
// category, amount, mission tag and optional receipt image, stored in a
// local SQLite database, exportable per mission as a PDF report with
// right-to-left text shaping.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/disintegration/imaging"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"hazine/internal/assets"
	"hazine/internal/cli"
	"hazine/internal/config"
	"hazine/internal/core"
	"hazine/internal/report"
	"hazine/internal/storage"
)

type app struct {
	store     *storage.Store
	assets    *assets.Manager
	generator *report.Generator
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(slog.LevelInfo)
	cfg := cli.LoadAndValidateConfig(logger)
	if lvl, err := config.ParseLevel(cfg.LogLevel); err == nil && lvl != slog.LevelInfo {
		logger = cli.SetupLogger(lvl)
	}

	store := cli.InitStore(logger, cfg.DBPath)
	defer store.Close()

	mgr, err := assets.NewManager(cfg.ReceiptsDir)
	if err != nil {
		logger.Error("Failed to initialize receipt storage", "error", err, "dir", cfg.ReceiptsDir)
		os.Exit(1)
	}

	a := &app{
		store:  store,
		assets: mgr,
		generator: report.NewGenerator(
			store, mgr, report.NewShaper(), report.NewFontResolver(cfg.FontsDir)),
	}

	root := a.rootCommand()
	if err := root.ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, ff.ErrHelp) {
			fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root))
			return
		}
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func (a *app) rootCommand() *ff.Command {
	rootFS := ff.NewFlagSet("hazine")
	root := &ff.Command{
		Name:      "hazine",
		Usage:     "hazine <subcommand> [flags]",
		ShortHelp: "personal expense logger with mission PDF export",
		Flags:     rootFS,
	}
	root.Subcommands = []*ff.Command{
		a.addCommand(rootFS),
		a.listCommand(rootFS),
		a.updateCommand(rootFS),
		a.deleteCommand(rootFS),
		a.previewCommand(rootFS),
		a.exportCommand(rootFS),
	}
	root.Exec = func(context.Context, []string) error { return ff.ErrHelp }
	return root
}

func (a *app) addCommand(parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("add").SetParent(parent)
	var (
		date        = fs.StringLong("date", core.Today().String(), "expense date (YYYY-MM-DD)")
		category    = fs.StringLong("category", core.Categories[0], "expense category")
		amount      = fs.StringLong("amount", "", "amount, e.g. 120.50")
		description = fs.StringLong("description", "", "free-text description")
		mission     = fs.StringLong("mission", "", "mission tag used for report export")
		imageFile   = fs.StringLong("image", "", "receipt image file to ingest")
	)
	return &ff.Command{
		Name:      "add",
		Usage:     "hazine add --amount 120.50 [flags]",
		ShortHelp: "record a new expense",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			e, err := a.buildExpense(*date, *category, *amount, *description, *mission, *imageFile, "")
			if err != nil {
				return err
			}
			id, err := a.store.Create(ctx, e)
			if err != nil {
				return err
			}
			fmt.Printf("added expense %d\n", id)
			return nil
		},
	}
}

func (a *app) listCommand(parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("list").SetParent(parent)
	var (
		from    = fs.StringLong("from", "", "only expenses on or after this date")
		to      = fs.StringLong("to", "", "only expenses on or before this date")
		mission = fs.StringLong("mission", "", "only expenses whose mission contains this text")
	)
	return &ff.Command{
		Name:      "list",
		Usage:     "hazine list [--from DATE] [--to DATE] [--mission TEXT]",
		ShortHelp: "list expenses, newest first",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			var f core.Filter
			if *from != "" {
				d, err := core.ParseDay(*from)
				if err != nil {
					return fmt.Errorf("--from: %w", err)
				}
				f.From = &d
			}
			if *to != "" {
				d, err := core.ParseDay(*to)
				if err != nil {
					return fmt.Errorf("--to: %w", err)
				}
				f.To = &d
			}
			f.Mission = *mission

			records, err := a.store.FilterList(ctx, f)
			if err != nil {
				return err
			}
			printRecords(records)
			return nil
		},
	}
}

func (a *app) updateCommand(parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("update").SetParent(parent)
	var (
		id          = fs.IntLong("id", 0, "id of the expense to update")
		date        = fs.StringLong("date", "", "new date (unset keeps current)")
		category    = fs.StringLong("category", "", "new category (unset keeps current)")
		amount      = fs.StringLong("amount", "", "new amount (unset keeps current)")
		description = fs.StringLong("description", "", "new description (unset keeps current)")
		mission     = fs.StringLong("mission", "", "new mission (unset keeps current)")
		imageFile   = fs.StringLong("image", "", "new receipt image file to ingest (unset keeps current)")
	)
	return &ff.Command{
		Name:      "update",
		Usage:     "hazine update --id N [flags]",
		ShortHelp: "replace fields of an expense",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			current, err := a.store.Get(ctx, int64(*id))
			if err != nil {
				return err
			}
			if *date == "" {
				*date = current.Date.String()
			}
			if *category == "" {
				*category = current.Category
			}
			keepAmount := *amount == ""
			if keepAmount {
				*amount = core.FormatAmount(current.Amount)
			}
			if *description == "" {
				*description = current.Description
			}
			if *mission == "" {
				*mission = current.Mission
			}
			e, err := a.buildExpense(*date, *category, *amount, *description, *mission, *imageFile, current.ImagePath)
			if err != nil {
				return err
			}
			if keepAmount {
				// FormatAmount rounds to two decimals; keep the stored
				// value exactly.
				e.Amount = current.Amount
			}
			if err := a.store.Update(ctx, int64(*id), e); err != nil {
				return err
			}
			fmt.Printf("updated expense %d\n", *id)
			return nil
		},
	}
}

func (a *app) deleteCommand(parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("delete").SetParent(parent)
	var (
		id  = fs.IntLong("id", 0, "id of the expense to delete")
		yes = fs.BoolLong("yes", "skip the confirmation prompt")
	)
	return &ff.Command{
		Name:      "delete",
		Usage:     "hazine delete --id N [--yes]",
		ShortHelp: "delete an expense (its receipt file is kept)",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			if !*yes && !confirm(fmt.Sprintf("delete expense %d?", *id)) {
				fmt.Println("aborted")
				return nil
			}
			if err := a.store.Delete(ctx, int64(*id)); err != nil {
				return err
			}
			fmt.Printf("deleted expense %d\n", *id)
			return nil
		},
	}
}

func (a *app) previewCommand(parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("preview").SetParent(parent)
	var (
		id   = fs.IntLong("id", 0, "id of the expense whose receipt to preview")
		out  = fs.StringLong("out", "preview.jpg", "output file for the preview image")
		size = fs.IntLong("size", 160, "bounding box for the preview, in pixels")
	)
	return &ff.Command{
		Name:      "preview",
		Usage:     "hazine preview --id N [--out FILE] [--size PX]",
		ShortHelp: "write a bounded-size copy of an expense's receipt image",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			rec, err := a.store.Get(ctx, int64(*id))
			if err != nil {
				return err
			}
			if rec.ImagePath == "" {
				return fmt.Errorf("expense %d has no receipt image", *id)
			}
			thumb, err := a.assets.Thumbnail(rec.ImagePath, *size, *size)
			if err != nil {
				return err
			}
			if err := imaging.Save(thumb, *out); err != nil {
				return fmt.Errorf("save preview: %w", err)
			}
			fmt.Printf("preview written to %s\n", *out)
			return nil
		},
	}
}

func (a *app) exportCommand(parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("export").SetParent(parent)
	var (
		mission = fs.StringLong("mission", "", "mission to export (exact match)")
		out     = fs.StringLong("out", "", "output PDF path (default: derived from mission and date)")
	)
	return &ff.Command{
		Name:      "export",
		Usage:     "hazine export --mission TEXT [--out FILE]",
		ShortHelp: "export a mission's expenses as a PDF report",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			if *mission == "" {
				return errors.New("--mission is required")
			}
			path := *out
			if path == "" {
				path = report.DefaultFileName(*mission)
			}
			if err := a.generator.Generate(ctx, *mission, path); err != nil {
				return err
			}
			fmt.Printf("report written to %s\n", path)
			return nil
		},
	}
}

// buildExpense validates field values and ingests the receipt image file,
// if any, into the managed directory.
func (a *app) buildExpense(date, category, amount, description, mission, imageFile, currentImage string) (core.Expense, error) {
	d, err := core.ParseDay(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("--date: %w", err)
	}
	v, err := core.ParseAmount(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("--amount: %w", err)
	}

	imagePath := currentImage
	if imageFile != "" {
		img, err := imaging.Open(imageFile)
		if err != nil {
			return core.Expense{}, fmt.Errorf("open receipt image: %w", err)
		}
		imagePath, err = a.assets.Ingest(img)
		if err != nil {
			return core.Expense{}, err
		}
	}

	return core.Expense{
		Date:        d,
		Category:    category,
		Amount:      v,
		Description: description,
		Mission:     mission,
		ImagePath:   imagePath,
	}, nil
}

func printRecords(records []core.Expense) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION\tMISSION\tIMAGE")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date, r.Category, core.FormatAmount(r.Amount),
			r.Description, r.Mission, r.ImagePath)
	}
	w.Flush()
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "y" || answer == "yes"
}
