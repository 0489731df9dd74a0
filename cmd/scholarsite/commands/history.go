package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	RunID string `arg:"" optional:"" help:"Show one run with its failed pages"`
	Limit int    `short:"n" default:"10" help:"Number of runs to list"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return ferrors.ConfigError("history.path is not configured").Build()
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	if h.RunID != "" {
		run, err := store.Get(ctx, h.RunID)
		if err != nil {
			return err
		}
		return printRun(os.Stdout, run)
	}
	runs, err := store.List(ctx, h.Limit)
	if err != nil {
		return err
	}
	return printRuns(os.Stdout, runs)
}

func printRuns(w io.Writer, runs []history.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tOUTCOME\tOK\tFAILED\tCOMMIT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Duration().Round(time.Millisecond),
			r.Outcome, r.Succeeded, r.Failed, r.GitCommit)
	}
	return tw.Flush()
}

func printRun(w io.Writer, r history.Run) error {
	if err := printRuns(w, []history.Run{r}); err != nil {
		return err
	}
	if len(r.Failures) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nFAILED PAGE\tSTATUS\tERROR")
	for _, f := range r.Failures {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", f.URLPath, f.Status, f.Error)
	}
	return tw.Flush()
}
