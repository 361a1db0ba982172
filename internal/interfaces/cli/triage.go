package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexintel/LexTriage/internal/application/triage"
	"github.com/lexintel/LexTriage/pkg/errors"
)

func newTriageCmd(opts *RootOptions) *cobra.Command {
	var (
		text      string
		keywords  []string
		actions   []string
		amounts   []string
		topK      int
		caseTopK  int
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Run the full pipeline: classify, estimate penalties, retrieve cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(text) == "" {
				return errors.InvalidParam("triage: --text is required")
			}

			app, err := opts.newApp(cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.WarmIndex(cmd.Context()); err != nil {
				return err
			}

			if threshold == 0 {
				threshold = app.Config.Retrieval.PrecedentThreshold
			}
			report, err := app.Pipeline.Triage(cmd.Context(), triage.Request{
				Text:               text,
				Keywords:           keywords,
				Actions:            actions,
				Amounts:            amounts,
				TopK:               topK,
				RetrievalTopK:      caseTopK,
				PrecedentThreshold: threshold,
			})
			if err != nil {
				return err
			}

			if opts.Output == "json" {
				return printJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "incident narrative (required)")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "extra lexical hints")
	cmd.Flags().StringSliceVar(&actions, "actions", nil, "recorded actions")
	cmd.Flags().StringSliceVar(&amounts, "amounts", nil, "monetary amounts involved")
	cmd.Flags().IntVar(&topK, "top-k", 0, "offense candidate list size (default from config)")
	cmd.Flags().IntVar(&caseTopK, "case-top-k", 0, "similar-case list size (default from config)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "precedent similarity threshold (default from config)")
	return cmd
}

func printReport(cmd *cobra.Command, report *triage.Report) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Offense candidates:")
	printCandidates(cmd, report.Candidates)

	fmt.Fprintln(out, "Penalty estimates:")
	for i := range report.Penalties {
		printEstimate(cmd, &report.Penalties[i])
	}

	if report.Cases != nil {
		printSearchResult(cmd, report.Cases)
	}

	fmt.Fprintf(out, "Completed in %s\n", report.Elapsed.Round(time.Millisecond))
}
