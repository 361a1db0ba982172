package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexintel/LexTriage/internal/application/retrieval"
	"github.com/lexintel/LexTriage/pkg/errors"
)

func newSearchCmd(opts *RootOptions) *cobra.Command {
	var (
		text      string
		sections  []string
		topK      int
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Retrieve similar and precedent cases for a narrative",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(text) == "" {
				return errors.InvalidParam("search: --text is required")
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
			result, err := app.Engine.Search(cmd.Context(), text, sections, retrieval.Options{
				TopK:               topK,
				PrecedentThreshold: threshold,
			})
			if err != nil {
				return err
			}

			if opts.Output == "json" {
				return printJSON(cmd.OutOrStdout(), result)
			}
			printSearchResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "query narrative (required)")
	cmd.Flags().StringSliceVar(&sections, "sections", nil, "restrict to cases under these statute sections")
	cmd.Flags().IntVar(&topK, "top-k", 0, "similar-case list size (default from config)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "precedent similarity threshold (default from config)")
	return cmd
}

func printSearchResult(cmd *cobra.Command, result *retrieval.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Similar cases (%d):\n", len(result.SimilarCases))
	for _, rc := range result.SimilarCases {
		fmt.Fprintf(out, "  %.3f  %s  %s\n", rc.Similarity, rc.ID, rc.Title)
	}

	fmt.Fprintf(out, "Precedent cases (%d):\n", len(result.PrecedentCases))
	for _, rc := range result.PrecedentCases {
		fmt.Fprintf(out, "  %.3f  %s  %s\n", rc.Similarity, rc.ID, rc.Title)
	}

	if len(result.SectionCases) > 0 {
		fmt.Fprintf(out, "Cases under the same sections (%d):\n", len(result.SectionCases))
		for _, c := range result.SectionCases {
			fmt.Fprintf(out, "  %s  %s  [%s]\n", c.ID, c.Title, strings.Join(c.Sections, ", "))
		}
	}
}
