package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexintel/LexTriage/internal/application/classification"
	"github.com/lexintel/LexTriage/pkg/errors"
)

func newClassifyCmd(opts *RootOptions) *cobra.Command {
	var (
		text     string
		keywords []string
		topK     int
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Rank offense candidates for an incident narrative",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(text) == "" {
				return errors.InvalidParam("classify: --text is required")
			}

			app, err := opts.newApp(cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			candidates, err := app.Classifier.Classify(cmd.Context(), text, keywords, topK)
			if err != nil {
				return err
			}

			if opts.Output == "json" {
				return printJSON(cmd.OutOrStdout(), candidates)
			}
			printCandidates(cmd, candidates)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "incident narrative (required)")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "extra lexical hints")
	cmd.Flags().IntVar(&topK, "top-k", 0, "candidate list size (default from config)")
	return cmd
}

func printCandidates(cmd *cobra.Command, candidates []classification.Candidate) {
	out := cmd.OutOrStdout()
	if len(candidates) == 0 {
		fmt.Fprintln(out, "No offense candidates found.")
		return
	}
	for i, c := range candidates {
		methods := make([]string, len(c.Methods))
		for j, m := range c.Methods {
			methods[j] = string(m)
		}
		fmt.Fprintf(out, "%d. %s  %s  (confidence %.2f, via %s)\n",
			i+1, c.OffenseCode, c.Title, c.Confidence, strings.Join(methods, "+"))
	}
}
