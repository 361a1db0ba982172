package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexintel/LexTriage/internal/application/penalty"
	"github.com/lexintel/LexTriage/pkg/errors"
)

func newPenaltyCmd(opts *RootOptions) *cobra.Command {
	var (
		offenseCode string
		text        string
		keywords    []string
		actions     []string
		amounts     []string
	)

	cmd := &cobra.Command{
		Use:   "penalty",
		Short: "Estimate the penalty exposure for one offense",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(offenseCode) == "" {
				return errors.InvalidParam("penalty: --offense is required")
			}

			app, err := opts.newApp(cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			estimate, err := app.Estimator.Estimate(cmd.Context(), offenseCode, penalty.Context{
				Text:     text,
				Keywords: keywords,
				Actions:  actions,
				Amounts:  amounts,
			})
			if err != nil {
				return err
			}

			if opts.Output == "json" {
				return printJSON(cmd.OutOrStdout(), estimate)
			}
			printEstimate(cmd, estimate)
			return nil
		},
	}

	cmd.Flags().StringVar(&offenseCode, "offense", "", "statute section code, e.g. \"IPC 379\" (required)")
	cmd.Flags().StringVar(&text, "text", "", "incident narrative scanned for penalty factors")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "extra factor hints")
	cmd.Flags().StringSliceVar(&actions, "actions", nil, "recorded actions, e.g. \"used weapon\"")
	cmd.Flags().StringSliceVar(&amounts, "amounts", nil, "monetary amounts involved")
	return cmd
}

func printEstimate(cmd *cobra.Command, est *penalty.Estimate) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s\n", est.OffenseCode, est.Title)
	fmt.Fprintf(out, "  Estimate:   %s\n", est.Summary)
	fmt.Fprintf(out, "  Confidence: %.2f\n", est.Confidence)
	if len(est.Factors.Aggravating) > 0 {
		fmt.Fprintf(out, "  Aggravating: %s\n", strings.Join(est.Factors.Aggravating, ", "))
	}
	if len(est.Factors.Mitigating) > 0 {
		fmt.Fprintf(out, "  Mitigating:  %s\n", strings.Join(est.Factors.Mitigating, ", "))
	}
}
