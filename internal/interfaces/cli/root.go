// Package cli implements the lextriage command-line interface.  Every
// subcommand assembles its dependencies through the bootstrap package, so
// the CLI runs against exactly the same service graph as the API server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexintel/LexTriage/internal/bootstrap"
	"github.com/lexintel/LexTriage/internal/config"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	DataDir    string
	LogLevel   string
	Output     string
}

// newApp assembles the service graph for a one-shot command invocation.
// The log-level flag overrides the configured level so that e.g.
// `--log-level debug` works without editing the config file.
func (o *RootOptions) newApp(cmd *cobra.Command, serveMetrics bool) (*bootstrap.App, error) {
	var cfg *config.Config
	var err error
	if o.ConfigPath != "" {
		cfg, err = config.Load(o.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}

	return bootstrap.New(cmd.Context(), bootstrap.Options{
		Config:         cfg,
		DataDir:        o.DataDir,
		DisableMetrics: !serveMetrics,
	})
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lextriage",
		Short: "LexTriage CLI, legal incident triage from the terminal",
		Long: "LexTriage classifies incident narratives against a statutory offense\n" +
			"catalog, estimates penalty exposure from the statutory clauses, and\n" +
			"retrieves similar and precedent cases from the decision corpus.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: LEXTRIAGE_* environment)")
	pf.StringVar(&opts.DataDir, "data-dir", "", "directory with offenses.json and cases.json seed files")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&opts.Output, "output", "o", "text", "output format (text, json)")

	cmd.AddCommand(
		newClassifyCmd(opts),
		newPenaltyCmd(opts),
		newSearchCmd(opts),
		newTriageCmd(opts),
		newServeCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// Execute runs the root command and maps failure onto exit code 1.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
