// Package cli holds the cobra commands of the policyforge binary.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-policyforge/internal/config"
	"github.com/goliatone/go-policyforge/internal/logging"
	"github.com/goliatone/go-policyforge/pkg/export"
	"github.com/goliatone/go-policyforge/pkg/prompt"
)

// deps are the seams tests replace.
type deps struct {
	newDriver func(out io.Writer) prompt.PromptDriver
	clipboard export.Clipboard
}

func defaultDeps() deps {
	return deps{
		newDriver: prompt.NewSurveyDriver,
		clipboard: export.SystemClipboard{},
	}
}

type app struct {
	deps

	configFile string
	logLevel   string

	cfg    *config.Config
	logger *logrus.Logger
}

// NewRootCommand builds the policyforge command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultDeps())
}

func newRootCommand(d deps) *cobra.Command {
	a := &app{deps: d}

	root := &cobra.Command{
		Use:   "policyforge",
		Short: "Generate privacy policies through a step-by-step wizard.",
		Long: `policyforge walks you through a few questions about your website or
mobile application and assembles a privacy policy from the answers.

Run it as a web wizard (serve) or answer the questions in the terminal
(generate).`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default is $HOME/.policyforge.yaml)")
	root.PersistentFlags().StringVarP(&a.logLevel, "loglevel", "l", "", "Set log level. Available: debug, info, warn, error")

	root.AddCommand(
		newServeCommand(a),
		newGenerateCommand(a),
		newCountriesCommand(a),
	)
	return root
}

// init loads configuration and the logger once flags are parsed.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logger, err := logging.New(cfg.Log.Level, logging.Format(cfg.Log.Format))
	if err != nil {
		return err
	}
	logger.SetOutput(cmd.ErrOrStderr())

	a.cfg = cfg
	a.logger = logger
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
