package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-policyforge/internal/metrics"
	"github.com/goliatone/go-policyforge/pkg/export"
	"github.com/goliatone/go-policyforge/pkg/prompt"
	"github.com/goliatone/go-policyforge/pkg/wizard"
)

type generateOptions struct {
	output   string
	format   string
	copyText bool
}

func newGenerateCommand(a *app) *cobra.Command {
	opts := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Answer the wizard in the terminal and print the policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.generate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the policy to this file (stdout if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "html", "output format: html or text")
	cmd.Flags().BoolVar(&opts.copyText, "copy", false, "also copy the plain-text policy to the clipboard")
	return cmd
}

func (a *app) generate(ctx context.Context, stdout io.Writer, opts generateOptions) error {
	format := strings.ToLower(strings.TrimSpace(opts.format))
	if format != "html" && format != "text" {
		return fmt.Errorf("unknown format %q (want html or text)", opts.format)
	}

	m := metrics.New()
	catalog := a.catalog(m)
	loadCatalog(ctx, catalog, m)

	def, err := a.definition()
	if err != nil {
		return err
	}
	assembler, err := a.assembler()
	if err != nil {
		return err
	}
	ctrl, err := wizard.New(def,
		wizard.WithCountries(catalog),
		wizard.WithAssembler(assembler),
		wizard.WithGenerationDelay(a.cfg.Wizard.GenerationDelay),
		wizard.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	runner, err := prompt.NewRunner(ctrl,
		prompt.WithPromptDriver(a.newDriver(stdout)),
		prompt.WithCountries(catalog),
		prompt.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	doc, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	out := doc + "\n"
	if format == "text" {
		text, err := export.PlainText(doc)
		if err != nil {
			return err
		}
		out = text + "\n"
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(out), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(stdout, "Policy written to %s\n", opts.output)
	} else {
		if _, err := io.WriteString(stdout, out); err != nil {
			return err
		}
	}

	if opts.copyText {
		if err := export.Copy(a.clipboard, doc); err != nil {
			a.logger.WithError(err).Warn("copy to clipboard failed")
		} else {
			fmt.Fprintln(stdout, "Copied to clipboard.")
		}
	}
	return nil
}
