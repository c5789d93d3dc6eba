package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chunkscribe/internal/config"
	"chunkscribe/internal/language"
	"chunkscribe/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var skipAPI bool
	var outputDir string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify dependencies, directories and the API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderSettings(cfg))
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{
				OutputDir: strings.TrimSpace(outputDir),
				SkipAPI:   skipAPI,
			})
			fmt.Fprintln(out, renderPreflight(results, colorize))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipAPI, "skip-api", false, "Skip the API key check against the service")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Also check write access to this output directory")
	return cmd
}

func renderSettings(cfg *config.Config) string {
	t := cfg.Transcription
	rows := [][]string{
		{"Service", cfg.OpenAI.BaseURL},
		{"Model", cfg.OpenAI.Model},
		{"API key", yesNo(cfg.OpenAI.APIKey != "")},
		{"Language", fmt.Sprintf("%s (%s)", language.DisplayName(t.Language), t.Language)},
		{"Translate", yesNo(t.Translate)},
		{"Timestamps", yesNo(t.Timestamps)},
		{"Request ceiling", fmt.Sprintf("%d MB", t.MaxRequestMB)},
		{"Window", fmt.Sprintf("%d min", t.WindowMinutes)},
		{"Workers", fmt.Sprintf("%d", t.Workers)},
		{"Work directory", cfg.Paths.WorkDir},
		{"History", yesNo(cfg.History.Enabled)},
	}
	return renderTable("Settings", []string{"Setting", "Value"}, rows, nil)
}
