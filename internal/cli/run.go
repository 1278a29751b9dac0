package cli

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/apinette/config"
	apihttp "github.com/wesleyorama2/apinette/http"
	"github.com/wesleyorama2/apinette/internal/batch"
	"github.com/wesleyorama2/apinette/internal/logger"
	"github.com/wesleyorama2/apinette/internal/output"
	"github.com/wesleyorama2/apinette/internal/report"
)

// errBatchFailed is returned with --fail-on-error when any request of the
// batch failed or broke a rule.
var errBatchFailed = errors.New("batch failed")

func newRunCmd(a *app) *cobra.Command {
	var (
		vars      []string
		envFiles  []string
		only      []string
		format    string
		verbose   bool
		failOnErr bool
		progress  bool
		htmlOut   string
	)

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Dispatch every request of a batch file concurrently",
		Long: `Run loads a batch file (YAML, or JSON when the name ends in .json),
substitutes {{variables}}, sends every request at once and reports each
outcome with its extract and schema checks, followed by a latency summary.

Variables come from the file, then --env-file files, then --var flags;
later sources win.`,
		Example: `  apinette run firms.yaml --var host=localhost:8081
  apinette run firms.yaml --env-file .env --only list-firms --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := output.ParseFormat(format)
			if err != nil {
				return err
			}

			b, err := config.LoadBatch(args[0])
			if err != nil {
				return err
			}

			merged := make(map[string]string)
			for _, path := range envFiles {
				fileVars, err := config.LoadEnvFile(path)
				if err != nil {
					return err
				}
				maps.Copy(merged, fileVars)
			}
			flagVars, err := config.ParseVarFlags(vars)
			if err != nil {
				return err
			}
			maps.Copy(merged, flagVars)

			engine, err := a.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			out := cmd.OutOrStdout()
			noColor := a.noColor(out)
			formatter := output.GetFormatter(outFormat, verbose, noColor)

			opts := batch.Options{Vars: merged, Only: only, Verbose: verbose}
			if progress && outFormat == output.FormatText {
				live := output.NewFormatter(false, a.noColor(cmd.ErrOrStderr()))
				opts.Progress = func(o *apihttp.Outcome) {
					fmt.Fprint(cmd.ErrOrStderr(), live.FormatProgress(o))
				}
			}

			runner := batch.NewRunner(engine, logger.WithComponent(a.log, "batch"))
			result, err := runner.Run(cmd.Context(), b, opts)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, strings.TrimRight(formatter.FormatBatch(result), "\n"))

			if htmlOut != "" {
				if err := report.GenerateHTML(result, filepath.Base(args[0]), htmlOut); err != nil {
					return err
				}
				a.log.Info().Str("path", htmlOut).Msg("report written")
			}

			if failOnErr && result.Failed() {
				return errBatchFailed
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&vars, "var", nil, "variable key=value (repeatable)")
	flags.StringArrayVar(&envFiles, "env-file", nil, "dotenv file with variables (repeatable)")
	flags.StringArrayVar(&only, "only", nil, "run only the named request (repeatable)")
	flags.StringVarP(&format, "format", "f", "text", "output format (text, json, yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "show headers and timing, and trace every exchange")
	flags.BoolVar(&failOnErr, "fail-on-error", false, "exit non-zero when any request fails or breaks a check")
	flags.StringVar(&htmlOut, "report", "", "also write an HTML report to this file")
	flags.BoolVar(&progress, "progress", true, "print a line to stderr as each request completes (text format)")
	return cmd
}
