// Package cli implements the apinette command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apihttp "github.com/wesleyorama2/apinette/http"
	"github.com/wesleyorama2/apinette/internal/logger"
	"github.com/wesleyorama2/apinette/internal/output"
)

var version = "0.1.0"

const envPrefix = "APINETTE"

// Settings are the global options, read from flags, APINETTE_* environment
// variables and an optional --config file, in that order of precedence.
type Settings struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Insecure bool          `mapstructure:"insecure"`
	CAFile   string        `mapstructure:"ca-file"`

	Log logger.Config `mapstructure:",squash"`
}

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v        *viper.Viper
	settings Settings
	log      zerolog.Logger
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:     "apinette",
		Short:   "Dispatch batches of HTTP requests concurrently",
		Version: version,
		Long: `apinette sends HTTP requests to JSON APIs, one at a time or as a batch
dispatched concurrently, and shows every outcome: status, headers, the body
decoded when it is JSON, and timing. Batch files add variables, extraction
of response values and JSON Schema checks.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "settings file (yaml, json or toml)")
	flags.Duration("timeout", apihttp.DefaultTimeout, "per-request timeout")
	flags.Bool("insecure", false, "skip TLS certificate verification")
	flags.String("ca-file", "", "PEM file with additional root certificates")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "warn", "log level (trace, debug, info, warn, error, disabled)")
	flags.String("log-format", "console", "log format (console, json)")

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		newMethodCmd(a, "GET"),
		newMethodCmd(a, "POST"),
		newMethodCmd(a, "PUT"),
		newMethodCmd(a, "DELETE"),
		newRequestCmd(a),
		newRunCmd(a),
		newJSONCmd(a),
		newURLCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the command line with os.Args. Cancelling ctx aborts
// in-flight requests and stops the test server.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading settings file: %w", err)
		}
	}

	if err := a.v.Unmarshal(&a.settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if a.settings.Timeout <= 0 {
		return fmt.Errorf("invalid settings: timeout must be positive, got %s", a.settings.Timeout)
	}

	a.settings.Log.ApplyDefaults()
	log, err := logger.NewWithWriter(a.settings.Log, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	a.log = log
	return nil
}

func (a *app) engine() (*apihttp.Engine, error) {
	return apihttp.NewEngine(
		apihttp.WithTimeout(a.settings.Timeout),
		apihttp.WithInsecureSkipVerify(a.settings.Insecure),
		apihttp.WithCAFile(a.settings.CAFile),
		apihttp.WithLogger(logger.WithComponent(a.log, "engine")),
	)
}

func (a *app) noColor(w io.Writer) bool {
	return output.NoColor(w, a.settings.Log.NoColor)
}
