// Package main provides the fileframe CLI: load a file under a set of
// constraint rules and report, render or persist the result.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/fileframe/internal/config"
	"github.com/JonMunkholm/fileframe/internal/constraint"
	"github.com/JonMunkholm/fileframe/internal/logging"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitViolation = 1
	exitError     = 2
)

// envPrefix namespaces flag overrides, e.g. FILEFRAME_RULES.
const envPrefix = "FILEFRAME"

// app is the state shared by every subcommand.
type app struct {
	cfg    *config.Config
	v      *viper.Viper
	logger *slog.Logger

	configFile string
}

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if _, ok := constraint.KindOf(err); ok {
		return exitViolation
	}
	return exitError
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "fileframe",
		Short: "Load tabular files under SQL-like constraints",
		Long: `fileframe loads CSV, fixed-width and Excel files and checks them against
NOT NULL, PRIMARY KEY, UNIQUE, CHECK and DEFAULT rules declared in a YAML
rule file. Rules run in file order; default_value rules fill nulls before
later rules see the data.

Every flag can also be set as FILEFRAME_<FLAG> in the environment (dashes
become underscores) or as a key in the --config file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "YAML file with flag defaults")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	root.PersistentFlags().String("log-format", "", "log format: text or json (default from LOG_FORMAT)")

	root.AddCommand(
		newValidateCmd(a),
		newSchemaCmd(a),
		newLoadCmd(a),
		newDuplicatesCmd(a),
		newRulesCmd(a),
	)
	return root
}

// setup loads environment configuration, binds the invoked command's flags
// into viper and configures logging.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	level := firstNonEmpty(a.v.GetString("log-level"), cfg.Logging.Level)
	format := firstNonEmpty(a.v.GetString("log-format"), cfg.Logging.Format)
	a.logger = logging.Setup(level, format)
	return nil
}

// quietLogger discards everything; used until setup has run.
var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (a *app) log() *slog.Logger {
	if a.logger == nil {
		return quietLogger
	}
	return a.logger
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

