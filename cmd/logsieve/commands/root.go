package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/moolen/logsieve/internal/logging"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

// envLogLevelPrefix marks per-package level variables, e.g.
// LOG_LEVEL_ANALYSIS=debug or LOG_LEVEL_LOG_PROCESSING=warn.
const envLogLevelPrefix = "LOG_LEVEL_"

var logLevelFlags []string

var rootCmd = &cobra.Command{
	Use:   "logsieve",
	Short: "logsieve - log pattern clustering and correlation",
	Long: `logsieve groups parsed log entries into error patterns, finds temporal
clusters and cascades, correlates issue types, builds a dependency graph of
root causes and symptoms, and forecasts recurring issues from history.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the result bundle
		logging.SetOutput(cmd.ErrOrStderr(), nil)
		return setupLog(logLevelFlags, os.Environ())
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&logLevelFlags, "log-level",
		[]string{"info"},
		"Log level, either a bare level for the default or 'package=level' for one package.\n"+
			"Examples: --log-level debug, --log-level analysis=debug --log-level config=warn")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatJSON,
		"Output format: json or yaml")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(signatureCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLog(flags, environ []string) error {
	defaultLevel, packageLevels, err := resolveLogLevels(flags, environ)
	if err != nil {
		return err
	}
	return logging.Initialize(defaultLevel, packageLevels)
}

// resolveLogLevels merges LOG_LEVEL_* variables from environ with the
// --log-level flags; flags win. A bare level or "default=level" sets the
// default, "pkg=level" an override.
func resolveLogLevels(flags, environ []string) (string, map[string]string, error) {
	levels := make(map[string]string)

	for _, kv := range environ {
		key, level, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, envLogLevelPrefix) {
			continue
		}
		levels[envKeyToPackage(key)] = level
	}

	for _, flag := range flags {
		if pkg, level, ok := strings.Cut(flag, "="); ok {
			levels[pkg] = level
		} else {
			levels["default"] = flag
		}
	}

	defaultLevel := "info"
	if level, ok := levels["default"]; ok {
		defaultLevel = level
		delete(levels, "default")
	}
	if logging.LevelName(defaultLevel) == "" {
		return "", nil, fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error, fatal)", defaultLevel)
	}
	for pkg, level := range levels {
		if logging.LevelName(level) == "" {
			return "", nil, fmt.Errorf("invalid log level for package %q: %s", pkg, level)
		}
	}
	return defaultLevel, levels, nil
}

// envKeyToPackage converts LOG_LEVEL_LOG_PROCESSING to log.processing.
func envKeyToPackage(key string) string {
	name := strings.TrimPrefix(key, envLogLevelPrefix)
	return strings.ToLower(strings.ReplaceAll(name, "_", "."))
}
