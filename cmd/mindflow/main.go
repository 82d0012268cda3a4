// Command mindflow runs the staged counseling assistant: an interactive
// chat session driven by the decision engine, plus tooling for session
// reports and transcript export.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mindflow/mindflow/internal/config"
)

var version = "dev"

var (
	flagConfig  string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "mindflow",
		Short: "Staged counseling assistant",
		Long: "mindflow drives a counseling conversation through five stages,\n" +
			"classifying client emotion, tracking assessment dimensions and\n" +
			"selecting intervention strategies turn by turn.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config file")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newChatCmd(),
		newSessionsCmd(),
		newExportCmd(),
		newReportCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(flagConfig)
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if flagVerbose {
		level = zapcore.DebugLevel
	} else if cfg.LogLevel != "" {
		if err := level.Set(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mindflow %s\n", version)
		},
	}
}
