// Package cli defines Cobra command definitions for the ema-interview CLI.
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koscakluka/ema-interview/internal/config"
	"github.com/koscakluka/ema-interview/internal/tui"
)

var (
	projectDir string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "ema-interview",
	Short: "Run a candidate interview session in the terminal",
	Long: `ema-interview walks a candidate through scheduling, a pre-interview
chat, the interview, a timed assessment and a closing Q&A, talking to the
interview backend for every conversation.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runInterview,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectDir, "dir", "", "Directory holding .ema-interview/ (defaults to the working directory)")

	rootCmd.AddCommand(initCmd)
}

func resolveDir() (string, error) {
	if projectDir != "" {
		return projectDir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return dir, nil
}

func runInterview(cmd *cobra.Command, args []string) error {
	if !tui.IsTTY() {
		return cmd.Help()
	}

	dir, err := resolveDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx, cfg, dir)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.orchestrator.Orchestrate(ctx)
	return tui.Run(ctx, rt.orchestrator, rt.notifier)
}
