// init.go implements the "ema-interview init" command.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/koscakluka/ema-interview/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Create .ema-interview/config.yaml with the default settings. Secrets
are never written to the file; set GROQ_API_KEY and DEEPGRAM_API_KEY in the
environment or in a .env file next to it.`,
	RunE: runInit,
}

var forceFlag bool

func init() {
	initCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := resolveDir()
	if err != nil {
		return err
	}

	path := filepath.Join(dir, ".ema-interview", "config.yaml")
	if _, statErr := os.Stat(path); statErr == nil && !forceFlag {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	} else if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, statErr)
	}

	if err := config.WriteConfig(dir, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
