// Command salesdash serves the sales analytics dashboard and renders
// dashboard summaries in the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/salesdash/internal/core"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "salesdash",
		Short: "E-commerce sales dashboard",
		Long: `salesdash loads a sales export (one row per sold item), cleans and joins it
into a fact table, and answers dashboard queries over it.

Configuration comes from the environment (see SOURCE_PATH, SERVER_PORT, ...);
a .env file in the working directory is applied first when present.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return loadEnv(envFile)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file applied before reading the environment")

	root.AddCommand(newServeCmd())
	root.AddCommand(newSummaryCmd())
	root.AddCommand(newPolicyCmd())
	return root
}

// loadEnv applies the dotenv file, overwriting existing variables.
// A missing default file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && path == ".env" {
		return nil
	}
	if err := godotenv.Overload(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// describe prefers the coded user message for pipeline errors.
func describe(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}
