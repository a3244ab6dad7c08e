package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the formintake application
var rootCmd = newRootCmd()

// version will be set by main
var version = "dev"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formintake",
		Short: "Collects access request forms from a mailbox and extracts their fields",
		Long: `formintake automates the intake of user creation/modification requests.

It provides two steps an orchestrator runs one after the other:
  - poll: fetch matching emails from a Microsoft 365 mailbox and save their attachments
  - extract: read the form fields of a saved PDF and print them as key/value lines`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file (default: ./formintake.yaml if present)")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	cmd.AddCommand(newPollCmd())
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "formintake version %s\n" .Version}}`)

	ctx, cancel := notifyContext()
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		cancel()
		os.Exit(1)
	}
}
