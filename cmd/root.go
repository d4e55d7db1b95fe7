package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the morgenmcp application
var rootCmd = &cobra.Command{
	Use:   "morgenmcp",
	Short: "MCP server exposing Morgen calendars to AI assistants",
	Long: `morgenmcp is an MCP (Model Context Protocol) server that gives AI
assistants read and write access to all calendars connected to a Morgen
account: Google, Office 365, Apple, and Exchange, through one API key.

It provides tools for listing calendars and accounts, querying today's
and this week's events, arbitrary date ranges, text search, and event
creation.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "morgenmcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("morgenmcp version %s\n", version)
		},
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
