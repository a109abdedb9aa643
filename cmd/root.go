// Package cmd defines the careerguide command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "careerguide",
	Short: "Career guidance chat assistant backend",
	Long: `careerguide is the backend for a conversational career guidance
assistant. It persists chat sessions in PostgreSQL, assembles prompts from
recent conversation history, and answers through the Gemini API.

Run "careerguide serve" to start the HTTP API server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
