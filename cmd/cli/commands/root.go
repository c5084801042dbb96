package commands

import (
	"os"

	"github.com/spf13/cobra"

	"readlist/cmd/cli/output"
	"readlist/internal/apiclient"
)

var (
	apiURL     string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "readlist",
	Short: "Track reading progress in a spreadsheet",
	Long: `readlist keeps a reading list in a spreadsheet: add books, move their
progress, mark them done and delete finished ones.

The books commands talk to a running api-server. The tui command opens the
sheet directly using the same READLIST_* settings as the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	def := os.Getenv("READLIST_API")
	if def == "" {
		def = apiclient.DefaultBaseURL
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", def, "API base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func client() *apiclient.Client {
	return apiclient.New(apiURL)
}
