package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"readlist/internal/history"
	"readlist/internal/progress"
	"readlist/internal/sheet"
	"readlist/internal/tui"
	"readlist/pkg/database"
	"readlist/pkg/utils"
)

var tuiRemote bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive reading list",
	Long: `Open the reading list in the terminal.

By default the sheet is opened directly with the READLIST_* settings and
changes are journaled to the local history database. With --remote the
screen drives the api-server given by --api instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if tuiRemote {
			return tui.Run(ctx, client())
		}

		cfg, err := utils.LoadAppConfig()
		if err != nil {
			return err
		}
		store, err := sheet.Open(ctx, cfg.Sheet)
		if err != nil {
			return fmt.Errorf("open sheet store: %w", err)
		}

		db, err := database.Open(database.DefaultConfig())
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			return err
		}

		ctl := progress.New(store,
			progress.WithAllowEmptyAuthor(cfg.AllowEmptyAuthor),
			progress.WithRecorder(history.NewRepo(db)),
		)
		return tui.Run(ctx, ctl)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().BoolVar(&tuiRemote, "remote", false, "Use the API at --api instead of opening the sheet")
}
