package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"readlist/cmd/cli/output"
	"readlist/internal/apiclient"
	"readlist/internal/progress"
)

var (
	listStatus   string
	addAuthor    string
	addTotal     int
	stepBy       int
	historyLimit int
	historySkip  int
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Manage books through the API",
	Long: `Manage books through the JSON API of a running api-server.

Examples:
  readlist books list --status reading
  readlist books add "Dune" --author "F. Herbert" --total 412
  readlist books step "Dune"
  readlist books progress "Dune" 40
  readlist books done "Dune"
  readlist books delete "Dune"`,
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List books",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		views, err := client().Views(cmd.Context(), listStatus)
		if err != nil {
			return describe(err)
		}
		if jsonOutput {
			return output.JSON(views)
		}
		if len(views) == 0 {
			output.Muted("No books.")
			return nil
		}
		output.Section(fmt.Sprintf("Books (%d)", len(views)))
		for _, v := range views {
			printView(v)
		}
		return nil
	},
}

var booksShowCmd = &cobra.Command{
	Use:   "show <title>",
	Short: "Show one book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := client().Get(cmd.Context(), args[0])
		if err != nil {
			return describe(err)
		}
		return show(v, "")
	},
}

var booksAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := client().Add(cmd.Context(), args[0], addAuthor, addTotal)
		if err != nil {
			return describe(err)
		}
		return show(v, "added")
	},
}

var booksProgressCmd = &cobra.Command{
	Use:   "progress <title> <percent>",
	Short: "Set progress; 100 completes the book",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(args[1]), "%"))
		if err != nil {
			return fmt.Errorf("percent must be a number: %q", args[1])
		}
		v, err := client().SetProgress(cmd.Context(), args[0], progress.Clamp(p))
		if err != nil {
			return describe(err)
		}
		return show(v, "updated")
	},
}

var booksStepCmd = &cobra.Command{
	Use:   "step <title>",
	Short: "Move progress by --by points (default 5)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := client().StepBy(cmd.Context(), args[0], stepBy)
		if err != nil {
			return describe(err)
		}
		return show(v, "updated")
	},
}

var booksDoneCmd = &cobra.Command{
	Use:   "done <title>",
	Short: "Mark a book finished today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := client().Done(cmd.Context(), args[0])
		if err != nil {
			return describe(err)
		}
		return show(v, "finished")
	},
}

var booksDeleteCmd = &cobra.Command{
	Use:   "delete <title>",
	Short: "Delete a finished book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client().Delete(cmd.Context(), args[0]); err != nil {
			return describe(err)
		}
		output.Success("deleted %s", args[0])
		return nil
	},
}

var booksHistoryCmd = &cobra.Command{
	Use:   "history <title>",
	Short: "Show the change journal of a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := client().History(cmd.Context(), args[0], historyLimit, historySkip)
		if err != nil {
			return describe(err)
		}
		if jsonOutput {
			return output.JSON(page)
		}
		output.Section(fmt.Sprintf("%s (%d entries)", args[0], page.Total))
		for _, e := range page.Items {
			line := fmt.Sprintf("%s  %-8s %3d%%  %s", e.At.Local().Format("2006-01-02 15:04"), e.Action, e.Progress, e.Status)
			if e.Date != "" {
				line += "  " + e.Date
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(booksCmd)
	booksCmd.AddCommand(booksListCmd, booksShowCmd, booksAddCmd, booksProgressCmd,
		booksStepCmd, booksDoneCmd, booksDeleteCmd, booksHistoryCmd)

	booksListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (reading|done)")
	booksAddCmd.Flags().StringVar(&addAuthor, "author", "", "Author")
	booksAddCmd.Flags().IntVar(&addTotal, "total", 0, "Total pages")
	_ = booksAddCmd.MarkFlagRequired("total")
	booksStepCmd.Flags().IntVar(&stepBy, "by", progress.StepSize, "Points to move, negative to go back")
	booksHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Page size")
	booksHistoryCmd.Flags().IntVar(&historySkip, "offset", 0, "Offset")
}

func show(v progress.View, verb string) error {
	if jsonOutput {
		return output.JSON(v)
	}
	if verb != "" {
		output.Success("%s %s", verb, v.Title)
	}
	printView(v)
	return nil
}

func printView(v progress.View) {
	name := v.Title
	if v.Author != "" {
		name += " (" + v.Author + ")"
	}
	line := fmt.Sprintf("%s %s %s %3d%%  %d/%d pages",
		output.StatusIcon(string(v.Status)), name, output.Bar(v.Progress, 20), v.Progress, v.ReadPages, v.Total)
	if v.IsDone() {
		line += "  finished " + v.Date
	}
	fmt.Println(line)
}

func describe(err error) error {
	if apiclient.IsUnavailable(err) {
		return fmt.Errorf("server or sheet store unreachable at %s: %w", apiURL, err)
	}
	return err
}
