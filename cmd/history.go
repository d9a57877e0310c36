package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/hlsrip-cli/hlsrip/color"
	"github.com/hlsrip-cli/hlsrip/grab"
	"github.com/hlsrip-cli/hlsrip/history"
	"github.com/hlsrip-cli/hlsrip/icon"
	"github.com/hlsrip-cli/hlsrip/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringP("filter", "f", "", "Fuzzy filter on tag, page, manifest and output")
	historyCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON array")
	historyCmd.Flags().IntP("limit", "n", 0, "Show at most this many runs")

	historyCmd.SetOut(os.Stdout)
}

// historyCmd lists the recorded runs, most recent first.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs, most recent first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reports, err := history.List()
		handleErr(err)

		if query := lo.Must(cmd.Flags().GetString("filter")); query != "" {
			reports = history.Filter(reports, query)
		}

		if limit := lo.Must(cmd.Flags().GetInt("limit")); limit > 0 && limit < len(reports) {
			reports = reports[:limit]
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(reports))
			return
		}

		if len(reports) == 0 {
			cmd.Println(style.Faint("no runs recorded"))
			return
		}

		for i, report := range reports {
			printReport(cmd, report)
			if i < len(reports)-1 {
				cmd.Println()
			}
		}
	},
}

func printReport(cmd *cobra.Command, r *grab.Report) {
	status := lo.Ternary(r.Succeeded(), icon.Get(icon.Success), icon.Get(icon.Fail))

	cmd.Printf("%s %s %s\n", status, style.Bold(r.Tag), style.Faint(humanize.Time(r.StartedAt)+" · "+r.ID))
	cmd.Printf("  %s\n", r.Summary())

	if r.Output != "" {
		cmd.Printf("  %s\n", style.Fg(color.Green)(r.Output))
	}
	if r.Template != "" {
		cmd.Printf("  %s\n", style.Faint(r.Template))
	}
	if r.Error != "" {
		cmd.Printf("  %s\n", style.Fg(color.Red)(r.Error))
	}
}

func init() {
	historyCmd.AddCommand(historyRemoveCmd)
}

var historyRemoveCmd = &cobra.Command{
	Use:     "remove [id]",
	Aliases: []string{"rm"},
	Short:   "Remove a run from the history",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(history.Remove(args[0]))
		fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Purple)(args[0]))
	},
}
