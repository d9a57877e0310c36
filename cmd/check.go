package cmd

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/hlsrip-cli/hlsrip/constant"
	"github.com/hlsrip-cli/hlsrip/icon"
	"github.com/hlsrip-cli/hlsrip/key"
	"github.com/hlsrip-cli/hlsrip/proc"
	"github.com/hlsrip-cli/hlsrip/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// dependency is an external tool some configurations rely on.
type dependency struct {
	name    string
	key     string
	purpose string
}

var dependencies = []dependency{
	{"ffmpeg", key.AssembleFFmpeg, "remuxing segments into mp4 or mkv"},
	{"curl", key.AssembleCurl, "the curl segment transport"},
}

func (d dependency) binary() string {
	if b := viper.GetString(d.key); b != "" {
		return b
	}
	return d.name
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the external tools are installed",
	Long: `Verify that the external tools are installed.

Neither tool is mandatory: without ffmpeg only .ts outputs can be assembled,
and without curl only the native HTTP transport is available.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var missing int
		for _, dep := range dependencies {
			path, err := proc.Lookup(dep.binary())
			if err != nil {
				missing++
				printMissingDependency(dep)
				continue
			}
			fmt.Printf("%s %s %s\n", icon.Get(icon.Success), style.Bold(dep.name), style.Faint(path))
		}

		if missing == len(dependencies) {
			handleErr(fmt.Errorf("%w: none of the external tools were found", proc.ErrNotFound))
		}
	},
}

func installCommand(dep string) string {
	switch runtime.GOOS {
	case constant.Darwin:
		return "brew install " + dep
	case constant.Linux:
		return "sudo apt install " + dep
	case constant.Windows:
		return "scoop install " + dep
	default:
		return ""
	}
}

func printMissingDependency(dep dependency) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Missing Dependency: %s", icon.Get(icon.Fail), dep.name))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("'%s' was not found in your PATH. It is needed for %s.", dep.binary(), dep.purpose))

	suggestion := ""
	if install := installCommand(dep.name); install != "" {
		suggestion = fmt.Sprintf("\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(install))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			body,
			suggestion,
		),
	))
}
