package icon

import (
	"github.com/hlsrip-cli/hlsrip/color"
	"github.com/hlsrip-cli/hlsrip/style"
)

// Icon identifies a symbol of the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Warn
	Info
	Question
	Progress
	Segment
	Folder
	Lock
)

var icons = map[Icon]*iconDef{
	Success: {
		emoji:   "✅",
		nerd:    style.Fg(color.Green)(""),
		plain:   style.Fg(color.Green)("✓"),
		kaomoji: style.Fg(color.Green)("(ᵔ◡ᵔ)"),
		squares: style.Fg(color.Green)("▇"),
	},
	Fail: {
		emoji:   "💀",
		nerd:    style.Fg(color.Red)(""),
		plain:   style.Fg(color.Red)("✖"),
		kaomoji: style.Fg(color.Red)("(ಥ﹏ಥ)"),
		squares: style.Fg(color.Red)("▇"),
	},
	Warn: {
		emoji:   "⚠️",
		nerd:    style.Fg(color.Yellow)(""),
		plain:   style.Fg(color.Yellow)("!"),
		kaomoji: style.Fg(color.Yellow)("(•_•)"),
		squares: style.Fg(color.Yellow)("▇"),
	},
	Info: {
		emoji:   "ℹ️",
		nerd:    style.Fg(color.Blue)(""),
		plain:   style.Fg(color.Blue)("i"),
		kaomoji: style.Fg(color.Blue)("(・・ )?"),
		squares: style.Fg(color.Blue)("▇"),
	},
	Question: {
		emoji:   "❓",
		nerd:    style.Fg(color.Yellow)(""),
		plain:   style.Fg(color.Yellow)("?"),
		kaomoji: style.Fg(color.Yellow)("(◎ ◎)ゞ"),
		squares: style.Fg(color.Yellow)("▇"),
	},
	Progress: {
		emoji:   "⏳",
		nerd:    style.Fg(color.Blue)(""),
		plain:   style.Fg(color.Blue)("…"),
		kaomoji: style.Fg(color.Blue)("(￣ー￣)"),
		squares: style.Fg(color.Blue)("▇"),
	},
	Segment: {
		emoji:   "🎞️",
		nerd:    style.Fg(color.Purple)(""),
		plain:   style.Fg(color.Purple)("#"),
		kaomoji: style.Fg(color.Purple)("[▪]"),
		squares: style.Fg(color.Purple)("▇"),
	},
	Folder: {
		emoji:   "📁",
		nerd:    style.Fg(color.Cyan)(""),
		plain:   style.Fg(color.Cyan)("/"),
		kaomoji: style.Fg(color.Cyan)("[__]"),
		squares: style.Fg(color.Cyan)("▇"),
	},
	Lock: {
		emoji:   "🔒",
		nerd:    style.Fg(color.Orange)(""),
		plain:   style.Fg(color.Orange)("*"),
		kaomoji: style.Fg(color.Orange)("(ー_ー)"),
		squares: style.Fg(color.Orange)("▇"),
	},
}
