package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles styles + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name string

	Title, Muted, Accent     lipgloss.Style
	Success, Error, Pending  lipgloss.Style
	Selected, Done, Help     lipgloss.Style
	BoxUnchecked, BoxChecked string

	SymDone, SymPending, SymCross string

	Border      lipgloss.Border
	BorderColor lipgloss.TerminalColor
}

var current = themeFor("classic")

var asciiBorder = lipgloss.Border{
	Top: "-", Bottom: "-", Left: "|", Right: "|",
	TopLeft: "+", TopRight: "+", BottomLeft: "+", BottomRight: "+",
}

func SetTheme(name string) {
	current = themeFor(name)
	if current.Name == "mono" {
		SetColorForcing(false, true)
	}
}

// Current is the active theme.
func Current() Theme { return current }

func themeFor(name string) Theme {
	base := lipgloss.NewStyle()
	switch strings.ToLower(name) {
	case "neon":
		return Theme{
			Name:     "neon",
			Title:    base.Bold(true).Foreground(lipgloss.Color("13")),
			Muted:    base.Foreground(lipgloss.Color("8")),
			Accent:   base.Foreground(lipgloss.Color("14")),
			Success:  base.Foreground(lipgloss.Color("10")),
			Error:    base.Foreground(lipgloss.Color("9")).Bold(true),
			Pending:  base.Foreground(lipgloss.Color("11")),
			Selected: base.Bold(true).Foreground(lipgloss.Color("13")),
			Done:     base.Faint(true).Strikethrough(true),
			Help:     base.Faint(true),

			BoxUnchecked: "◻", BoxChecked: "◼",
			SymDone: "✔", SymPending: "•", SymCross: "✖",
			Border:      lipgloss.RoundedBorder(),
			BorderColor: lipgloss.Color("13"),
		}
	case "mono":
		return Theme{
			Name:     "mono",
			Title:    base,
			Muted:    base,
			Accent:   base,
			Success:  base,
			Error:    base,
			Pending:  base,
			Selected: base,
			Done:     base,
			Help:     base,

			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			SymDone: "x", SymPending: "-", SymCross: "!",
			Border:      asciiBorder,
			BorderColor: lipgloss.NoColor{},
		}
	default: // classic
		return Theme{
			Name:     "classic",
			Title:    base.Bold(true),
			Muted:    base.Faint(true),
			Accent:   base.Foreground(lipgloss.Color("12")),
			Success:  base.Foreground(lipgloss.Color("42")),
			Error:    base.Foreground(lipgloss.Color("9")).Bold(true),
			Pending:  base.Foreground(lipgloss.Color("214")),
			Selected: base.Bold(true).Reverse(true),
			Done:     base.Faint(true).Strikethrough(true),
			Help:     base.Faint(true),

			BoxUnchecked: "☐", BoxChecked: "☑",
			SymDone: "✔", SymPending: "•", SymCross: "✖",
			Border:      lipgloss.RoundedBorder(),
			BorderColor: lipgloss.Color("8"),
		}
	}
}
