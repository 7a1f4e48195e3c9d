package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	reset      = "\033[0m"
	bold       = "\033[1m"
	frostBlue  = "\033[38;5;117m"
	steelBlue  = "\033[38;5;68m"
	cobalt     = "\033[38;5;33m"
	tealGreen  = "\033[38;5;37m"
	mint       = "\033[38;5;121m"
	honey      = "\033[38;5;214m"
	ember      = "\033[38;5;202m"
	dimGray    = "\033[38;5;244m"
	tagAccent  = "\033[38;5;45m"
	tagDivider = dimGray
)

var (
	letterP = []string{"██████╗ ", "██╔══██╗", "██████╔╝", "██╔═══╝ ", "██║     ", "╚═╝     "}
	letterA = []string{" █████╗ ", "██╔══██╗", "███████║", "██╔══██║", "██║  ██║", "╚═╝  ╚═╝"}
	letterG = []string{" ██████╗ ", "██╔════╝ ", "██║  ███╗", "██║   ██║", "╚██████╔╝", " ╚═════╝ "}
	letterE = []string{"███████╗", "██╔════╝", "█████╗  ", "██╔══╝  ", "███████╗", "╚══════╝"}
	letterM = []string{"███╗   ███╗", "████╗ ████║", "██╔████╔██║", "██║╚██╔╝██║", "██║ ╚═╝ ██║", "╚═╝     ╚═╝"}
)

// Banner renders a colored pagemap wordmark, cold pages to hot pages.
func Banner() string {
	var b strings.Builder

	word := [][]string{letterP, letterA, letterG, letterE, letterM, letterA, letterP}
	gradient := []string{frostBlue, steelBlue, cobalt, tealGreen, mint, honey, ember}
	rows := make([]string, len(letterP))
	for i, letter := range word {
		color := gradient[i%len(gradient)]
		for row := range letter {
			rows[row] += color + letter[row] + " "
		}
	}
	for _, line := range rows {
		b.WriteString(bold + line + reset + "\n")
	}

	b.WriteString("\n")
	b.WriteString(bold + tagAccent + "showpagemap" + reset + tagDivider + "  •  " + reset + "where your pages live\n\n")

	return b.String()
}

// Enabled reports whether the banner should precede output written to f:
// only for interactive terminals, and never when disabled.
func Enabled(f *os.File, disabled bool) bool {
	if disabled || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
