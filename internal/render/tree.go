// Package render prints machine trees for terminals.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/atlekbai/hfsm"
)

// Options controls tree output.
type Options struct {
	// Active is highlighted and marked with an asterisk.
	Active string
	// Color enables ANSI styling.
	Color bool
}

// DetectColor reports whether w is a terminal that should receive colour.
func DetectColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}

// Tree writes every root of the forest as an indented tree.
func Tree(w io.Writer, roots []string, forest map[string]hfsm.LinkTree[string], opts Options) error {
	profile := termenv.Ascii
	if opts.Color {
		profile = termenv.ANSI256
	}

	var sb strings.Builder
	for _, root := range roots {
		tree, ok := forest[root]
		if !ok {
			continue
		}
		tree.Walk(func(node hfsm.LinkTree[string], depth int) bool {
			sb.WriteString(strings.Repeat("  ", depth))
			if depth > 0 {
				sb.WriteString("└─ ")
			}
			sb.WriteString(styleName(profile, node.Tag, node.Tag == opts.Active))
			sb.WriteString("\n")
			return true
		})
	}
	_, err := fmt.Fprint(w, sb.String())
	return err
}

func styleName(profile termenv.Profile, name string, active bool) string {
	if !active {
		return profile.String(name).Foreground(profile.Color("245")).String()
	}
	return profile.String(name + " *").Bold().Foreground(profile.Color("42")).String()
}
