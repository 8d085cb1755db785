package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`  ___                  _     _         _   `, "#34d399"},
	{` / __| __ _ _  _ __ _ __| |__| |_  __ _| |_ `, "#10b981"},
	{` \__ \/ _' | || / _' / _' / _| ' \/ _' |  _|`, "#059669"},
	{` |___/\__, |\_,_\__,_\__,_\__|_||_\__,_|\__|`, "#047857"},
	{`         |_|                                `, "#065f46"},
}

// PrintBanner writes the squadchat banner, colored for the terminal's profile.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Dim renders secondary text such as prompts and hints.
func Dim(w io.Writer, s string) string {
	out := termenv.NewOutput(w)
	return out.String(s).Faint().String()
}
