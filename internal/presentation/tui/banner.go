package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the VaultGuard ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Teal to violet, one shade per line
	lines := []struct{ text, color string }{
		{" __     __         _ _    ____                     _ ", "#2dd4bf"},
		{" \\ \\   / /_ _ _   _| | |_ / ___|_   _  __ _ _ __ __| |", "#38bdf8"},
		{"  \\ \\ / / _` | | | | | __| |  _| | | |/ _` | '__/ _` |", "#60a5fa"},
		{"   \\ V / (_| | |_| | | |_| |_| | |_| | (_| | | | (_| |", "#818cf8"},
		{"    \\_/ \\__,_|\\__,_|_|\\__|\\____|\\__,_|\\__,_|_|  \\__,_|", "#a78bfa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  Super Eliza AI Guard").Faint())
	fmt.Fprintln(w)
}
