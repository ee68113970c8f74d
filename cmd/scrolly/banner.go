package main

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// printBanner writes the scrolly wordmark, coloured for the output's profile.
func printBanner(w io.Writer) {
	p := termenv.NewOutput(w).ColorProfile()
	lines := []struct {
		text   string
		colour string
	}{
		{"  ___  ___ _ __ ___ | | |_   _ ", "#5B8DEF"},
		{" / __|/ __| '__/ _ \\| | | | | |", "#8E7CF0"},
		{" \\__ \\ (__| | | (_) | | | |_| |", "#C46BE0"},
		{" |___/\\___|_|  \\___/|_|_|\\__, |", "#FF6B6B"},
		{"                          |___/ ", "#F4B942"},
	}
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.colour)))
	}
	fmt.Fprintln(w)
}
