package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text, color string
}{
	{"     _ _       _                      _                ", "#818cf8"},
	{"  __| (_) __ _| | ___   __ _ _   _  _| |_ _ __ ___  ___ ", "#a78bfa"},
	{" / _` | |/ _` | |/ _ \\ / _` | | | |/ _ \\ __| '__/ _ \\/ _ \\", "#c084fc"},
	{"| (_| | | (_| | | (_) | (_| | |_| |  __/ |_| | |  __/  __/", "#e879f9"},
	{" \\__,_|_|\\__,_|_|\\___/ \\__, |\\__,_|\\___|\\__|_|  \\___|\\___|", "#f472b6"},
	{"                       |___/                            ", "#fb7185"},
}

// PrintBanner writes the ASCII banner. Nothing is written when the printer is not styled.
func (p *Printer) PrintBanner() {
	if !p.styled {
		return
	}
	printBanner(p.w, p.profile)
}

func printBanner(w io.Writer, profile termenv.Profile) {
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(profile.Color(l.color)))
	}
	fmt.Fprintln(w)
}
