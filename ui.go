package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	Brand  = color.New(color.FgHiMagenta, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

// Table prints a simple aligned two-column listing.
func Table(rows [][2]string) {
	width := 0
	for _, row := range rows {
		if len(row[0]) > width {
			width = len(row[0])
		}
	}
	for _, row := range rows {
		fmt.Printf("  %s%s  %s\n", Subtle.Sprint(row[0]), strings.Repeat(" ", width-len(row[0])), row[1])
	}
}
