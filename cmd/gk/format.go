package main

import (
	"os"

	"golang.org/x/term"
)

const (
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiReset = "\033[0m"
)

// stdoutIsTTY is swapped out in tests.
var stdoutIsTTY = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// passFail renders PASS/FAIL, colored when stdout is a terminal.
func passFail(ok bool) string {
	label, color := "FAIL", ansiRed
	if ok {
		label, color = "PASS", ansiGreen
	}
	if !stdoutIsTTY() {
		return label
	}
	return color + label + ansiReset
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
