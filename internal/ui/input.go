package ui

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Stdin is where prompts read answers from.
var Stdin io.Reader = os.Stdin

// Confirm asks a yes/no question. Anything but y or yes counts as no.
func Confirm(prompt string) bool {
	_, _ = io.WriteString(Stdout, prompt+" [y/N] ")
	input, _ := bufio.NewReader(Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	}
	return false
}
