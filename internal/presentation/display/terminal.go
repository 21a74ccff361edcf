package display

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

const (
	clearScreen    = "\033[2J"
	moveCursorHome = "\033[H"
	hideCursor     = "\033[?25l"
	showCursor     = "\033[?25h"
	enterAltScreen = "\033[?1049h"
	exitAltScreen  = "\033[?1049l"
)

const defaultWidth = 120

// TerminalDisplay manages the alternate screen buffer used by watch mode so a
// redraw replaces the previous report instead of scrolling past it.
type TerminalDisplay struct {
	inAlternateScreen bool
}

func NewTerminalDisplay() *TerminalDisplay {
	return &TerminalDisplay{}
}

// Width returns the terminal width, or a fallback when stdout is not a tty.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// EnterAlternateScreen switches to the alternate screen buffer.
func (td *TerminalDisplay) EnterAlternateScreen() {
	if !td.inAlternateScreen {
		fmt.Print(enterAltScreen)
		fmt.Print(clearScreen)
		fmt.Print(moveCursorHome)
		fmt.Print(hideCursor)
		td.inAlternateScreen = true
	}
}

// ExitAlternateScreen returns to the normal screen buffer.
func (td *TerminalDisplay) ExitAlternateScreen() {
	if td.inAlternateScreen {
		fmt.Print(clearScreen)
		fmt.Print(moveCursorHome)
		fmt.Print(showCursor)
		fmt.Print(exitAltScreen)
		td.inAlternateScreen = false
	}
}

// Clear wipes the screen ahead of a redraw.
func (td *TerminalDisplay) Clear() {
	fmt.Print(clearScreen)
	fmt.Print(moveCursorHome)
}
