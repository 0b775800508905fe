// Package console provides the interactive plumbing shared by the drivers:
// banners, menus, and blocking one-line reads. Everything is synchronous;
// the commands are single-operator, single-session tools.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const ruleWidth = 70

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// Console wraps an input stream and output writer for one session.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	styled bool
}

// New creates a Console. Styling is enabled only when out is a real
// terminal.
func New(in io.Reader, out io.Writer) *Console {
	styled := false
	if f, ok := out.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}

	return &Console{
		in:     bufio.NewReader(in),
		out:    out,
		styled: styled,
	}
}

// Banner prints a boxed title between thick rules.
func (c *Console) Banner(title string) {
	c.ThickRule()
	if c.styled {
		fmt.Fprintln(c.out, bannerStyle.Render(title))
	} else {
		fmt.Fprintln(c.out, title)
	}
	c.ThickRule()
	fmt.Fprintln(c.out)
}

// Section prints a bolded section heading.
func (c *Console) Section(heading string) {
	if c.styled {
		fmt.Fprintln(c.out, titleStyle.Render(heading))
	} else {
		fmt.Fprintln(c.out, heading)
	}
}

// Rule prints a thin separator line.
func (c *Console) Rule() {
	fmt.Fprintln(c.out, strings.Repeat("-", ruleWidth))
}

// ThickRule prints a thick separator line.
func (c *Console) ThickRule() {
	fmt.Fprintln(c.out, strings.Repeat("=", ruleWidth))
}

// Printf writes formatted plain output.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Println writes a plain line.
func (c *Console) Println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

// Success prints a green status line.
func (c *Console) Success(format string, args ...any) {
	c.statusLine(color.FgGreen, format, args...)
}

// Warn prints a yellow warning line.
func (c *Console) Warn(format string, args ...any) {
	c.statusLine(color.FgYellow, format, args...)
}

// Error prints a red error line.
func (c *Console) Error(format string, args ...any) {
	c.statusLine(color.FgRed, format, args...)
}

func (c *Console) statusLine(attr color.Attribute, format string, args ...any) {
	if c.styled {
		color.New(attr).Fprintf(c.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(c.out, format+"\n", args...)
}

// ReadLine prints prompt and blocks for one line of input, trimmed of
// surrounding whitespace. io.EOF propagates so loops can treat it as quit.
func (c *Console) ReadLine(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// Choose prints a numbered menu and reads the operator's selection as raw
// text. Interpretation (including invalid-choice fallbacks) stays with the
// caller.
func (c *Console) Choose(heading string, options ...string) (string, error) {
	fmt.Fprintln(c.out, heading)
	for i, opt := range options {
		fmt.Fprintf(c.out, "%d. %s\n", i+1, opt)
	}

	choice, err := c.ReadLine(fmt.Sprintf("\nEnter choice (1-%d): ", len(options)))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(c.out)

	return choice, nil
}

// PressEnter blocks until the operator presses Enter.
func (c *Console) PressEnter(msg string) error {
	_, err := c.ReadLine(msg)
	return err
}

// ClearScreen wipes the terminal with an ANSI escape. On a non-terminal it
// prints a blank line instead.
func (c *Console) ClearScreen() {
	if c.styled {
		fmt.Fprint(c.out, "\033[2J\033[H")
		return
	}
	fmt.Fprintln(c.out)
}

// IsQuit reports whether the line is one of the quit tokens.
func IsQuit(line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		return true
	}
	return false
}
