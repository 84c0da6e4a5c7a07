package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robfig/jinja/errortypes"
)

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	gutterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	caretStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// sourceError attaches to an error the means to find the text of the
// templates it may refer to.
type sourceError struct {
	err    error
	source func(name string) (string, bool)
}

func (e sourceError) Error() string { return e.err.Error() }
func (e sourceError) Unwrap() error { return e.err }

// withSource returns err, noting that the template of the given name has the
// given text.
func withSource(err error, name, text string) error {
	if err == nil {
		return nil
	}
	return sourceError{err, func(n string) (string, bool) {
		return text, n == name
	}}
}

// withSourceDir returns err, noting that templates are named by their path
// relative to dir.
func withSourceDir(err error, dir string) error {
	if err == nil {
		return nil
	}
	return sourceError{err, func(n string) (string, bool) {
		content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(n)))
		return string(content), err == nil
	}}
}

// report formats err for the terminal. If the error is positioned within a
// template whose text is known, the offending line follows, with a caret
// under the column.
func report(err error) string {
	var b strings.Builder
	b.WriteString(errorStyle.Render("error:"))
	b.WriteString(" ")
	b.WriteString(err.Error())

	var se sourceError
	var pos = errortypes.ToErrFilePos(err)
	if pos == nil || pos.Line() < 1 || !errors.As(err, &se) {
		return b.String()
	}
	text, ok := se.source(pos.File())
	if !ok {
		return b.String()
	}
	var lines = strings.Split(text, "\n")
	if pos.Line() > len(lines) {
		return b.String()
	}
	var line = lines[pos.Line()-1]
	var gutter = fmt.Sprintf("%4d | ", pos.Line())
	b.WriteString("\n")
	b.WriteString(gutterStyle.Render(gutter))
	b.WriteString(line)
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", len(gutter)))
	b.WriteString(caretIndent(line, pos.Col()))
	b.WriteString(caretStyle.Render("^"))
	return b.String()
}

// caretIndent returns the whitespace that aligns a caret under the 1-based
// byte column of line, keeping tabs so the alignment survives expansion.
func caretIndent(line string, col int) string {
	var n = min(max(col-1, 0), len(line))
	var b strings.Builder
	for _, r := range line[:n] {
		if r == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}
