package maintenance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Choice is the answer to the scope menu.
type Choice int

const (
	ChoiceInvalid Choice = iota
	ChoiceAll
	ChoiceSubset
	ChoiceCancel
)

// ResolveMenuChoice maps a menu answer to a Choice.
// Empty input cancels.
func ResolveMenuChoice(input string) Choice {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "a", "all":
		return ChoiceAll
	case "2", "s", "select":
		return ChoiceSubset
	case "", "3", "c", "cancel", "q", "quit":
		return ChoiceCancel
	}
	return ChoiceInvalid
}

// IsAffirmative reports whether input answers yes. Empty input yields def.
func IsAffirmative(input string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "":
		return def
	case "y", "yes":
		return true
	}
	return false
}

// Prompter asks the operator a question and returns the raw answer.
type Prompter interface {
	Prompt(ctx context.Context, question string) (string, error)
}

// LinePrompter reads answers line by line.
// End of input is returned as an empty answer.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter returns a prompter that writes questions to out and reads answers from in.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) Prompt(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprint(p.out, question); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(p.out)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
