package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"ui-recorder/internal/ports"
)

// Prompter reads operator answers from the same input the command loop reads, so a
// prompt raised mid-command consumes the next line.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewPrompter() *Prompter {
	return newPrompter(os.Stdin, os.Stdout)
}

func newPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewScanner(in),
		out: out,
	}
}

func (p *Prompter) Ask(ctx context.Context, question string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", question)

	return p.readLine(ctx)
}

// Choose numbers options from 1 and re-asks until it gets a valid number. q cancels.
func (p *Prompter) Choose(ctx context.Context, title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("%s: nothing to choose from", title)
	}

	fmt.Fprintf(p.out, "\n%s:\n", title)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, opt)
	}

	for {
		fmt.Fprintf(p.out, "Choose 1-%d (q to cancel): ", len(options))

		answer, err := p.readLine(ctx)
		if err != nil {
			return 0, err
		}

		if strings.EqualFold(answer, "q") {
			return 0, ports.ErrPromptCancelled
		}

		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}

		fmt.Fprintln(p.out, "Invalid choice.")
	}
}

// readLine returns the next trimmed line. End of input counts as cancellation.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}

		return "", ports.ErrPromptCancelled
	}

	return strings.TrimSpace(p.in.Text()), nil
}

var _ ports.Prompter = (*Prompter)(nil)
