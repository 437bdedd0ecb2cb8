package browser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompter answers interactive prompt and confirm commands.
type Prompter interface {
	Prompt(ctx context.Context, text string, secret bool) (string, bool)
	Confirm(ctx context.Context, text string) bool
}

// LinePrompter answers prompts with lines read from an input stream.
type LinePrompter struct {
	out   io.Writer
	lines chan string
}

// NewLinePrompter starts reading lines from in. Prompts are written to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	p := &LinePrompter{out: out, lines: make(chan string)}
	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			p.lines <- scanner.Text()
		}
	}()
	return p
}

// Prompt blocks until a line arrives, ctx ends, or input is exhausted.
func (p *LinePrompter) Prompt(ctx context.Context, text string, secret bool) (string, bool) {
	if secret {
		fmt.Fprintf(p.out, "%s (input is not hidden) ", text)
	} else {
		fmt.Fprintf(p.out, "%s ", text)
	}

	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-p.lines:
		if !ok {
			return "", false
		}
		return line, true
	}
}

func (p *LinePrompter) Confirm(ctx context.Context, text string) bool {
	answer, ok := p.Prompt(ctx, text+" [y/n]", false)
	if !ok {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// DenyPrompter dismisses every prompt. It serves hosts without a terminal.
type DenyPrompter struct{}

func (DenyPrompter) Prompt(context.Context, string, bool) (string, bool) { return "", false }

func (DenyPrompter) Confirm(context.Context, string) bool { return false }
