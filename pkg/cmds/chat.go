package cmds

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/ollachat/pkg/inference/session"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

const ExitCommand = "exit"

// Renderer turns an assistant reply into terminal output.
type Renderer interface {
	Render(markdown string) (string, error)
}

type GlamourRenderer struct {
	r *glamour.TermRenderer
}

func NewGlamourRenderer(wordWrap int) (*GlamourRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return nil, errors.Wrap(err, "could not create markdown renderer")
	}
	return &GlamourRenderer{r: r}, nil
}

func (g *GlamourRenderer) Render(markdown string) (string, error) {
	out, err := g.r.Render(markdown)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ChatLoop is the line-oriented chat of the `chat` command. Every line read
// from In is sent to the session and the reply is written to Out.
type ChatLoop struct {
	Session *session.Session
	Model   string
	In      io.Reader
	Out     io.Writer
	Err     io.Writer
	// Renderer is optional; replies are printed verbatim without one.
	Renderer Renderer
	// Styled colors the prompt and the model name.
	Styled bool
}

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	modelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func (c *ChatLoop) style(s lipgloss.Style, text string) string {
	if !c.Styled {
		return text
	}
	return s.Render(text)
}

// Run reads input until "exit", end of input or context cancellation.
func (c *ChatLoop) Run(ctx context.Context) error {
	if c.Session == nil {
		return session.ErrSessionNil
	}
	errOut := c.Err
	if errOut == nil {
		errOut = c.Out
	}

	fmt.Fprintf(c.Out, "🚀 Chatbot is running using model: %s\n", c.Model)
	fmt.Fprintf(c.Out, "Type '%s' to stop\n", ExitCommand)

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.In)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(c.Out, c.style(promptStyle, "You: "))

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.Out)
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(c.Out)
			if err := <-readErr; err != nil {
				return errors.Wrap(err, "could not read input")
			}
			fmt.Fprintln(c.Out, "Chat ended.")
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, ExitCommand) {
			fmt.Fprintln(c.Out, "Chat ended.")
			return nil
		}

		reply, err := c.Session.Send(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(errOut, c.style(errorStyle, "Error: "+err.Error()))
			if reply == nil {
				continue
			}
		}
		if reply.ModelError != nil {
			fmt.Fprintln(errOut, c.style(errorStyle, "Error: "+reply.ModelError.Error()))
			if reply.Content == "" {
				continue
			}
		}

		fmt.Fprintf(c.Out, "%s: %s\n\n", c.style(modelStyle, c.Model), c.render(reply.Content))
	}
}

func (c *ChatLoop) render(content string) string {
	if c.Renderer == nil {
		return content
	}
	rendered, err := c.Renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
