package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"exam-service/internal/domain"
	"golang.org/x/term"
)

// Presenter renders exams on a text terminal and reads answers line by line.
type Presenter struct {
	in  *bufio.Reader
	out io.Writer
	// ttyFD is the input terminal's descriptor, or -1 when input is not a terminal.
	ttyFD int
}

func NewPresenter(in io.Reader, out io.Writer) *Presenter {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &Presenter{in: bufio.NewReader(in), out: out, ttyFD: fd}
}

func (p *Presenter) RenderQuestion(_ context.Context, q domain.Question, number, total int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\nQuestion %d/%d (%d pt)\n%s\n", number, total, q.Points, q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "  [%d] %s\n", i+1, opt)
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

func (p *Presenter) AskChoice(ctx context.Context, optionCount int) (string, error) {
	return p.ask(ctx, fmt.Sprintf("Your answer (1-%d)", optionCount))
}

func (p *Presenter) ShowError(_ context.Context, message string) error {
	_, err := fmt.Fprintf(p.out, "error: %s\n", message)
	return err
}

func (p *Presenter) RenderResults(_ context.Context, r domain.ScoreReport) error {
	verdict := "FAILED"
	if r.Passed {
		verdict = "PASSED"
	}
	_, err := fmt.Fprintf(p.out, "\n== %s ==\nCorrect answers: %d/%d\nPoints: %d/%d\nScore: %.1f%%\nResult: %s\n",
		r.ExamName, r.CorrectCount, r.TotalQuestions, r.EarnedPoints, r.TotalPoints, r.Percentage, verdict)
	return err
}

// ShowInfo prints a plain status line.
func (p *Presenter) ShowInfo(message string) error {
	_, err := fmt.Fprintln(p.out, message)
	return err
}

// AskText prompts for a line; an empty answer yields def.
func (p *Presenter) AskText(ctx context.Context, label, def string) (string, error) {
	prompt := label
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]", label, def)
	}
	answer, err := p.ask(ctx, prompt)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskSecret prompts for a line without echoing it when input is a terminal.
func (p *Presenter) AskSecret(ctx context.Context, label string) (string, error) {
	if p.ttyFD < 0 {
		return p.ask(ctx, label)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprintf(p.out, "%s: ", label); err != nil {
		return "", err
	}
	secret, err := term.ReadPassword(p.ttyFD)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}

// AskNumber prompts until an integer is entered.
func (p *Presenter) AskNumber(ctx context.Context, label string) (int, error) {
	for {
		answer, err := p.ask(ctx, label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil {
			return n, nil
		}
		if err := p.ShowError(ctx, "please enter a whole number"); err != nil {
			return 0, err
		}
	}
}

func (p *Presenter) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprintf(p.out, "%s: ", prompt); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
