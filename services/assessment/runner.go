package assessment

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Runner asks questions on a terminal-like stream pair.
type Runner struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewRunner(r io.Reader, w io.Writer) *Runner {
	return &Runner{in: bufio.NewScanner(r), out: w}
}

// Ask prints the question with numbered options and reads until a
// non-empty answer arrives. A number within the option range is replaced
// by the option text; anything else is kept verbatim.
func (r *Runner) Ask(q Question) (string, error) {
	fmt.Fprintf(r.out, "\n💬 %s\n", q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(r.out, "   %d. %s\n", i+1, opt)
	}

	for {
		answer, err := r.Prompt("\n👉 Your answer: ")
		if err != nil {
			return "", err
		}
		if answer == "" {
			fmt.Fprintln(r.out, "⚠️  Please provide an answer.")
			continue
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(q.Options) {
			return q.Options[n-1], nil
		}
		return answer, nil
	}
}

// Prompt prints label and returns the next trimmed input line, which may
// be empty. Exhausted input is io.EOF.
func (r *Runner) Prompt(label string) (string, error) {
	fmt.Fprint(r.out, label)
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(r.in.Text()), nil
}

// RunSection asks every question of the section in order.
func (r *Runner) RunSection(s Section) (map[string]string, error) {
	if s.Title != "" {
		rule := strings.Repeat("─", 80)
		fmt.Fprintf(r.out, "\n%s\n🎯 %s\n%s\n", rule, s.Title, rule)
	}

	answers := make(map[string]string, len(s.Questions))
	for _, q := range s.Questions {
		answer, err := r.Ask(q)
		if err != nil {
			return answers, err
		}
		answers[q.Key] = answer
	}
	return answers, nil
}

// Greeting picks the salutation for the hour of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "Good Morning"
	case h >= 12 && h < 17:
		return "Good Afternoon"
	case h >= 17 && h < 21:
		return "Good Evening"
	default:
		return "Hello"
	}
}
