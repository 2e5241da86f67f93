package notify

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Decision is the answer to "send this notification?".
type Decision int

// Decisions. Cancel drops only the one notification it was given for;
// Skip does the same but signals "deliberately left out" in the log.
const (
	Send Decision = iota
	Cancel
	Skip
)

func (d Decision) String() string {
	switch d {
	case Send:
		return "send"
	case Cancel:
		return "cancel"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// Preview is a pending notification shown to the confirmation source.
type Preview struct {
	// Kind names the notification ("supervisor notification",
	// "author permission request", "summary email").
	Kind       string
	Recipients []string
	Body       string
}

// Confirmer decides whether a pending notification goes out. Unattended runs
// use AutoConfirmer; interactive runs block on a PromptConfirmer.
type Confirmer interface {
	Confirm(p Preview) (Decision, error)
}

// AutoConfirmer approves everything without blocking.
type AutoConfirmer struct{}

// Confirm always decides Send.
func (AutoConfirmer) Confirm(Preview) (Decision, error) { return Send, nil }

// PromptConfirmer shows the preview and blocks for a y/n/skip line. There is
// no timeout: the whole run waits for the answer.
type PromptConfirmer struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPromptConfirmer reads decisions line by line from in and writes
// previews and prompts to out.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewScanner(in), out: out}
}

// Confirm prints the preview and prompts until it reads a recognized token:
// y/yes, n/no or skip (case-insensitive). Anything else re-prompts. A closed
// input stream decides Cancel.
func (c *PromptConfirmer) Confirm(p Preview) (Decision, error) {
	sep := strings.Repeat("=", 60)
	fmt.Fprintf(c.out, "\n%s\n%s\n%s\n", sep, strings.ToUpper(p.Kind), sep)
	fmt.Fprintf(c.out, "To: %s\n%s\n%s\n%s\n",
		strings.Join(p.Recipients, ", "), strings.Repeat("-", 60), p.Body, sep)

	for {
		fmt.Fprintf(c.out, "\nSend this %s? (y/n/skip): ", p.Kind)
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return Cancel, fmt.Errorf("read confirmation: %w", err)
			}
			return Cancel, fmt.Errorf("confirmation input closed")
		}
		switch strings.ToLower(strings.TrimSpace(c.in.Text())) {
		case "y", "yes":
			return Send, nil
		case "n", "no":
			return Cancel, nil
		case "skip":
			return Skip, nil
		}
		fmt.Fprint(c.out, "Please answer y, n or skip.")
	}
}
