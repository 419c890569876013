package moderation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrConfirmationRequired is returned by a confirmer that has no decision yet.
var ErrConfirmationRequired = errors.New("confirmation required")

// Prompt is the question put to the admin before a destructive action.
type Prompt struct {
	Action       string `json:"action"`
	UserID       int64  `json:"user_id"`
	Title        string `json:"title"`
	Text         string `json:"text"`
	ConfirmLabel string `json:"confirm_label"`
	CancelLabel  string `json:"cancel_label"`
}

// Confirmer asks the admin to accept or decline a prompt.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// Decision is a confirmer whose answer was given with the request. A nil decision means
// the client has not asked the admin yet.
type Decision struct {
	Answer *bool
}

// DecisionFrom parses a confirm query/body value. Empty means undecided.
func DecisionFrom(raw string) Decision {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		v := true
		return Decision{Answer: &v}
	case "false", "0", "no":
		v := false
		return Decision{Answer: &v}
	default:
		return Decision{}
	}
}

func (d Decision) Confirm(context.Context, Prompt) (bool, error) {
	if d.Answer == nil {
		return false, ErrConfirmationRequired
	}
	return *d.Answer, nil
}

// Terminal asks on an interactive terminal.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

func (t Terminal) Confirm(ctx context.Context, p Prompt) (bool, error) {
	fmt.Fprintf(t.Out, "%s\n%s\n[y] %s / [n] %s: ", p.Title, p.Text, p.ConfirmLabel, p.CancelLabel)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(t.In).ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, a.err
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
