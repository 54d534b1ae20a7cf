// Interactive chat loop for the command line.
//
// Information Hiding:
// - Prompt/selection flow hidden behind Run
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/richinex/penelope/chat"
)

const renamePrefix = "rename "

// Runner drives the interactive chat loop over a session manager. Input and
// output are injected so the loop can be driven from tests.
type Runner struct {
	manager *chat.Manager
	in      *bufio.Scanner
	out     io.Writer
}

// NewRunner creates a runner reading commands from in and printing to out.
func NewRunner(manager *chat.Manager, in io.Reader, out io.Writer) *Runner {
	return &Runner{
		manager: manager,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run prompts for an email, lets the user resume a conversation or start a
// new one, then loops over chat turns until 'quit'. Store and completion
// failures print a notice and the loop continues.
func (r *Runner) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, "Welcome to Penelope!")
	fmt.Fprint(r.out, "Enter your email: ")
	email, ok := r.readLine()
	if !ok {
		return r.in.Err()
	}
	email = strings.ToLower(strings.TrimSpace(email))

	session, err := r.pickSession(ctx, email)
	if err != nil {
		return err
	}

	title, err := session.Title(ctx)
	if err != nil {
		title = ""
	}
	fmt.Fprintf(r.out, "\nChat started (Conversation: %s)\n", title)
	fmt.Fprintf(r.out, "Type 'quit' to end, 'rename <title>' to change title\n\n")

	for {
		fmt.Fprint(r.out, "You: ")
		input, ok := r.readLine()
		if !ok {
			break
		}

		switch {
		case strings.EqualFold(strings.TrimSpace(input), "quit"):
			fmt.Fprintln(r.out, "\nChat ended. Goodbye!")
			return nil
		case strings.HasPrefix(strings.ToLower(input), renamePrefix):
			newTitle := strings.TrimSpace(input[len(renamePrefix):])
			if err := session.Rename(ctx, newTitle); err != nil {
				fmt.Fprintln(r.out, "Failed to rename conversation")
				continue
			}
			fmt.Fprintf(r.out, "Conversation renamed to: %s\n", newTitle)
		default:
			reply, err := session.SendTurn(ctx, input)
			if err != nil {
				fmt.Fprintf(r.out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(r.out, "Assistant: %s\n", reply)
		}
	}

	return r.in.Err()
}

// pickSession lists the user's conversations and resumes the chosen one, or
// starts fresh when there are none or the input is not a listed number.
func (r *Runner) pickSession(ctx context.Context, email string) (*chat.Session, error) {
	conversations, err := r.manager.ListConversations(ctx, email)
	if err != nil {
		fmt.Fprintf(r.out, "Failed to list conversations: %v\n", err)
		return r.manager.StartNew(ctx, email)
	}
	if len(conversations) == 0 {
		return r.manager.StartNew(ctx, email)
	}

	fmt.Fprintln(r.out, "\nYour conversations:")
	for i, conv := range conversations {
		fmt.Fprintf(r.out, "%d. %s (%s)\n", i+1, conv.Title, conv.CreatedAt.Format("2006-01-02"))
	}

	fmt.Fprint(r.out, "\nEnter number to resume or 'n' for new: ")
	choice, ok := r.readLine()
	if !ok {
		return r.manager.StartNew(ctx, email)
	}

	index, resume := parseChoice(choice, len(conversations))
	if !resume {
		return r.manager.StartNew(ctx, email)
	}

	session, err := r.manager.Resume(ctx, email, conversations[index].ID)
	if err != nil {
		fmt.Fprintf(r.out, "Failed to resume conversation: %v\n", err)
		return r.manager.StartNew(ctx, email)
	}
	return session, nil
}

func (r *Runner) readLine() (string, bool) {
	if !r.in.Scan() {
		return "", false
	}
	return r.in.Text(), true
}

// parseChoice maps a 1-based selection onto a conversation index. Anything
// that is not a number within range means "start a new conversation".
func parseChoice(input string, count int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > count {
		return 0, false
	}
	return n - 1, true
}
