package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/aymenrakics/Secure-Messaging-System/internal/app"
	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// shell is the interactive menu loop. The logged-in user lives in sess and
// nowhere else.
type shell struct {
	app         *app.SMApp
	in          *bufio.Scanner
	out         io.Writer
	interactive bool
	sess        *smsg.Session
}

// runShell drives the menu until the user quits or input ends. Prompts and
// menus are only printed when interactive is set; results always are.
func runShell(ctx context.Context, a *app.SMApp, in io.Reader, out io.Writer, interactive bool) error {
	s := &shell{
		app:         a,
		in:          bufio.NewScanner(in),
		out:         out,
		interactive: interactive,
	}
	return s.mainMenu(ctx)
}

func (s *shell) mainMenu(ctx context.Context) error {
	for {
		if s.interactive {
			fmt.Fprintln(s.out, "\n== Secure messaging ==")
			if s.sess != nil {
				fmt.Fprintf(s.out, "Logged in as %s\n", s.sess.User().Username)
			}
			fmt.Fprintln(s.out, "1. Register")
			fmt.Fprintln(s.out, "2. Log in")
			fmt.Fprintln(s.out, "3. User menu")
			fmt.Fprintln(s.out, "4. Quit")
		}

		choice, ok := s.prompt("Choice: ")
		if !ok {
			return s.in.Err()
		}

		switch choice {
		case "1":
			s.register(ctx)
		case "2":
			s.login(ctx)
		case "3":
			if s.sess == nil {
				fmt.Fprintln(s.out, "You must log in first.")
				continue
			}
			if err := s.userMenu(ctx); err != nil {
				return err
			}
		case "4", "q", "quit":
			fmt.Fprintln(s.out, "Goodbye.")
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid choice.")
		}
	}
}

func (s *shell) userMenu(ctx context.Context) error {
	for s.sess != nil {
		if s.interactive {
			fmt.Fprintln(s.out, "\n== User menu ==")
			fmt.Fprintln(s.out, "1. Send a message")
			fmt.Fprintln(s.out, "2. Read my messages")
			fmt.Fprintln(s.out, "3. List users")
			fmt.Fprintln(s.out, "4. Statistics")
			fmt.Fprintln(s.out, "5. Log out")
		}

		choice, ok := s.prompt("Choice: ")
		if !ok {
			return s.in.Err()
		}

		switch choice {
		case "1":
			s.send(ctx)
		case "2":
			s.readMessages(ctx)
		case "3":
			s.listUsers(ctx)
		case "4":
			s.stats(ctx)
		case "5":
			s.sess = nil
			fmt.Fprintln(s.out, "Logged out.")
		default:
			fmt.Fprintln(s.out, "Invalid choice.")
		}
	}
	return nil
}

func (s *shell) register(ctx context.Context) {
	name, ok := s.prompt("Username: ")
	if !ok {
		return
	}
	u, err := s.app.Register(ctx, name)
	if err != nil {
		s.report(err)
		return
	}
	fmt.Fprintf(s.out, "Account %s created.\n", u.Username)
}

func (s *shell) login(ctx context.Context) {
	name, ok := s.prompt("Username: ")
	if !ok {
		return
	}
	sess, err := s.app.Login(ctx, name)
	if err != nil {
		s.report(err)
		return
	}
	s.sess = sess
	fmt.Fprintf(s.out, "Welcome %s!\n", sess.User().Username)
}

func (s *shell) send(ctx context.Context) {
	if s.interactive {
		s.listUsers(ctx)
	}
	to, ok := s.prompt("Recipient: ")
	if !ok {
		return
	}
	text, ok := s.prompt("Message: ")
	if !ok {
		return
	}
	if _, err := s.app.Send(ctx, s.sess, to, text); err != nil {
		s.report(err)
		return
	}
	fmt.Fprintf(s.out, "Message sent to %s.\n", to)
}

func (s *shell) readMessages(ctx context.Context) {
	entries, err := s.app.Inbox(ctx, s.sess)
	if err != nil {
		s.report(err)
		return
	}
	printInbox(s.out, entries)
	if len(entries) == 0 {
		return
	}

	choice, ok := s.prompt("Message number (0 to go back): ")
	if !ok {
		return
	}
	n, err := strconv.Atoi(choice)
	if err != nil {
		fmt.Fprintln(s.out, "Invalid number.")
		return
	}
	if n == 0 {
		return
	}
	if n < 1 || n > len(entries) {
		fmt.Fprintln(s.out, "No such message.")
		return
	}

	// The inbox may have grown since it was listed, so read by id.
	picked := entries[n-1]
	text, err := s.app.Read(ctx, s.sess, picked.ID)
	if err != nil {
		s.report(err)
		return
	}
	fmt.Fprintf(s.out, "From %s:\n%s\n", picked.SenderName, text)
}

func (s *shell) listUsers(ctx context.Context) {
	users, err := s.app.ListUsers(ctx)
	if err != nil {
		s.report(err)
		return
	}
	current := ""
	if s.sess != nil {
		current = s.sess.User().Username
	}
	printUsers(s.out, users, current)
}

func (s *shell) stats(ctx context.Context) {
	st, err := s.app.Stats(ctx, s.sess)
	if err != nil {
		s.report(err)
		return
	}
	printStats(s.out, st)
}

func (s *shell) prompt(label string) (string, bool) {
	if s.interactive {
		fmt.Fprint(s.out, label)
	}
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// report prints a one-line reason for a failed action and keeps the loop going.
func (s *shell) report(err error) {
	var cerr *smsg.CryptoError
	switch {
	case smsg.IsValidation(err), smsg.IsNotFound(err):
		fmt.Fprintf(s.out, "%v\n", err)
	case errors.As(err, &cerr):
		fmt.Fprintf(s.out, "Encryption error: %v\n", err)
	default:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}
