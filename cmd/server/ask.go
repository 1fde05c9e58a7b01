package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sozercan/episode-finder/internal/session"
)

const askHelp = "answer y, n or s (not sure), optionally followed by +details; b goes back, q quits"

// runAsk drives one session from line-oriented input. The local identity is
// charged for generated question sets like any other client.
func runAsk(ctx context.Context, in io.Reader, out io.Writer, backend session.Backend, show string) error {
	scanner := bufio.NewScanner(in)
	readLine := func(prompt string) (string, bool) {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for strings.TrimSpace(show) == "" {
		line, ok := readLine("Which show were you watching? ")
		if !ok {
			return scanner.Err()
		}
		show = line
	}

	sess, err := session.New(show, "local", backend)
	if err != nil {
		return err
	}
	if err := sess.Load(ctx); err != nil {
		return err
	}

	for {
		switch sess.State() {
		case session.StateError:
			f := sess.Failure()
			fmt.Fprintf(out, "\nSomething went wrong: %s\n", f.Message)
			if f.RateLimited {
				fmt.Fprintf(out, "Generated questions are available again in %d hours.\n", f.ResetInHours)
				return nil
			}
			line, ok := readLine("Try again? [y/N] ")
			if !ok || !isYes(line) {
				return scanner.Err()
			}
			if err := sess.Retry(ctx); err != nil {
				return err
			}

		case session.StateAnswering:
			qs := sess.Questions()
			i := sess.CurrentIndex()
			fmt.Fprintf(out, "\nQuestion %d of %d: %s\n", i+1, len(qs), qs[i].Question)
			if qs[i].Answered() {
				fmt.Fprintf(out, "(current answer: %s)\n", qs[i].Answer.Label())
			}
			line, ok := readLine("> ")
			if !ok {
				return scanner.Err()
			}
			if line == "q" {
				return nil
			}
			if err := applyInput(ctx, sess, line); err != nil {
				if !errors.Is(err, errUnknownInput) && !errors.Is(err, session.ErrInvalidState) {
					fmt.Fprintf(out, "%v\n", err)
				}
				fmt.Fprintln(out, askHelp)
			}

		case session.StateResult:
			printResult(out, sess)
			if !sess.AwaitingConfirmation() {
				return nil
			}
			fmt.Fprintln(out, "\nI'm not certain yet. A few more questions would help:")
			for _, q := range sess.PendingFollowUps() {
				fmt.Fprintf(out, "  - %s\n", q)
			}
			line, ok := readLine("Answer them? [y/N] ")
			if ok && isYes(line) {
				if err := sess.AcceptFollowUps(); err != nil {
					return err
				}
				continue
			}
			if err := sess.DeclineFollowUps(); err != nil {
				return err
			}
			return scanner.Err()

		default:
			return fmt.Errorf("unexpected session state %s", sess.State())
		}
	}
}

var errUnknownInput = errors.New("unknown input")

// applyInput handles one line typed while answering: "b", "+details" or an
// answer letter with optional "+details".
func applyInput(ctx context.Context, sess *session.Session, line string) error {
	if line == "b" {
		return sess.Back()
	}
	if info, ok := strings.CutPrefix(line, "+"); ok {
		return sess.SetAdditionalInfo(strings.TrimSpace(info))
	}

	token, info, _ := strings.Cut(line, "+")
	var answer session.Answer
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "y", "yes":
		answer = session.AnswerYes
	case "n", "no":
		answer = session.AnswerNo
	case "s", "not sure":
		answer = session.AnswerNotSure
	default:
		return errUnknownInput
	}

	if err := sess.Answer(answer); err != nil {
		return err
	}
	if info = strings.TrimSpace(info); info != "" {
		if err := sess.SetAdditionalInfo(info); err != nil {
			return err
		}
	}
	return sess.Next(ctx)
}

func printResult(out io.Writer, sess *session.Session) {
	r := sess.Result()
	p := r.LastWatchedPoint
	fmt.Fprintln(out)
	switch {
	case p.Season != nil && p.Episode != nil:
		fmt.Fprintf(out, "You most likely stopped at season %d, episode %d.\n", *p.Season, *p.Episode)
	case p.Season != nil:
		fmt.Fprintf(out, "You most likely stopped somewhere in season %d.\n", *p.Season)
	default:
		fmt.Fprintln(out, "I couldn't pin down a season.")
	}
	if p.Description != "" {
		fmt.Fprintln(out, p.Description)
	}
	fmt.Fprintf(out, "Confidence: %.0f%%\n", r.Confidence*100)
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "y" || s == "yes"
}
