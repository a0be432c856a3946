// Package terminal asks the user for the export parameters the command line
// did not provide.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"feed-export/internal/textutil"
	"feed-export/internal/types"
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrInvalidNumber    = errors.New("invalid number")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
)

// Prompter reads answers line by line from in and writes questions to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New returns a Prompter over r and w.
func New(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(r), out: w}
}

// Prompt prints question and returns the trimmed answer.
func (p *Prompter) Prompt(question string) (string, error) {
	fmt.Fprintf(p.out, "%s ", question)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return strings.TrimSpace(s), nil
}

// Confirm asks a yes/no question. An empty answer returns def.
func (p *Prompter) Confirm(question string, def bool) bool {
	opts := "[y/N]:"
	if def {
		opts = "[Y/n]:"
	}
	s, err := p.Prompt(question + " " + opts)
	if err != nil || s == "" {
		return def
	}
	return strings.EqualFold(s, "y") || strings.EqualFold(s, "yes")
}

// AskUsername asks for the account to export, without a leading @.
func (p *Prompter) AskUsername() (string, error) {
	s, err := p.Prompt("Enter the username (without @):")
	if err != nil {
		return "", err
	}
	s = strings.TrimPrefix(s, "@")
	if s == "" {
		return "", ErrUsernameRequired
	}
	return s, nil
}

// AskSelection asks which part of the feed to download.
func (p *Prompter) AskSelection() (types.Selection, error) {
	fmt.Fprintln(p.out, "What do you want to download?")
	fmt.Fprintln(p.out, "  1. All videos")
	fmt.Fprintln(p.out, "  2. The most recent videos")
	fmt.Fprintln(p.out, "  3. Videos within a date range")

	choice, err := p.Prompt("Choice (1/2/3):")
	if err != nil {
		return types.Selection{}, err
	}

	switch choice {
	case "1":
		return types.Selection{Kind: types.SelectAll}, nil
	case "2":
		s, err := p.Prompt("How many recent videos?")
		if err != nil {
			return types.Selection{}, err
		}
		n, err := ParseCount(s)
		if err != nil {
			return types.Selection{}, err
		}
		return types.Selection{Kind: types.SelectRecent, Count: n}, nil
	case "3":
		from, err := p.askDate("Start date (YYYY-MM-DD):")
		if err != nil {
			return types.Selection{}, err
		}
		to, err := p.askDate("End date (YYYY-MM-DD):")
		if err != nil {
			return types.Selection{}, err
		}
		return types.Selection{Kind: types.SelectRange, From: from, To: to}, nil
	default:
		return types.Selection{}, fmt.Errorf("%w: %q", ErrInvalidSelection, choice)
	}
}

func (p *Prompter) askDate(question string) (string, error) {
	s, err := p.Prompt(question)
	if err != nil {
		return "", err
	}
	if _, err := textutil.ParseDisplayDate(s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return s, nil
}

// ParseCount parses a positive number of videos made of digits only.
func ParseCount(s string) (int, error) {
	if s == "" {
		return 0, ErrInvalidNumber
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return n, nil
}
