package terminal

import (
	"bytes"
	"strings"
	"testing"

	"feed-export/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(input), &out), &out
}

func TestAskUsername(t *testing.T) {
	p, out := prompter("@someone\n")
	user, err := p.AskUsername()
	require.NoError(t, err)
	assert.Equal(t, "someone", user)
	assert.Contains(t, out.String(), "username")

	p, _ = prompter("   \n")
	_, err = p.AskUsername()
	assert.ErrorIs(t, err, ErrUsernameRequired)
}

func TestAskSelectionAll(t *testing.T) {
	p, out := prompter("1\n")
	sel, err := p.AskSelection()
	require.NoError(t, err)
	assert.Equal(t, types.Selection{Kind: types.SelectAll}, sel)
	assert.Contains(t, out.String(), "1. All videos")
}

func TestAskSelectionRecent(t *testing.T) {
	p, _ := prompter("2\n15\n")
	sel, err := p.AskSelection()
	require.NoError(t, err)
	assert.Equal(t, types.Selection{Kind: types.SelectRecent, Count: 15}, sel)
}

func TestAskSelectionRecentInvalid(t *testing.T) {
	for _, input := range []string{"2\nabc\n", "2\n-3\n", "2\n0\n", "2\n\n"} {
		p, _ := prompter(input)
		_, err := p.AskSelection()
		assert.ErrorIs(t, err, ErrInvalidNumber, "input %q", input)
	}
}

func TestAskSelectionRange(t *testing.T) {
	p, _ := prompter("3\n2024-01-01\n2024-03-31\n")
	sel, err := p.AskSelection()
	require.NoError(t, err)
	assert.Equal(t, types.Selection{Kind: types.SelectRange, From: "2024-01-01", To: "2024-03-31"}, sel)
}

func TestAskSelectionRangeInvalid(t *testing.T) {
	p, _ := prompter("3\n01/02/2024\n")
	_, err := p.AskSelection()
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestAskSelectionInvalidChoice(t *testing.T) {
	p, _ := prompter("4\n")
	_, err := p.AskSelection()
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestPromptWithoutTrailingNewline(t *testing.T) {
	p, _ := prompter("last")
	s, err := p.Prompt("?")
	require.NoError(t, err)
	assert.Equal(t, "last", s)

	_, err = p.Prompt("?")
	assert.Error(t, err)
}

func TestConfirm(t *testing.T) {
	p, _ := prompter("y\nno\n\n")
	assert.True(t, p.Confirm("Install?", false))
	assert.False(t, p.Confirm("Install?", true))
	assert.True(t, p.Confirm("Install?", true))

	// closed input falls back to the default
	assert.False(t, p.Confirm("Install?", false))
}

func TestParseCount(t *testing.T) {
	n, err := ParseCount("42")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = ParseCount("4 2")
	assert.ErrorIs(t, err, ErrInvalidNumber)
}
