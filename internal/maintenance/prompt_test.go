package maintenance

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMenuChoice(t *testing.T) {
	tests := []struct {
		input string
		want  Choice
	}{
		{"1", ChoiceAll},
		{" ALL ", ChoiceAll},
		{"2", ChoiceSubset},
		{"select", ChoiceSubset},
		{"3", ChoiceCancel},
		{"q", ChoiceCancel},
		{"", ChoiceCancel},
		{"4", ChoiceInvalid},
		{"yes", ChoiceInvalid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveMenuChoice(tt.input), "input %q", tt.input)
	}
}

func TestIsAffirmative(t *testing.T) {
	assert.True(t, IsAffirmative("y", false))
	assert.True(t, IsAffirmative(" YES ", false))
	assert.False(t, IsAffirmative("no", true))
	assert.False(t, IsAffirmative("yep", false))
	assert.False(t, IsAffirmative("", false))
	assert.True(t, IsAffirmative("", true))
}

func TestLinePrompter(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewLinePrompter(strings.NewReader("yes\r\nlast"), out)
	ctx := context.Background()

	got, err := p.Prompt(ctx, "first? ")
	require.NoError(t, err)
	assert.Equal(t, "yes", got)

	got, err = p.Prompt(ctx, "second? ")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	got, err = p.Prompt(ctx, "third? ")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	assert.True(t, strings.HasPrefix(out.String(), "first? second? "))
}

func TestLinePrompterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLinePrompter(strings.NewReader("y\n"), &bytes.Buffer{}).Prompt(ctx, "?")
	assert.ErrorIs(t, err, context.Canceled)
}
