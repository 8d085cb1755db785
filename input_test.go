package squadchat_test

import (
	"strings"
	"testing"

	"github.com/aretw0/squadchat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		limit   int
		wantErr bool
	}{
		{"Under Default", squadchat.DefaultMaxInputSize - 1, 0, false},
		{"Exact Default", squadchat.DefaultMaxInputSize, 0, false},
		{"Over Default", squadchat.DefaultMaxInputSize + 1, 0, true},
		{"Custom Limit", 11, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := squadchat.SanitizeInput(strings.Repeat("a", tt.size), tt.limit)
			if tt.wantErr {
				assert.ErrorIs(t, err, squadchat.ErrInputTooLarge)
				assert.ErrorIs(t, err, squadchat.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Who plays for Arsenal?", "Who plays for Arsenal?"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := squadchat.SanitizeInput(tt.input, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeInput_Rejects(t *testing.T) {
	_, err := squadchat.SanitizeInput("bad \xff byte", 0)
	assert.ErrorIs(t, err, squadchat.ErrInvalidUTF8)

	_, err = squadchat.SanitizeInput(" \n\x07 ", 0)
	assert.ErrorIs(t, err, squadchat.ErrEmptyMessage)
}
