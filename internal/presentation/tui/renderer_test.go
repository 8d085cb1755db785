package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/squadchat/internal/presentation/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlain(t *testing.T) {
	out, err := tui.Plain("# Arsenal\n\n")
	require.NoError(t, err)
	assert.Equal(t, "# Arsenal\n", out)
}

func TestNewRenderer_KeepsText(t *testing.T) {
	out, err := tui.NewRenderer(80)("Arsenal has **4** players.")
	require.NoError(t, err)
	assert.Contains(t, out, "Arsenal has")
	assert.Contains(t, out, "players.")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), `|___/\__, |`)
}
