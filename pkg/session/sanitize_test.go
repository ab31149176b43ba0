package session_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/dialoguetree/pkg/adapters/memory"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeText_SizeLimit(t *testing.T) {
	limit := session.DefaultMaxTextSize

	_, err := session.SanitizeText(strings.Repeat("a", limit))
	assert.NoError(t, err)

	_, err = session.SanitizeText(strings.Repeat("a", limit+1))
	assert.ErrorIs(t, err, session.ErrTextTooLarge)
}

func TestSanitizeText_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Halt! Who goes there?", "Halt! Who goes there?"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Backtick Kept", "a `quoted` word", "a `quoted` word"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := session.SanitizeText(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeText_EnvOverride(t *testing.T) {
	t.Setenv(session.EnvMaxTextSize, "10")

	_, err := session.SanitizeText("12345678901")
	assert.ErrorIs(t, err, session.ErrTextTooLarge)

	_, err = session.SanitizeText("12345")
	assert.NoError(t, err)
}

func TestSanitizeText_InvalidUTF8(t *testing.T) {
	_, err := session.SanitizeText("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98")
	assert.ErrorIs(t, err, session.ErrInvalidUTF8)
}

func TestUpdateNode_SanitizesText(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(memory.NewStore())
	node, _, err := manager.AddNode(ctx, "a", domain.Vector2{})
	require.NoError(t, err)

	_, err = manager.UpdateNode(ctx, "a", node, session.NodePatch{Speaker: ptr("\x1b[1mGuard")})
	require.NoError(t, err)

	_, err = manager.UpdateNode(ctx, "a", node, session.NodePatch{Body: ptr("\xff")})
	require.ErrorIs(t, err, session.ErrInvalidUTF8)

	asset, err := manager.Load(ctx, "a")
	require.NoError(t, err)
	assert.Contains(t, asset.AuthoringData, "[1mGuard")
	assert.NotContains(t, asset.AuthoringData, "\x1b")
}
