package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/taskrank/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockAssistant(t *testing.T) {
	ctx := context.Background()

	t.Run("default splits words", func(t *testing.T) {
		m := NewMockAssistant()
		d, err := m.Parse(ctx, ai.ParseRequest{Query: "Fix Login"})
		require.NoError(t, err)
		assert.Equal(t, []string{"fix", "login"}, d.CoreKeywords)
		assert.Equal(t, 1, m.CallCount())

		req, ok := m.LastRequest()
		assert.True(t, ok)
		assert.Equal(t, "Fix Login", req.Query)
	})

	t.Run("with error", func(t *testing.T) {
		boom := errors.New("boom")
		m := NewMockAssistant().WithError(boom)
		_, err := m.Parse(ctx, ai.ParseRequest{})
		assert.ErrorIs(t, err, boom)

		m.Reset()
		assert.Zero(t, m.CallCount())
		_, ok := m.LastRequest()
		assert.False(t, ok)
	})
}

func TestMockProvider(t *testing.T) {
	exp := NewMockExpander(map[string][]string{"meeting": {"call"}})
	p := NewMockProviderWithServices(NewMockAssistant(), exp)

	out, err := p.Expander().ExpandKeywords(context.Background(), ai.ExpandRequest{Keywords: []string{"meeting", "other"}})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"meeting": {"call"}}, out)
	assert.Equal(t, 1, p.GetMockExpander().CallCount())

	require.NoError(t, p.Close())
	assert.True(t, p.Closed())
}
