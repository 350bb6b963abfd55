package phraselist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher(t *testing.T) {
	m := NewMatcher("positive", []string{"  Thank You For Applying ", "", "interview"}, nil)

	t.Run("normalizes and drops blank phrases", func(t *testing.T) {
		assert.Equal(t, []string{"thank you for applying", "interview"}, m.Phrases())
		assert.Equal(t, 2, m.Len())
	})

	t.Run("matches case-insensitively", func(t *testing.T) {
		phrase, ok := m.First("THANK YOU FOR APPLYING to Acme")
		assert.True(t, ok)
		assert.Equal(t, "thank you for applying", phrase)
	})

	t.Run("reports the first phrase in configured order", func(t *testing.T) {
		phrase, ok := m.First("interview invite. thank you for applying")
		assert.True(t, ok)
		assert.Equal(t, "thank you for applying", phrase)
	})

	t.Run("returns false when nothing matches", func(t *testing.T) {
		assert.False(t, m.Contains("weekly newsletter"))
	})

	t.Run("empty matcher never matches", func(t *testing.T) {
		assert.False(t, NewMatcher("empty", nil, nil).Contains("anything"))
	})
}
