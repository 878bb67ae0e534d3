package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerHasAllTemplates(t *testing.T) {
	m := NewManager()

	keys := []string{
		KeyOutline, KeyRefineOutline, KeyGenerateExperts,
		KeyExpertQuestion, KeyExpertAnswer, KeyWriteSection,
		KeyWriteFullAnalysis, KeyContinueAnalysis,
	}
	for _, key := range keys {
		_, err := m.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestGetUnknownKey(t *testing.T) {
	m := NewManager()

	_, err := m.Get("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestRenderSubstitutesBothParts(t *testing.T) {
	tmpl := Template{
		System: "Persona: {name} ({role})",
		User:   "Product: {product}\nAsked by {name}",
	}

	system, user := tmpl.Render(map[string]string{
		"name":    "Dana",
		"role":    "UX Researcher",
		"product": "Notion",
	})

	assert.Equal(t, "Persona: Dana (UX Researcher)", system)
	assert.Equal(t, "Product: Notion\nAsked by Dana", user)
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	tmpl := Template{User: "Product: {product}, Type: {productType}"}

	_, user := tmpl.Render(map[string]string{"product": "Notion"})
	assert.Equal(t, "Product: Notion, Type: {productType}", user)
}

func TestOutlineTemplateRendersProduct(t *testing.T) {
	m := NewManager()
	tmpl, err := m.Get(KeyOutline)
	require.NoError(t, err)

	system, user := tmpl.Render(map[string]string{
		"product":     "Notion",
		"productType": "Note-taking & Project Management",
	})

	assert.Contains(t, system, "product analyst")
	assert.Contains(t, user, "Product: Notion")
	assert.Contains(t, user, "Product Type: Note-taking & Project Management")
}
