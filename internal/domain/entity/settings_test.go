package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_Validate(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	s.TargetLength = 0
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.Tone = "poetic"
	assert.Error(t, s.Validate())
}

func TestSettings_ApplyTemplateCopies(t *testing.T) {
	tpl, ok := FindTemplate("academic")
	require.True(t, ok)

	s := DefaultSettings().ApplyTemplate(tpl)
	assert.Equal(t, 20000, s.TargetLength)
	assert.Equal(t, ToneAcademic, s.Tone)
	require.NotNil(t, s.Template)

	s.Template.Structure[0] = "mutated"
	again, _ := FindTemplate("academic")
	assert.NotEqual(t, "mutated", again.Structure[0])
}

func TestTemplates_Catalog(t *testing.T) {
	want := map[string]int{
		"tutorial":  12000,
		"business":  15000,
		"academic":  20000,
		"lifestyle": 10000,
		"technical": 18000,
		"creative":  8000,
	}
	got := Templates()
	require.Len(t, got, len(want))
	for _, tpl := range got {
		assert.Equal(t, want[tpl.ID], tpl.TargetLength, tpl.ID)
		assert.True(t, tpl.Tone.Valid(), tpl.ID)
	}

	_, ok := FindTemplate("missing")
	assert.False(t, ok)
}

func TestEnhancementCatalog(t *testing.T) {
	for _, id := range []string{"readability", "examples", "structure", "engagement", "seo", "formatting"} {
		assert.True(t, IsKnownEnhancement(id), id)
	}
	assert.False(t, IsKnownEnhancement("translation"))
	assert.Equal(t, []string{"seo", "examples"}, DedupeEnhancementIDs([]string{"seo", "examples", "seo"}))
}
