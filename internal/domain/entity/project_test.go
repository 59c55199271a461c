package entity

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectStatus_TransitionTable(t *testing.T) {
	all := []ProjectStatus{ProjectStatusPending, ProjectStatusProcessing, ProjectStatusCompleted, ProjectStatusError}
	allowed := map[[2]ProjectStatus]bool{
		{ProjectStatusPending, ProjectStatusProcessing}:   true,
		{ProjectStatusPending, ProjectStatusError}:        true,
		{ProjectStatusProcessing, ProjectStatusCompleted}: true,
		{ProjectStatusProcessing, ProjectStatusError}:     true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]ProjectStatus{from, to}]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestProject_Transition(t *testing.T) {
	p := NewProject("Demo", []VideoRef{{ID: "abc123"}}, DefaultSettings(), time.Now())
	require.NoError(t, p.Transition(ProjectStatusProcessing))
	require.NoError(t, p.Transition(ProjectStatusCompleted))

	err := p.Transition(ProjectStatusPending)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ProjectStatusCompleted, te.From)
	assert.Equal(t, ProjectStatusCompleted, p.Status)
}

func TestNewProject(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	videos := []VideoRef{{ID: "a"}, {ID: "b"}, {ID: "a", Title: "dup"}}

	p := NewProject("  Demo  ", videos, DefaultSettings(), now)

	assert.Equal(t, "Demo", p.Title)
	assert.Equal(t, ProjectStatusPending, p.Status)
	assert.Empty(t, p.Chapters)
	assert.Zero(t, p.TotalChars)
	require.Len(t, p.Videos, 2)
	assert.Equal(t, "a", p.Videos[0].ID)
	assert.Empty(t, p.Videos[0].Title)
	assert.Regexp(t, regexp.MustCompile(`^1700000000123-[0-9a-f]{6}$`), p.ID)
}

func TestProject_RecalculateTotals(t *testing.T) {
	p := &Project{}
	for i, content := range []string{"abc", "日本語テキスト", ""} {
		ch := Chapter{ID: i + 1}
		ch.SetContent(content)
		p.Chapters = append(p.Chapters, ch)
	}
	p.RecalculateTotals()
	assert.Equal(t, 3+7, p.TotalChars)
}

func TestProject_CloneIsDeep(t *testing.T) {
	transcript := "hello"
	now := time.Now()
	p := &Project{
		Videos:      []VideoRef{{ID: "v", Transcript: &transcript}},
		Chapters:    []Chapter{{ID: 1, AppliedEnhancements: []string{"seo"}}},
		GeneratedAt: &now,
		Settings:    DefaultSettings().ApplyTemplate(templateCatalog[0]),
	}

	cp := p.Clone()
	*cp.Videos[0].Transcript = "changed"
	cp.Chapters[0].AppliedEnhancements[0] = "examples"
	cp.Settings.Template.Structure[0] = "changed"

	assert.Equal(t, "hello", *p.Videos[0].Transcript)
	assert.Equal(t, "seo", p.Chapters[0].AppliedEnhancements[0])
	assert.NotEqual(t, "changed", p.Settings.Template.Structure[0])
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats([]*Project{
		{Status: ProjectStatusCompleted, TotalChars: 100},
		{Status: ProjectStatusPending},
		{Status: ProjectStatusCompleted, TotalChars: 50},
	})
	assert.Equal(t, &DashboardStats{TotalProjects: 3, TotalChars: 150, CompletedBooks: 2}, stats)
}
