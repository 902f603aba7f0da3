package reference

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProjects(t *testing.T) {
	projects, err := DefaultProjects()
	require.NoError(t, err)
	require.NotEmpty(t, projects)

	text := ProjectsText(projects)
	assert.Contains(t, text, "- Neon Portfolio (Web): Go, gin, Redis, Server-Sent Events")
}

func TestProjectsText(t *testing.T) {
	text := ProjectsText([]Project{
		{Name: "A", Category: "Web", Skills: []string{"Go", "SQL"}},
		{Name: "B", Category: "Art"},
	})
	assert.Equal(t, "- A (Web): Go, SQL\n- B (Art)", text)
}

func TestParseProjectsValidation(t *testing.T) {
	_, err := ParseProjects([]byte("- category: Web\n"))
	assert.ErrorContains(t, err, "name is required")

	_, err = LoadProjects(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func stubExtract(t *testing.T, fn func(string) ([]string, error)) {
	t.Helper()
	orig := extractPages
	extractPages = fn
	t.Cleanup(func() { extractPages = orig })
}

func writeFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func TestResumeTextTruncatesAndCaches(t *testing.T) {
	calls := 0
	stubExtract(t, func(string) ([]string, error) {
		calls++
		return []string{"Page one ", "page two"}, nil
	})
	src := NewResumeSource(writeFile(t), 12)

	text, err := src.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Page one \npa", text)

	_, err = src.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// A newer file is extracted again.
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(src.Path(), later, later))
	_, err = src.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestResumeTextErrors(t *testing.T) {
	_, err := NewResumeSource(filepath.Join(t.TempDir(), "none.pdf"), 10).Text(context.Background())
	assert.Error(t, err)

	stubExtract(t, func(string) ([]string, error) { return nil, errors.New("corrupt") })
	_, err = NewResumeSource(writeFile(t), 10).Text(context.Background())
	assert.ErrorContains(t, err, "corrupt")
}

func TestTruncateChars(t *testing.T) {
	assert.Equal(t, "héll", truncateChars("héllo", 4))
	assert.Equal(t, "hi", truncateChars("hi", 4))
	assert.Equal(t, "hi", truncateChars("hi", 0))
}
