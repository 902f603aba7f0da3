package reference

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ledongthuc/pdf"

	logx "github.com/neon-portfolio/server/pkg/logger"
)

// extractPages is swapped in tests.
var extractPages = extractPDFPages

// ResumeSource extracts the résumé PDF text, truncated to a character
// budget. The result is cached until the file's modification time changes.
type ResumeSource struct {
	path   string
	budget int

	mu      sync.Mutex
	modTime time.Time
	text    string
}

func NewResumeSource(path string, budget int) *ResumeSource {
	return &ResumeSource{path: path, budget: budget}
}

// Path returns the PDF location.
func (s *ResumeSource) Path() string {
	return s.path
}

// Text returns the extracted résumé text.
func (s *ResumeSource) Text(ctx context.Context) (string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return "", fmt.Errorf("reference: stat resume: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.modTime.IsZero() && info.ModTime().Equal(s.modTime) {
		return s.text, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pages, err := extractPages(s.path)
	if err != nil {
		return "", fmt.Errorf("reference: extract resume: %w", err)
	}
	text := truncateChars(strings.TrimSpace(strings.Join(pages, "\n")), s.budget)

	logx.Debug().Str("path", s.path).Int("pages", len(pages)).Int("chars", len([]rune(text))).Msg("resume text extracted")
	s.modTime = info.ModTime()
	s.text = text
	return text, nil
}

func extractPDFPages(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}

// truncateChars keeps the first n characters of s.
func truncateChars(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
