package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/pkg/util"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9]+`)

// ReportFilename names a saved markdown report after its kind, subject and time.
func ReportFilename(kind models.AnalysisKind, subject string, t time.Time) string {
	stamp := util.ReportStamp(t)
	slug := strings.Trim(unsafeName.ReplaceAllString(subject, "_"), "_")
	switch kind {
	case models.KindComparison:
		return fmt.Sprintf("comparison_%s_%s.md", slug, stamp)
	case models.KindResearch:
		return fmt.Sprintf("research_%s_%s.md", slug, stamp)
	case models.KindQuery:
		return fmt.Sprintf("query_response_%s.md", stamp)
	}
	return fmt.Sprintf("%s_analysis_%s.md", strings.ToUpper(slug), stamp)
}

// ReportMarkdown returns the primary report of result, the text a user
// downloads.
func ReportMarkdown(result *models.AnalysisResult) string {
	if result == nil {
		return ""
	}
	primary, ok := result.Primary()
	if !ok {
		return ""
	}
	return primary.Text
}

// SaveMarkdown writes the primary report into dir and returns its path.
func SaveMarkdown(dir string, result *models.AnalysisResult, now time.Time) (string, error) {
	content := ReportMarkdown(result)
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("no report content to save")
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, ReportFilename(result.Kind, result.Subject, now))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}
