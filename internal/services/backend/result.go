package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/pkg/util"
)

// reportKey is used when the backend answers with a bare string.
const reportKey = "report"

// sectionOrder ranks top-level result keys for display. Unlisted keys follow
// in alphabetical order.
var sectionOrder = []string{
	"final_report",
	"comparison_report",
	"research_report",
	reportKey,
	"financial_analysis",
	"technical_analysis",
	"news_analysis",
	"competitive_analysis",
	"financial_comparison",
	"technical_comparison",
	"competitive_analyses",
	"web_research",
	"financial_context",
	"analysis_results",
}

// metadata keys repeated inside result objects; they are already on the envelope.
var skipKeys = map[string]bool{
	"symbol":    true,
	"symbols":   true,
	"timestamp": true,
}

// BuildResult turns a backend envelope into a display result.
func BuildResult(kind models.AnalysisKind, subject string, depth models.Depth, resp *models.AnalysisResponse) (*models.AnalysisResult, error) {
	sections, err := FlattenResult(resp.Result)
	if err != nil {
		return nil, err
	}
	ts, ok := util.ParseTime(resp.Timestamp)
	if !ok {
		ts = time.Now()
	}
	if depth == "" {
		switch d := models.Depth(resp.AnalysisType); d {
		case models.DepthQuick, models.DepthComprehensive:
			depth = d
		}
	}
	return &models.AnalysisResult{
		Kind:      kind,
		Subject:   subject,
		Depth:     depth,
		Sections:  sections,
		Status:    resp.Status,
		Timestamp: ts,
		Raw:       resp.Result,
	}, nil
}

// FlattenResult converts a result payload into ordered sections. Nested
// objects become dotted keys ("competitive_analyses.AAPL").
func FlattenResult(raw json.RawMessage) ([]models.Section, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		text := textOf(v)
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return []models.Section{{Key: reportKey, Title: util.Humanize(reportKey), Text: text}}, nil
	}

	var sections []models.Section
	flatten("", obj, &sections)
	sortSections(sections)
	return sections, nil
}

func flatten(prefix string, obj map[string]interface{}, out *[]models.Section) {
	for k, v := range obj {
		if prefix == "" && skipKeys[k] {
			continue
		}
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			flatten(key, nested, out)
			continue
		}
		text := textOf(v)
		if strings.TrimSpace(text) == "" {
			continue
		}
		*out = append(*out, models.Section{Key: key, Title: util.Humanize(key), Text: text})
	}
}

// textOf renders a scalar or list as report text.
func textOf(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case []interface{}:
		lines := make([]string, 0, len(t))
		for _, item := range t {
			if s := textOf(item); s != "" {
				lines = append(lines, "- "+strings.ReplaceAll(s, "\n", " "))
			}
		}
		return strings.Join(lines, "\n")
	case map[string]interface{}:
		b, _ := json.MarshalIndent(t, "", "  ")
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func rank(key string) int {
	top := key
	if i := strings.IndexByte(key, '.'); i >= 0 {
		top = key[:i]
	}
	for i, k := range sectionOrder {
		if k == top {
			return i
		}
	}
	return len(sectionOrder)
}

func sortSections(s []models.Section) {
	sort.SliceStable(s, func(i, j int) bool {
		ri, rj := rank(s[i].Key), rank(s[j].Key)
		if ri != rj {
			return ri < rj
		}
		return s[i].Key < s[j].Key
	})
}
