package filter

import (
	"strings"
	"testing"
)

const sample = `{
  "final_report": "# AAPL\nHold",
  "competitive_analyses": {"AAPL": "moat", "MSFT": "cloud"},
  "web_research": [{"title": "a", "score": 3}, {"title": "b", "score": 9}]
}`

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		query  string
		want   string
	}{
		{"string unquoted", "final_report", "", "# AAPL\nHold"},
		{"nested key", "competitive_analyses.MSFT", "", "cloud"},
		{"filter then query", "web_research[?score > `5`]", "[].title", "[\n  \"b\"\n]"},
		{"missing key", "nope", "", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply([]byte(sample), tt.filter, tt.query)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestApplyWithoutExpressionsReindents(t *testing.T) {
	got, err := Apply([]byte(`{"a":1}`), "", "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got != "{\n  \"a\": 1\n}" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestApplyErrors(t *testing.T) {
	if _, err := Apply([]byte(`{`), "a", ""); err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
	if _, err := Apply([]byte(`{}`), "a[", ""); err == nil || !strings.Contains(err.Error(), "failed to apply filter") {
		t.Fatalf("expected filter error, got %v", err)
	}
	if IsValidJMESPath("a[") || !IsValidJMESPath("a.b") {
		t.Fatalf("unexpected expression validity")
	}
}
