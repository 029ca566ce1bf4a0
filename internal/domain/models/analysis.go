package models

import (
	"encoding/json"
	"time"
)

// AnalysisKind selects which backend workflow runs.
type AnalysisKind string

const (
	KindStock      AnalysisKind = "stock"
	KindComparison AnalysisKind = "comparison"
	KindResearch   AnalysisKind = "research"
	KindQuery      AnalysisKind = "query"
)

// Valid reports whether k is a known kind.
func (k AnalysisKind) Valid() bool {
	switch k {
	case KindStock, KindComparison, KindResearch, KindQuery:
		return true
	}
	return false
}

// Depth is the analysis thoroughness selector.
type Depth string

const (
	DepthQuick         Depth = "quick"
	DepthComprehensive Depth = "comprehensive"
)

// AnalysisRequest is what the user asked for. It is not modified after it
// has been sent.
type AnalysisRequest struct {
	Kind    AnalysisKind
	Subject string   // symbol, topic or free-text query
	Symbols []string // comparison only
	Depth   Depth
}

// StockRequest is the body of POST /analyze/stock and /analyze/async/stock.
type StockRequest struct {
	Symbol string `json:"symbol" validate:"required,symbol"`
	Type   Depth  `json:"type" default:"quick" validate:"oneof=quick comprehensive"`
}

// ComparisonRequest is the body of POST /analyze/comparison.
type ComparisonRequest struct {
	Symbols []string `json:"symbols" validate:"min=2,max=5,dive,symbol"`
}

// ResearchRequest is the body of POST /analyze/research.
type ResearchRequest struct {
	Topic string `json:"topic" validate:"required"`
}

// QueryRequest is the body of POST /analyze/query.
type QueryRequest struct {
	Query string `json:"query" validate:"required"`
}

// AnalysisResponse is the backend envelope shared by all /analyze endpoints.
// Result is either a JSON string or an object of named sections.
type AnalysisResponse struct {
	Symbol       string          `json:"symbol,omitempty"`
	Symbols      []string        `json:"symbols,omitempty"`
	Topic        string          `json:"topic,omitempty"`
	Query        string          `json:"query,omitempty"`
	AnalysisType string          `json:"analysis_type"`
	Result       json.RawMessage `json:"result"`
	Timestamp    string          `json:"timestamp"`
	Status       string          `json:"status"`
}

// Section is one named part of a result, already flattened to text.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// AnalysisResult is a backend answer shaped for display. Read-only once built.
type AnalysisResult struct {
	Kind      AnalysisKind    `json:"kind"`
	Subject   string          `json:"subject"`
	Depth     Depth           `json:"depth,omitempty"`
	Sections  []Section       `json:"sections"`
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Raw       json.RawMessage `json:"-"`
}

// Section returns the text of the section with key.
func (r *AnalysisResult) Section(key string) (string, bool) {
	for _, s := range r.Sections {
		if s.Key == key {
			return s.Text, true
		}
	}
	return "", false
}

// Primary returns the section a reader should see first, usually the final report.
func (r *AnalysisResult) Primary() (Section, bool) {
	if len(r.Sections) == 0 {
		return Section{}, false
	}
	return r.Sections[0], true
}

// RecentEntry is one line of the recent-history list.
type RecentEntry struct {
	Query     string       `json:"query"`
	Kind      AnalysisKind `json:"kind"`
	Timestamp time.Time    `json:"timestamp"`
}
