package models

// Display-server request bodies. Symbols are checked by the controller after
// normalisation, so only presence is validated here.

type StockForm struct {
	Symbol string `json:"symbol" form:"symbol" validate:"required"`
	Type   Depth  `json:"type" form:"type" default:"quick" validate:"oneof=quick comprehensive"`
	Async  bool   `json:"async" form:"async"`
}

type ComparisonForm struct {
	Symbols string `json:"symbols" form:"symbols" validate:"required"`
}

type ResearchForm struct {
	Topic string `json:"topic" form:"topic" validate:"required"`
}

type QueryForm struct {
	Query string `json:"query" form:"query" validate:"required"`
}

// AnalysisView is what the display server returns for a finished analysis.
type AnalysisView struct {
	Kind     AnalysisKind  `json:"kind"`
	Subject  string        `json:"subject"`
	HTML     string        `json:"html"`
	Sections []Section     `json:"sections"`
	Recent   []RecentEntry `json:"recent"`
}
