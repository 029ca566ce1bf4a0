package models

import "encoding/json"

// SymbolValidation is the answer of GET /validate/symbol/{symbol}.
type SymbolValidation struct {
	Valid    bool   `json:"valid"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Task states reported by GET /status/{taskId}.
const (
	TaskStarted    = "started"
	TaskProcessing = "processing"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

// TaskHandle is returned when an async analysis is accepted.
type TaskHandle struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TaskStatus is the progress report of an async analysis.
type TaskStatus struct {
	Status       string          `json:"status"`
	Symbol       string          `json:"symbol,omitempty"`
	AnalysisType string          `json:"analysis_type,omitempty"`
	Progress     int             `json:"progress"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        string          `json:"error,omitempty"`
	StartedAt    string          `json:"started_at,omitempty"`
	CompletedAt  string          `json:"completed_at,omitempty"`
	FailedAt     string          `json:"failed_at,omitempty"`
}

// Done reports whether the task reached a terminal state.
func (s *TaskStatus) Done() bool {
	return s.Status == TaskCompleted || s.Status == TaskFailed
}

// SystemInfo is the answer of GET /system/info.
type SystemInfo struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Status    string   `json:"status"`
	Features  []string `json:"features"`
	Timestamp string   `json:"timestamp"`
}

// HealthStatus is the answer of GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// PDFRequest is the body of POST /download/pdf.
type PDFRequest struct {
	Content string `json:"content" validate:"required"`
	Title   string `json:"title" default:"Analysis Report"`
}

// PDFDocument is a downloaded report.
type PDFDocument struct {
	Filename string
	Data     []byte
}

// AnalysisEvent is published once per finished operation.
type AnalysisEvent struct {
	Kind       AnalysisKind `json:"kind"`
	Subject    string       `json:"subject"`
	Depth      Depth        `json:"depth,omitempty"`
	Outcome    string       `json:"outcome"`
	ErrorKind  string       `json:"error_kind,omitempty"`
	DurationMs int64        `json:"duration_ms"`
	Timestamp  int64        `json:"timestamp"`
}
