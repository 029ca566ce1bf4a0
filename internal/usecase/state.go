package usecase

import (
	"sync"

	"IntelliMarket/internal/domain/models"
)

// ResultView is a finished analysis together with its rendered HTML.
type ResultView struct {
	Result *models.AnalysisResult `json:"result"`
	HTML   string                 `json:"html"`
}

// AppState is the display state owned by the Controller: the latest result
// per analysis kind, the recent list and the selected tab. Handlers read it
// through Snapshot.
type AppState struct {
	mu        sync.RWMutex
	results   map[models.AnalysisKind]*ResultView
	recent    []models.RecentEntry
	activeTab models.AnalysisKind
	lastError string
}

// StateSnapshot is a copy of AppState safe to hand out.
type StateSnapshot struct {
	Results   map[models.AnalysisKind]*ResultView `json:"results"`
	Recent    []models.RecentEntry                `json:"recent"`
	ActiveTab models.AnalysisKind                 `json:"active_tab"`
	LastError string                              `json:"last_error,omitempty"`
}

func NewAppState() *AppState {
	return &AppState{
		results:   make(map[models.AnalysisKind]*ResultView),
		recent:    []models.RecentEntry{},
		activeTab: models.KindStock,
	}
}

func (s *AppState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make(map[models.AnalysisKind]*ResultView, len(s.results))
	for k, v := range s.results {
		results[k] = v
	}
	return StateSnapshot{
		Results:   results,
		Recent:    copyEntries(s.recent),
		ActiveTab: s.activeTab,
		LastError: s.lastError,
	}
}

// Result returns the latest result for kind.
func (s *AppState) Result(kind models.AnalysisKind) (*ResultView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.results[kind]
	return v, ok
}

// Recent returns a copy of the recent list.
func (s *AppState) Recent() []models.RecentEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEntries(s.recent)
}

// SetActiveTab switches the selected tab; unknown kinds are ignored.
func (s *AppState) SetActiveTab(kind models.AnalysisKind) {
	if !kind.Valid() {
		return
	}
	s.mu.Lock()
	s.activeTab = kind
	s.mu.Unlock()
}

func (s *AppState) setResult(kind models.AnalysisKind, v *ResultView) {
	s.mu.Lock()
	s.results[kind] = v
	s.activeTab = kind
	s.lastError = ""
	s.mu.Unlock()
}

func (s *AppState) setRecent(recent []models.RecentEntry) {
	s.mu.Lock()
	s.recent = copyEntries(recent)
	s.mu.Unlock()
}

func (s *AppState) setError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

func copyEntries(in []models.RecentEntry) []models.RecentEntry {
	out := make([]models.RecentEntry, len(in))
	copy(out, in)
	return out
}
