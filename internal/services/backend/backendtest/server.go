// Package backendtest provides an in-process fake of the analysis backend
// for tests.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// Server is a fake analysis backend. Handlers may be replaced per test
// through Handle before requests are made.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	mux    map[string]http.HandlerFunc
	calls  map[string]int
	bodies map[string][]map[string]interface{}
	tasks  map[string][]map[string]interface{}
	known  map[string]map[string]interface{}
	stamp  string
}

// NewServer starts a fake backend serving the /api routes.
func NewServer() *Server {
	s := &Server{
		mux:    make(map[string]http.HandlerFunc),
		calls:  make(map[string]int),
		bodies: make(map[string][]map[string]interface{}),
		tasks:  make(map[string][]map[string]interface{}),
		known: map[string]map[string]interface{}{
			"AAPL": {"name": "Apple Inc.", "sector": "Technology", "industry": "Consumer Electronics"},
			"MSFT": {"name": "Microsoft Corporation", "sector": "Technology", "industry": "Software"},
			"NVDA": {"name": "NVIDIA Corporation", "sector": "Technology", "industry": "Semiconductors"},
		},
		stamp: time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC).Format("2006-01-02T15:04:05.000000"),
	}
	s.defaults()
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// BaseURL is the prefix a client should be configured with.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// Handle overrides the handler for a route key such as "POST /api/analyze/stock".
// Keys ending in "/" match by prefix.
func (s *Server) Handle(key string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mux[key] = h
}

// Calls returns how many requests hit the route key.
func (s *Server) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// Bodies returns the decoded JSON bodies received on the route key.
func (s *Server) Bodies(key string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]interface{}(nil), s.bodies[key]...)
}

// QueueTask scripts the successive /status answers for taskID. The last
// answer repeats.
func (s *Server) QueueTask(taskID string, states ...map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[taskID] = states
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	s.mu.Lock()
	h, ok := s.mux[key]
	if !ok {
		for k, candidate := range s.mux {
			if strings.HasSuffix(k, "/") && strings.HasPrefix(key, k) {
				h, ok, key = candidate, true, k
				break
			}
		}
	}
	s.calls[key]++
	if r.Body != nil && r.Method == http.MethodPost {
		var body map[string]interface{}
		if json.NewDecoder(r.Body).Decode(&body) == nil {
			s.bodies[key] = append(s.bodies[key], body)
		}
	}
	s.mu.Unlock()

	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Endpoint not found"})
		return
	}
	h(w, r)
}

// WriteJSON writes v with status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) lastBody(key string) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bodies[key]
	if len(b) == 0 {
		return map[string]interface{}{}
	}
	return b[len(b)-1]
}

func (s *Server) defaults() {
	s.mux["GET /api/health"] = func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "healthy", "service": "IntelliMarket API"})
	}
	s.mux["GET /api/system/info"] = func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"service":   "IntelliMarket API",
			"version":   "1.0.0",
			"status":    "operational",
			"features":  []string{"Single stock analysis", "Stock comparison", "Market research", "Custom queries", "Async processing"},
			"timestamp": s.stamp,
		})
	}
	s.mux["GET /api/validate/symbol/"] = func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/api/validate/symbol/")
		info, ok := s.known[symbol]
		if !ok {
			WriteJSON(w, http.StatusOK, map[string]interface{}{"valid": false, "reason": "Symbol not found"})
			return
		}
		out := map[string]interface{}{"valid": true, "symbol": symbol}
		for k, v := range info {
			out[k] = v
		}
		WriteJSON(w, http.StatusOK, out)
	}
	s.mux["POST /api/analyze/stock"] = func(w http.ResponseWriter, r *http.Request) {
		body := s.lastBody("POST /api/analyze/stock")
		symbol, _ := body["symbol"].(string)
		typ, _ := body["type"].(string)
		var result interface{} = "## " + symbol + " Quick Analysis\n**Recommendation:** Hold\n- Revenue growing\n- Margins stable"
		if typ == "comprehensive" {
			result = map[string]interface{}{
				"symbol":               symbol,
				"timestamp":            s.stamp,
				"final_report":         "# " + symbol + " Investment Report\n| Metric | Value |\n|---|---|\n| P/E | 28.5 |",
				"financial_analysis":   "Strong balance sheet",
				"technical_analysis":   "RSI 61, above 50-day MA",
				"news_analysis":        "Positive sentiment",
				"competitive_analysis": "Leader in segment",
			}
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"symbol": symbol, "analysis_type": typ, "result": result, "timestamp": s.stamp, "status": "completed",
		})
	}
	s.mux["POST /api/analyze/comparison"] = func(w http.ResponseWriter, r *http.Request) {
		body := s.lastBody("POST /api/analyze/comparison")
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"symbols":       body["symbols"],
			"analysis_type": "comparison",
			"result": map[string]interface{}{
				"comparison_report":    "## Comparison\nAAPL leads on margins",
				"financial_comparison": "| Metric | AAPL | MSFT |\n|---|---|---|\n| P/E | 28 | 34 |",
				"competitive_analyses": map[string]interface{}{"AAPL": "Ecosystem moat", "MSFT": "Cloud scale"},
			},
			"timestamp": s.stamp,
			"status":    "completed",
		})
	}
	s.mux["POST /api/analyze/research"] = func(w http.ResponseWriter, r *http.Request) {
		body := s.lastBody("POST /api/analyze/research")
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"topic":         body["topic"],
			"analysis_type": "market_research",
			"result": map[string]interface{}{
				"research_report":   "# Research\nDemand for accelerators keeps rising",
				"web_research":      []interface{}{"Source A", "Source B"},
				"financial_context": map[string]interface{}{"NVDA": "Dominant share"},
			},
			"timestamp": s.stamp,
			"status":    "completed",
		})
	}
	s.mux["POST /api/analyze/query"] = func(w http.ResponseWriter, r *http.Request) {
		body := s.lastBody("POST /api/analyze/query")
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"query":         body["query"],
			"analysis_type": "custom_query",
			"result":        map[string]interface{}{"analysis_results": "Answer to: " + asString(body["query"])},
			"timestamp":     s.stamp,
			"status":        "completed",
		})
	}
	s.mux["POST /api/analyze/async/stock"] = func(w http.ResponseWriter, r *http.Request) {
		body := s.lastBody("POST /api/analyze/async/stock")
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"task_id": "task-1",
			"status":  "started",
			"message": "Analysis started for " + asString(body["symbol"]),
		})
	}
	s.mux["GET /api/status/"] = func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/status/")
		s.mu.Lock()
		states, ok := s.tasks[id]
		var state map[string]interface{}
		if ok && len(states) > 0 {
			state = states[0]
			if len(states) > 1 {
				s.tasks[id] = states[1:]
			}
		}
		s.mu.Unlock()
		if state == nil {
			WriteJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Task not found"})
			return
		}
		WriteJSON(w, http.StatusOK, state)
	}
	s.mux["POST /api/download/pdf"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="intellimarket_report.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
