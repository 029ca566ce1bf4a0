package http

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"api", NewAPIError(404, "symbol not found"), "symbol not found"},
		{"wrapped", fmt.Errorf("analyze: %w", NewValidationError("symbol", "Symbol is required")), "Symbol is required"},
		{"timeout", NewTimeoutError(5 * time.Minute), "Request timed out after 5m0s"},
		{"plain", errors.New("boom"), GenericErrorMessage},
		{"empty message", &AppError{Kind: KindAPI}, GenericErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMessage(tt.err); got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("send: %w", NewNetworkError(base).WithError(base))
	if KindOf(err) != KindNetwork {
		t.Fatalf("expected network kind, got %q", KindOf(err))
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected underlying error to unwrap")
	}
	if KindOf(errors.New("x")) != "" {
		t.Fatalf("expected empty kind for plain errors")
	}
}
