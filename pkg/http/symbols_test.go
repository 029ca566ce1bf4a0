package http

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestIsValidSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"A", true},
		{"AAPL", true},
		{"GOOGL", true},
		{"", false},
		{"TOOLONG", false},
		{"aapl", false},
		{"BRK.B", false},
		{"XYZ1", false},
		{" MSFT", false},
	}
	for _, tt := range tests {
		if got := IsValidSymbol(tt.in); got != tt.want {
			t.Errorf("IsValidSymbol(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseSymbolList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "AAPL, msft , xyz123", want: []string{"AAPL", "MSFT", "XYZ123"}},
		{input: "aapl msft\tgoogl", want: []string{"AAPL", "MSFT", "GOOGL"}},
		{input: " ,, ", want: []string{}},
	}
	for _, tt := range tests {
		got := ParseSymbolList(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("ParseSymbolList(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
	if err := ValidateSymbolList(ParseSymbolList("AAPL, xyz123")); err == nil || !strings.Contains(FormatMessage(err), "XYZ123") {
		t.Fatalf("malformed entry not reported: %v", err)
	}
}

func TestValidateSymbolList(t *testing.T) {
	tests := []struct {
		name    string
		symbols []string
		wantErr bool
		invalid []string
	}{
		{name: "two valid", symbols: []string{"AAPL", "MSFT"}},
		{name: "five valid", symbols: []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META"}},
		{name: "one", symbols: []string{"AAPL"}, wantErr: true},
		{name: "empty", symbols: nil, wantErr: true},
		{name: "six", symbols: []string{"A", "B", "C", "D", "E", "F"}, wantErr: true},
		{name: "bad member", symbols: []string{"AAPL", "msft", "X1"}, wantErr: true, invalid: []string{"msft", "X1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSymbolList(tt.symbols)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var appErr *AppError
			if !errors.As(err, &appErr) || appErr.Kind != KindValidation {
				t.Fatalf("expected validation AppError, got %#v", err)
			}
			if tt.invalid != nil && !reflect.DeepEqual(appErr.Params["invalid"], tt.invalid) {
				t.Fatalf("invalid = %v, want %v", appErr.Params["invalid"], tt.invalid)
			}
		})
	}
}

func TestValidateSymbolListMessages(t *testing.T) {
	if got := FormatMessage(ValidateSymbolList([]string{"AAPL"})); got != "At least 2 symbols required for comparison" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := FormatMessage(ValidateSymbolList([]string{"A", "B", "C", "D", "E", "F"})); got != "Maximum 5 symbols allowed for comparison" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestValidateStructSymbolTag(t *testing.T) {
	type req struct {
		Symbol string `validate:"required,symbol"`
		Depth  string `default:"quick" validate:"oneof=quick comprehensive"`
	}
	ok := &req{Symbol: "NVDA"}
	if err := ValidateStruct(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok.Depth != "quick" {
		t.Fatalf("default not applied: %q", ok.Depth)
	}
	err := ValidateStruct(&req{Symbol: "nvda1"})
	if err == nil {
		t.Fatalf("expected symbol tag to reject")
	}
	if appErr := ValidationAppError(err); appErr.Kind != KindValidation || appErr.Field != "Symbol" {
		t.Fatalf("unexpected app error %+v", appErr)
	}
}
