package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"Validation", Validation("bad input"), KindValidation},
		{"NotFound", NotFound("missing"), KindNotFound},
		{"Forbidden", Forbidden("nope"), KindForbidden},
		{"AIService", AIService(errors.New("boom"), "generation failed"), KindAIService},
		{"Database", Database(errors.New("boom"), "query failed"), KindDatabase},
		{"Wrapped", fmt.Errorf("context: %w", NotFound("missing")), KindNotFound},
		{"Plain", errors.New("plain"), ""},
		{"Nil", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Database(cause, "query failed")
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the wrapped cause")
	}
}

func TestMessage(t *testing.T) {
	if got := Message(Validation("name is required")); got != "name is required" {
		t.Errorf("Expected bare message, got %q", got)
	}
	if got := Message(errors.New("plain")); got != "plain" {
		t.Errorf("Expected fallback to Error(), got %q", got)
	}
	if got := Message(nil); got != "" {
		t.Errorf("Expected empty message for nil, got %q", got)
	}
}
