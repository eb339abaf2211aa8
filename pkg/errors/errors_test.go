package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(CodeValidation, "quantity must be positive")
	if err.Code() != CodeValidation {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if err.Message() != "quantity must be positive" {
		t.Fatalf("unexpected message %q", err.Message())
	}
	if err.Error() != "VALIDATION_ERROR: quantity must be positive" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "database unavailable")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected the cause in the chain")
	}
	if err.Unwrap() != cause {
		t.Fatal("unwrap should return the cause")
	}

	// Wrapping nil degrades to New.
	if Wrap(CodeInternal, nil, "no cause").Unwrap() != nil {
		t.Fatal("wrapping nil must not invent a cause")
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	typed := New(CodeNotFound, "missing")
	wrapped := fmt.Errorf("handler: %w", typed)

	found := As(wrapped)
	if found == nil {
		t.Fatal("expected to find the typed error")
	}
	if found.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", found.Code())
	}

	if As(stdErrors.New("plain")) != nil {
		t.Fatal("plain errors are not typed")
	}
	if As(nil) != nil {
		t.Fatal("nil has no typed error")
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(CodeConflict, "duplicate"))
	if !Is(err, CodeConflict) {
		t.Fatal("expected code match through the chain")
	}
	if Is(err, CodeNotFound) {
		t.Fatal("unexpected code match")
	}
	if Is(nil, CodeConflict) {
		t.Fatal("nil never matches")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad field").WithDetails(map[string]string{"field": "quantity"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["field"] != "quantity" {
		t.Fatalf("unexpected details %v", err.Details())
	}
}

func TestMetadataForKnownAndUnknownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeInsufficientStock, http.StatusUnprocessableEntity},
		{CodeInternal, http.StatusInternalServerError},
		{CodeDependency, http.StatusServiceUnavailable},
		{Code("MADE_UP"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s) = %d, want %d", tc.code, got, tc.status)
		}
	}
}
