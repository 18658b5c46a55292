package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeDependency, cause, "gateway call")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code: %s", err.Code())
	}
}

func TestAsFindsTypedError(t *testing.T) {
	inner := New(CodeConflict, "insufficient stock").WithDetails(map[string]int{"available": 2})
	outer := Wrap(CodeInternal, inner, "checkout failed")

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	// errors.As walks the chain outside-in, so the outer code wins.
	if typed.Code() != CodeInternal {
		t.Fatalf("unexpected code: %s", typed.Code())
	}
}

func TestHasCode(t *testing.T) {
	err := New(CodeConcurrency, "version mismatch")
	if !HasCode(err, CodeConcurrency) {
		t.Fatal("expected HasCode to match")
	}
	if HasCode(err, CodeConflict) {
		t.Fatal("expected HasCode to reject other codes")
	}
	if HasCode(errors.New("plain"), CodeConflict) {
		t.Fatal("plain errors carry no code")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected fallback status: %d", meta.HTTPStatus)
	}
}

func TestMetadataStatuses(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:    http.StatusBadRequest,
		CodeConflict:      http.StatusConflict,
		CodeConcurrency:   http.StatusConflict,
		CodeStateConflict: http.StatusUnprocessableEntity,
		CodeDependency:    http.StatusServiceUnavailable,
	}
	for code, want := range cases {
		if got := MetadataFor(code).HTTPStatus; got != want {
			t.Fatalf("%s: got status %d, want %d", code, got, want)
		}
	}
}
