package errs

import (
	"net/http"
	"strings"
	"testing"
)

func TestNewErrorBusinessCodeDefaultsToOK(t *testing.T) {
	err := NewError(ErrInvalidParams)

	if err.Code != ErrInvalidParams {
		t.Fatalf("code = %d, want %d", err.Code, ErrInvalidParams)
	}
	if err.Status != http.StatusOK {
		t.Fatalf("status = %d, want %d (business errors ride a 200 response)", err.Status, http.StatusOK)
	}
	if err.Message == "" {
		t.Fatal("message is empty")
	}
}

func TestNewErrorKeepsMappedHTTPStatus(t *testing.T) {
	cases := []struct {
		code   int
		status int
	}{
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrAuthenticationFailed, http.StatusUnauthorized},
		{ErrRateLimitExceeded, http.StatusTooManyRequests},
		{ErrResourceExhausted, http.StatusServiceUnavailable},
		{ErrRequestEntityTooLarge, http.StatusRequestEntityTooLarge},
		{ErrNotHubMember, http.StatusForbidden},
		{ErrUnknown, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		err := NewError(tc.code)
		if err.Status != tc.status {
			t.Errorf("NewError(%d).Status = %d, want %d", tc.code, err.Status, tc.status)
		}
	}
}

func TestNewErrorUnknownCodeFallsBack(t *testing.T) {
	err := NewError(99999)

	if err.Code != ErrUnknown {
		t.Fatalf("code = %d, want ErrUnknown (%d)", err.Code, ErrUnknown)
	}
	if err.Status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", err.Status, http.StatusInternalServerError)
	}
}

func TestNewErrorReturnsCopy(t *testing.T) {
	a := NewError(ErrInvalidParams)
	a.Message = "mutated"

	b := NewError(ErrInvalidParams)
	if b.Message == "mutated" {
		t.Fatal("NewError returned a shared instance, mutation leaked into the template")
	}
}

func TestErrorStringIncludesCodeAndMessage(t *testing.T) {
	err := NewError(ErrUserNotFound)

	s := err.Error()
	if !strings.Contains(s, "3006") {
		t.Fatalf("error string %q does not mention the business code", s)
	}
	if !strings.Contains(s, err.Message) {
		t.Fatalf("error string %q does not contain the message", s)
	}
}
