package auth

import (
	"errors"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestWrapProviderErrorExtractsCode(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantCode string
	}{
		{"bare code", "EMAIL_NOT_FOUND", CodeEmailNotFound},
		{"code with detail", "WEAK_PASSWORD : Password should be at least 6 characters", CodeWeakPassword},
		{"code colon detail", "TOO_MANY_ATTEMPTS_TRY_LATER: try again", CodeTooManyAttempts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapProviderError(&googleapi.Error{Code: 400, Message: tt.message})
			var perr *ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if perr.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", perr.Code, tt.wantCode)
			}
		})
	}
}

func TestWrapProviderErrorNetworkFallback(t *testing.T) {
	err := wrapProviderError(errors.New("dial tcp: connection refused"))
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Code != CodeNetworkFailed {
		t.Errorf("code = %q, want %q", perr.Code, CodeNetworkFailed)
	}
}

func TestWrapProviderErrorNil(t *testing.T) {
	if err := wrapProviderError(nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestProviderErrorUserMessages(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{CodeInvalidCredential, "Invalid email or password."},
		{CodeEmailNotFound, "Invalid email or password."},
		{CodeInvalidPassword, "Invalid email or password."},
		{CodeTooManyAttempts, "Too many attempts. Try again later."},
		{CodeEmailExists, "That email address is already in use."},
		{CodePopupClosed, "The sign-in window was closed before finishing."},
		{CodeUserDisabled, "This account has been disabled."},
	}
	for _, tt := range tests {
		got := (&ProviderError{Code: tt.code}).UserMessage()
		if got != tt.want {
			t.Errorf("UserMessage(%s) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestProviderErrorUnknownCodeFallsBack(t *testing.T) {
	perr := &ProviderError{Code: "SOMETHING_NEW", Message: "something new happened"}
	if got := perr.UserMessage(); got != "something new happened" {
		t.Errorf("expected raw message fallback, got %q", got)
	}
}
