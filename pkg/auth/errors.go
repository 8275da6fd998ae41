package auth

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// Provider error codes we map to fixed user-facing messages. Codes the table
// does not know fall back to the raw provider message.
const (
	CodeInvalidCredential = "INVALID_LOGIN_CREDENTIALS"
	CodeEmailNotFound     = "EMAIL_NOT_FOUND"
	CodeInvalidPassword   = "INVALID_PASSWORD"
	CodeTooManyAttempts   = "TOO_MANY_ATTEMPTS_TRY_LATER"
	CodeEmailExists       = "EMAIL_EXISTS"
	CodeWeakPassword      = "WEAK_PASSWORD"
	CodePopupClosed       = "POPUP_CLOSED_BY_USER"
	CodeNetworkFailed     = "NETWORK_REQUEST_FAILED"
	CodeUserDisabled      = "USER_DISABLED"
	CodeRecentLoginNeeded = "CREDENTIAL_TOO_OLD_LOGIN_AGAIN"
)

// ProviderError is an identity-provider failure with its string code.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("auth provider error %s: %s", e.Code, e.Message)
}

// UserMessage maps the provider code to a fixed user-facing string, falling
// back to the raw message for unmapped codes.
func (e *ProviderError) UserMessage() string {
	switch e.Code {
	case CodeInvalidCredential, CodeEmailNotFound, CodeInvalidPassword:
		return "Invalid email or password."
	case CodeTooManyAttempts:
		return "Too many attempts. Try again later."
	case CodeEmailExists:
		return "That email address is already in use."
	case CodeWeakPassword:
		return "That password is too weak."
	case CodePopupClosed:
		return "The sign-in window was closed before finishing."
	case CodeNetworkFailed:
		return "A network error interrupted sign-in."
	case CodeUserDisabled:
		return "This account has been disabled."
	case CodeRecentLoginNeeded:
		return "Please sign in again to do that."
	}
	if e.Message != "" {
		return e.Message
	}
	return "Sign-in failed."
}

// wrapProviderError converts transport-level errors into ProviderErrors.
// The identity toolkit reports its code as the leading token of the error
// message (e.g. "WEAK_PASSWORD : Password should be at least 6 characters").
func wrapProviderError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		code := gerr.Message
		if i := strings.IndexAny(code, " :"); i > 0 {
			code = code[:i]
		}
		return &ProviderError{Code: strings.TrimSpace(code), Message: gerr.Message}
	}
	return &ProviderError{Code: CodeNetworkFailed, Message: err.Error()}
}

// UserMessage extracts a user-facing string from any error this package
// produces, falling back to err.Error().
func UserMessage(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.UserMessage()
	}
	return err.Error()
}
