// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package authapi

import (
	"fmt"
	"strings"

	"github.com/danielhkuo/pollpocket/models"
)

// Kind classifies an auth failure into one of the cases the caller can
// meaningfully act on.
type Kind int

const (
	KindOther Kind = iota
	KindInvalidCredentials
	KindEmailNotVerified
	KindAlreadyRegistered
	KindWeakPassword
	KindInvalidEmail
)

// Error is a classified auth failure. Code and Message are what the backend
// returned; Kind is derived from them.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("auth: %s", e.Message)
}

// UserMessage returns the message to show the user for this failure.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindInvalidCredentials:
		return "Invalid email or password. Please check your credentials and try again."
	case KindEmailNotVerified:
		return "Please check your email and click the verification link before signing in."
	case KindAlreadyRegistered:
		return "This email has already been registered. Try signing in instead."
	case KindWeakPassword:
		return "Password should be at least 6 characters long."
	case KindInvalidEmail:
		return "Please enter a valid email address."
	default:
		return fmt.Sprintf("Operation failed: %s", e.Message)
	}
}

// classify derives the Kind from the backend's stable error code, falling
// back to message substrings for backends that only return text. The
// fallback is a known fragility, not a contract.
func classify(code, message string, status int) *Error {
	e := &Error{Kind: KindOther, Code: code, Message: message, Status: status}

	switch code {
	case models.CodeInvalidCredentials:
		e.Kind = KindInvalidCredentials
	case models.CodeEmailNotConfirmed:
		e.Kind = KindEmailNotVerified
	case models.CodeUserAlreadyExists:
		e.Kind = KindAlreadyRegistered
	case models.CodeWeakPassword:
		e.Kind = KindWeakPassword
	case models.CodeInvalidEmail:
		e.Kind = KindInvalidEmail
	case "":
		e.Kind = classifyByMessage(message)
	}
	return e
}

func classifyByMessage(message string) Kind {
	switch {
	case strings.Contains(message, "Invalid login credentials"):
		return KindInvalidCredentials
	case strings.Contains(message, "Email not confirmed"):
		return KindEmailNotVerified
	case strings.Contains(message, "already registered"):
		return KindAlreadyRegistered
	case strings.Contains(message, "Password should be at least"):
		return KindWeakPassword
	case strings.Contains(message, "Unable to validate email address"):
		return KindInvalidEmail
	default:
		return KindOther
	}
}
