// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package authapi

import (
	"context"
	"errors"
	"testing"

	"github.com/danielhkuo/pollpocket/testutil"
)

func TestSignInAnonymously(t *testing.T) {
	backend := testutil.StartBackend(t)
	client := New(backend.Config.ServiceURL, backend.Config.APIKey)

	session, err := client.SignInAnonymously(context.Background())
	if err != nil {
		t.Fatalf("Anonymous sign-in failed: %v", err)
	}
	if !session.User.IsAnonymous {
		t.Error("Expected an anonymous user")
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Error("Expected non-empty tokens")
	}
}

func TestSignInWithPassword(t *testing.T) {
	backend := testutil.StartBackend(t)
	client := New(backend.Config.ServiceURL, backend.Config.APIKey)

	user := backend.CreateUser(t, "alice@example.com", "hunter22")

	session, err := client.SignInWithPassword(context.Background(), "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Sign-in failed: %v", err)
	}
	if session.User.ID != user.ID {
		t.Errorf("Expected user %q, got %q", user.ID, session.User.ID)
	}

	// Wrong password surfaces as a classified error
	_, err = client.SignInWithPassword(context.Background(), "alice@example.com", "wrong")
	var authErr *Error
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected *Error, got %T: %v", err, err)
	}
	if authErr.Kind != KindInvalidCredentials {
		t.Errorf("Expected KindInvalidCredentials, got %d", authErr.Kind)
	}

	// Unknown email classifies the same way; the backend does not reveal
	// which half of the pair was wrong
	_, err = client.SignInWithPassword(context.Background(), "nobody@example.com", "hunter22")
	if !errors.As(err, &authErr) || authErr.Kind != KindInvalidCredentials {
		t.Errorf("Expected KindInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRefreshSession(t *testing.T) {
	backend := testutil.StartBackend(t)
	client := New(backend.Config.ServiceURL, backend.Config.APIKey)

	session, err := client.SignInAnonymously(context.Background())
	if err != nil {
		t.Fatalf("Anonymous sign-in failed: %v", err)
	}

	refreshed, err := client.RefreshSession(context.Background(), session.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.User.ID != session.User.ID {
		t.Errorf("Refresh changed identity: %q -> %q", session.User.ID, refreshed.User.ID)
	}

	// The old token was rotated out
	if _, err := client.RefreshSession(context.Background(), session.RefreshToken); err == nil {
		t.Error("Expected an error reusing a rotated refresh token")
	}
}

func TestSignUp(t *testing.T) {
	backend := testutil.StartBackend(t)
	client := New(backend.Config.ServiceURL, backend.Config.APIKey)

	resp, err := client.SignUp(context.Background(), "bob@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Sign-up failed: %v", err)
	}
	if resp.Session == nil {
		t.Fatal("Expected an immediate session when verification is off")
	}
	if resp.Session.User.Email != "bob@example.com" {
		t.Errorf("Unexpected email %q", resp.Session.User.Email)
	}

	var authErr *Error

	// Same email again
	_, err = client.SignUp(context.Background(), "bob@example.com", "hunter22")
	if !errors.As(err, &authErr) || authErr.Kind != KindAlreadyRegistered {
		t.Errorf("Expected KindAlreadyRegistered, got %v", err)
	}

	// Weak password
	_, err = client.SignUp(context.Background(), "carol@example.com", "no")
	if !errors.As(err, &authErr) || authErr.Kind != KindWeakPassword {
		t.Errorf("Expected KindWeakPassword, got %v", err)
	}

	// Invalid email
	_, err = client.SignUp(context.Background(), "not-an-email", "hunter22")
	if !errors.As(err, &authErr) || authErr.Kind != KindInvalidEmail {
		t.Errorf("Expected KindInvalidEmail, got %v", err)
	}
}

func TestSignUpVerificationPending(t *testing.T) {
	backend := testutil.StartBackend(t).RequireVerification(t)
	client := New(backend.Config.ServiceURL, backend.Config.APIKey)

	resp, err := client.SignUp(context.Background(), "pending@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Sign-up failed: %v", err)
	}
	// A nil session is the pending-verification signal, not an error
	if resp.Session != nil {
		t.Error("Expected a nil session while verification is pending")
	}
	if resp.User.ID == "" {
		t.Error("Expected the created user in the response")
	}

	_, err = client.SignInWithPassword(context.Background(), "pending@example.com", "hunter22")
	var authErr *Error
	if !errors.As(err, &authErr) || authErr.Kind != KindEmailNotVerified {
		t.Errorf("Expected KindEmailNotVerified before verification, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	backend := testutil.StartBackend(t)
	client := New(backend.Config.ServiceURL, backend.Config.APIKey)

	session, err := client.SignInAnonymously(context.Background())
	if err != nil {
		t.Fatalf("Anonymous sign-in failed: %v", err)
	}

	upgraded, err := client.UpdateUser(context.Background(), session.AccessToken,
		"upgraded@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}
	if upgraded.User.ID != session.User.ID {
		t.Errorf("Upgrade changed identity: %q -> %q", session.User.ID, upgraded.User.ID)
	}
	if upgraded.User.IsAnonymous {
		t.Error("Upgraded user still marked anonymous")
	}

	// A second upgrade of the now-credentialed account fails
	if _, err := client.UpdateUser(context.Background(), upgraded.AccessToken,
		"again@example.com", "hunter22"); err == nil {
		t.Error("Expected an error upgrading a credentialed account")
	}
}

func TestSignOut(t *testing.T) {
	backend := testutil.StartBackend(t)
	client := New(backend.Config.ServiceURL, backend.Config.APIKey)

	session, err := client.SignInAnonymously(context.Background())
	if err != nil {
		t.Fatalf("Anonymous sign-in failed: %v", err)
	}

	if err := client.SignOut(context.Background(), session.AccessToken); err != nil {
		t.Fatalf("Sign-out failed: %v", err)
	}

	// The refresh token died with the session
	if _, err := client.RefreshSession(context.Background(), session.RefreshToken); err == nil {
		t.Error("Expected an error refreshing after sign-out")
	}
}
