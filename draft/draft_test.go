// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package draft

import (
	"context"
	"errors"
	"testing"

	"github.com/danielhkuo/pollpocket/dataapi"
	"github.com/danielhkuo/pollpocket/testutil"
)

func TestNew(t *testing.T) {
	d := New()

	options := d.Options()
	if len(options) != MinOptions {
		t.Fatalf("Expected %d starting slots, got %d", MinOptions, len(options))
	}
	for i, opt := range options {
		if opt != "" {
			t.Errorf("Expected slot %d empty, got %q", i, opt)
		}
	}
}

func TestSetOption(t *testing.T) {
	d := New()

	if err := d.SetOption(0, "Pizza"); err != nil {
		t.Fatalf("SetOption failed: %v", err)
	}
	if err := d.SetOption(1, "Sushi"); err != nil {
		t.Fatalf("SetOption failed: %v", err)
	}
	if got := d.Options(); got[0] != "Pizza" || got[1] != "Sushi" {
		t.Errorf("Unexpected options %v", got)
	}

	if err := d.SetOption(2, "Tacos"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
	if err := d.SetOption(-1, "Tacos"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}

	// Options returns a copy; mutating it does not touch the draft
	leaked := d.Options()
	leaked[0] = "tampered"
	if got := d.Options(); got[0] != "Pizza" {
		t.Errorf("Options leaked internal state: %v", got)
	}
}

func TestAddAndRemoveOption(t *testing.T) {
	d := New()
	d.SetOption(0, "A")
	d.SetOption(1, "B")
	d.AddOption()
	d.SetOption(2, "C")
	d.AddOption()
	d.SetOption(3, "D")

	// Removing index 1 deletes exactly that slot; everything after shifts
	// up one place
	if err := d.RemoveOption(1); err != nil {
		t.Fatalf("RemoveOption failed: %v", err)
	}
	got := d.Options()
	expected := []string{"A", "C", "D"}
	if len(got) != len(expected) {
		t.Fatalf("Expected %d options, got %d: %v", len(expected), len(got), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Slot %d: expected %q, got %q", i, expected[i], got[i])
		}
	}

	// Removing the head also removes exactly one
	if err := d.RemoveOption(0); err != nil {
		t.Fatalf("RemoveOption failed: %v", err)
	}
	if got := d.Options(); len(got) != 2 || got[0] != "C" || got[1] != "D" {
		t.Errorf("Unexpected options %v", got)
	}

	// The floor holds: the last two slots cannot be removed
	if err := d.RemoveOption(0); !errors.Is(err, ErrMinOptions) {
		t.Errorf("Expected ErrMinOptions, got %v", err)
	}
	if err := d.RemoveOption(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		question string
		options  []string
		expected error
	}{
		{
			name:     "valid draft",
			question: "Lunch?",
			options:  []string{"Pizza", "Sushi"},
		},
		{
			name:     "missing question",
			question: "",
			options:  []string{"Pizza", "Sushi"},
			expected: ErrNoQuestion,
		},
		{
			name:     "whitespace question",
			question: "   ",
			options:  []string{"Pizza", "Sushi"},
			expected: ErrNoQuestion,
		},
		{
			name:     "empty slots do not count",
			question: "Lunch?",
			options:  []string{"Pizza", "  "},
			expected: ErrTooFewOptions,
		},
		{
			name:     "one option",
			question: "Lunch?",
			options:  []string{"Pizza"},
			expected: ErrTooFewOptions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			d.SetQuestion(tt.question)
			for i, opt := range tt.options {
				if i >= len(d.Options()) {
					d.AddOption()
				}
				d.SetOption(i, opt)
			}

			err := d.Validate()
			if tt.expected == nil {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	backend := testutil.StartBackend(t)
	user := backend.CreateUser(t, "alice@example.com", "hunter22")
	session := backend.IssueSession(t, user)
	data := dataapi.New(backend.Config.ServiceURL, backend.Config.APIKey, tokenFunc(session.AccessToken))

	d := New()
	d.SetQuestion("  Lunch?  ")
	d.SetOption(0, " Pizza ")
	d.SetOption(1, "Sushi")
	d.AddOption()
	// The trailing empty slot is dropped on submit

	poll, err := d.Create(context.Background(), data)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if poll.Question != "Lunch?" {
		t.Errorf("Expected trimmed question, got %q", poll.Question)
	}
	if len(poll.Options) != 2 || poll.Options[0] != "Pizza" {
		t.Errorf("Expected cleaned options, got %v", poll.Options)
	}

	// An invalid draft never reaches the backend
	bad := New()
	if _, err := bad.Create(context.Background(), data); !errors.Is(err, ErrNoQuestion) {
		t.Errorf("Expected ErrNoQuestion, got %v", err)
	}
}

// tokenFunc is a fixed-token dataapi.TokenSource.
type tokenFunc string

func (f tokenFunc) AccessToken() string { return string(f) }
