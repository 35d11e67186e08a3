// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package draft

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/danielhkuo/pollpocket/dataapi"
	"github.com/danielhkuo/pollpocket/models"
)

// MinOptions is the smallest number of options a poll may have.
const MinOptions = 2

var (
	ErrNoQuestion      = errors.New("question is required")
	ErrTooFewOptions   = errors.New("at least 2 non-empty options are required")
	ErrIndexOutOfRange = errors.New("option index out of range")
	ErrMinOptions      = errors.New("a poll keeps at least 2 option slots")
)

// Draft is an in-progress poll. It starts with two empty option slots, the
// minimum a poll may have.
type Draft struct {
	question string
	options  []string
}

func New() *Draft {
	return &Draft{options: make([]string, MinOptions)}
}

func (d *Draft) SetQuestion(question string) {
	d.question = question
}

func (d *Draft) Question() string {
	return d.question
}

// Options returns a copy of the option slots, empty ones included.
func (d *Draft) Options() []string {
	return slices.Clone(d.options)
}

// AddOption appends an empty option slot.
func (d *Draft) AddOption() {
	d.options = append(d.options, "")
}

// SetOption writes the text of one option slot.
func (d *Draft) SetOption(i int, text string) error {
	if i < 0 || i >= len(d.options) {
		return ErrIndexOutOfRange
	}
	d.options[i] = text
	return nil
}

// RemoveOption deletes exactly the targeted slot, shifting later slots up.
// The last two slots cannot be removed.
func (d *Draft) RemoveOption(i int) error {
	if i < 0 || i >= len(d.options) {
		return ErrIndexOutOfRange
	}
	if len(d.options) <= MinOptions {
		return ErrMinOptions
	}
	d.options = slices.Delete(d.options, i, i+1)
	return nil
}

// Validate checks that the draft describes a submittable poll.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.question) == "" {
		return ErrNoQuestion
	}
	if len(d.cleanOptions()) < MinOptions {
		return ErrTooFewOptions
	}
	return nil
}

// Create validates the draft and submits it, returning the server-assigned
// poll.
func (d *Draft) Create(ctx context.Context, data *dataapi.Client) (*models.Poll, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	poll, err := data.CreatePoll(ctx, strings.TrimSpace(d.question), d.cleanOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}
	return poll, nil
}

// cleanOptions drops empty slots and trims the rest, preserving order.
func (d *Draft) cleanOptions() []string {
	clean := make([]string, 0, len(d.options))
	for _, opt := range d.options {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	return clean
}
