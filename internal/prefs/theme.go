// Package prefs keeps user interface preferences next to the session tokens.
package prefs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nkiryanov/ytsummarizer/internal/session"
)

// Storage key of the dark mode flag. Value is "true" or "false".
const KeyDarkMode = "darkMode"

type Theme struct {
	store session.Store
}

func NewTheme(store session.Store) *Theme {
	return &Theme{store: store}
}

// DarkMode reports whether dark mode is on. Unset or unknown value means off.
func (t *Theme) DarkMode(ctx context.Context) (bool, error) {
	value, found, err := t.store.Get(ctx, KeyDarkMode)
	if err != nil {
		return false, fmt.Errorf("failed to read dark mode: %w", err)
	}
	if !found {
		return false, nil
	}

	on, err := strconv.ParseBool(value)
	if err != nil {
		return false, nil
	}
	return on, nil
}

func (t *Theme) SetDarkMode(ctx context.Context, on bool) error {
	if err := t.store.Set(ctx, KeyDarkMode, strconv.FormatBool(on)); err != nil {
		return fmt.Errorf("failed to save dark mode: %w", err)
	}
	return nil
}

// ToggleDarkMode flips dark mode and returns the new state
func (t *Theme) ToggleDarkMode(ctx context.Context) (bool, error) {
	on, err := t.DarkMode(ctx)
	if err != nil {
		return false, err
	}

	if err := t.SetDarkMode(ctx, !on); err != nil {
		return on, err
	}
	return !on, nil
}
