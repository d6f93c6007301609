// Package team persists per-user standup state: the roster, the round-robin
// speaker pointer, the standup-active flag, and external tracker credentials.
package team

import (
	"context"
	"errors"
)

var (
	// ErrNotFound signals an out-of-bounds roster index or missing record.
	// The dialog processor branches on it to detect standup completion, so
	// stores must return it (wrapped is fine) rather than a generic error.
	ErrNotFound = errors.New("team: not found")

	// ErrUserExists is returned by CreateUser for an already-known user id.
	ErrUserExists = errors.New("team: user already exists")
)

// Provider identifies an external issue tracker integration.
type Provider string

const (
	ProviderGitHub  Provider = "github"
	ProviderTracker Provider = "tracker"
)

// Person is one roster member. ID is the insertion-order surrogate key; the
// speaker rotation visits members in ascending ID order.
type Person struct {
	ID        int64
	FirstName string
	LastName  string
	LastTheme string
}

// DisplayName returns "First [Last]" with both parts capitalized.
func (p Person) DisplayName() string {
	name := Capitalize(p.FirstName)
	if p.LastName != "" {
		name += " " + Capitalize(p.LastName)
	}
	return name
}

// Credentials is one stored tracker integration. For the GitHub provider the
// fields are login/repository/installation id; for the OAuth tracker they are
// organization/queue with Installation unused.
type Credentials struct {
	Provider     Provider
	Login        string
	Repo         string
	Installation string
}

// Repository is the per-user transactional storage contract the dialog
// processor depends on. Every method is scoped to one user id and must be
// atomic on its own; CallNextSpeaker additionally requires its read-fetch-
// increment to run as a single isolated transaction.
type Repository interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	CreateUser(ctx context.Context, userID string) error

	// GetTeam returns a roster snapshot for display; order is unspecified.
	GetTeam(ctx context.Context, userID string) ([]Person, error)
	// GetTeamMemberAt returns the member at index i in insertion order,
	// or ErrNotFound when i is out of bounds.
	GetTeamMemberAt(ctx context.Context, userID string, i int) (Person, error)
	AddTeamMember(ctx context.Context, userID string, p Person) error
	// DeleteTeamMember removes at most one member matching (first, last)
	// and reports whether a match was removed.
	DeleteTeamMember(ctx context.Context, userID string, p Person) (bool, error)
	CleanTeam(ctx context.Context, userID string) error

	StartStandup(ctx context.Context, userID string) error
	// ResetUser atomically clears the active flag, resets the speaker
	// pointer to zero and wipes every member's last theme.
	ResetUser(ctx context.Context, userID string) error
	StandupActive(ctx context.Context, userID string) (bool, error)

	// CallNextSpeaker reads the speaker pointer, fetches the member at that
	// index in insertion order and increments the pointer, all in one
	// transaction. ErrNotFound means the rotation is exhausted; the pointer
	// is left untouched in that case.
	CallNextSpeaker(ctx context.Context, userID string) (Person, error)
	// SetThemeForSpeakerAt stores a theme on the member at absolute index i
	// in insertion order; ErrNotFound when no member sits at that index.
	SetThemeForSpeakerAt(ctx context.Context, userID string, i int, theme string) error
	// SetThemeForCurrentSpeaker attaches a theme to the speaker most
	// recently called, the one at index pointer-1.
	SetThemeForCurrentSpeaker(ctx context.Context, userID string, theme string) error
	GetTeamThemes(ctx context.Context, userID string) ([]Person, error)

	Credentials(ctx context.Context, userID string, provider Provider) (Credentials, error)
	RegisterCredentials(ctx context.Context, userID string, c Credentials) error

	SetSilence(ctx context.Context, userID string, enabled bool) error
	SilenceEnabled(ctx context.Context, userID string) (bool, error)
}
