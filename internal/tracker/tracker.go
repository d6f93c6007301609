// Package tracker integrates external issue trackers behind one small
// capability set: list open issues and close an issue by number. Two
// providers exist, a GitHub-App-token one and an OAuth one for Yandex
// Tracker; the dialog processor selects between them by the command's
// declared provider, never by implementation type.
package tracker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alekspetrov/standup/internal/team"
)

var (
	// ErrRequestFailed is the single opaque condition every remote failure
	// collapses to. Callers present it to the user with the configured
	// identifiers; status codes and transport details stay in the logs.
	ErrRequestFailed = errors.New("tracker: request failed")

	// ErrNoToken means the OAuth provider has no access token because the
	// user has not completed account linking. Distinct from missing queue
	// configuration so the caller can start the linking flow.
	ErrNoToken = errors.New("tracker: no access token")
)

// Tracker is the capability set the dialog processor relies on.
type Tracker interface {
	// ListIssues returns open issues as "<number>: <title>" lines, pull
	// requests excluded, truncated to a small fixed count.
	ListIssues(ctx context.Context) ([]string, error)
	// CloseIssue closes the issue with the given number.
	CloseIssue(ctx context.Context, number int) error
}

// Registry builds the right Tracker for a provider and stored credentials.
type Registry struct {
	github     GitHubApp
	httpClient *http.Client
	tokens     *tokenCache

	// test hooks
	githubBaseURL string
	yandexBaseURL string
}

// NewRegistry creates a registry. app carries the GitHub App identity used
// to mint installation tokens; it may be zero when GitHub commands are not
// configured, in which case building a GitHub tracker fails.
func NewRegistry(app GitHubApp) *Registry {
	return &Registry{
		github:     app,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     newTokenCache(10, 10*time.Minute),
	}
}

// For resolves a Tracker for the provider using the user's stored
// credentials and, for the OAuth provider, the turn's access token.
func (r *Registry) For(provider team.Provider, creds team.Credentials, accessToken string) (Tracker, error) {
	switch provider {
	case team.ProviderGitHub:
		return r.newGitHub(creds)
	case team.ProviderTracker:
		if accessToken == "" {
			return nil, ErrNoToken
		}
		return r.newYandex(creds, accessToken), nil
	default:
		return nil, errors.New("tracker: unknown provider " + string(provider))
	}
}
