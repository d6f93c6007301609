package tracker

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alekspetrov/standup/internal/team"
)

const (
	githubAPIURL    = "https://api.github.com"
	maxListedIssues = 10
)

// GitHubApp is the application identity used to mint installation tokens.
type GitHubApp struct {
	AppID string
	Key   *rsa.PrivateKey
}

// LoadGitHubApp reads an RS256 private key in PEM form from keyPath.
func LoadGitHubApp(appID, keyPath string) (GitHubApp, error) {
	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return GitHubApp{}, fmt.Errorf("read github app key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return GitHubApp{}, fmt.Errorf("parse github app key: %w", err)
	}
	return GitHubApp{AppID: appID, Key: key}, nil
}

// gitHubTracker talks to the GitHub REST API for one login/repo/installation
// triple, authenticating with short-lived installation tokens.
type gitHubTracker struct {
	app          GitHubApp
	login        string
	repo         string
	installation string
	httpClient   *http.Client
	baseURL      string
	tokens       *tokenCache
}

func (r *Registry) newGitHub(creds team.Credentials) (Tracker, error) {
	if r.github.Key == nil {
		return nil, fmt.Errorf("tracker: github app key not configured")
	}
	baseURL := r.githubBaseURL
	if baseURL == "" {
		baseURL = githubAPIURL
	}
	return &gitHubTracker{
		app:          r.github,
		login:        creds.Login,
		repo:         creds.Repo,
		installation: creds.Installation,
		httpClient:   r.httpClient,
		baseURL:      baseURL,
		tokens:       r.tokens,
	}, nil
}

// appJWT signs a short-lived application assertion: issued a minute in the
// past to absorb clock skew, valid for ten minutes.
func (g *gitHubTracker) appJWT() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		Issuer:    g.app.AppID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(g.app.Key)
}

// installationToken exchanges the app assertion for an installation access
// token, caching it per installation id.
func (g *gitHubTracker) installationToken(ctx context.Context) (string, error) {
	cacheKey := "github:" + g.installation
	if token, ok := g.tokens.get(cacheKey); ok {
		return token, nil
	}

	assertion, err := g.appJWT()
	if err != nil {
		return "", fmt.Errorf("sign app jwt: %w", err)
	}

	url := fmt.Sprintf("%s/app/installations/%s/access_tokens", g.baseURL, g.installation)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+assertion)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		slog.Warn("github token exchange failed", "installation", g.installation, "error", err)
		return "", ErrRequestFailed
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		slog.Warn("github token exchange rejected",
			"installation", g.installation,
			"status", resp.StatusCode,
			"body", string(body))
		return "", ErrRequestFailed
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", ErrRequestFailed
	}

	g.tokens.put(cacheKey, payload.Token)
	return payload.Token, nil
}

type githubIssue struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	PullRequest *struct{} `json:"pull_request,omitempty"`
}

// ListIssues returns open issues in the platform's default order, pull
// requests excluded, truncated to maxListedIssues.
func (g *gitHubTracker) ListIssues(ctx context.Context) ([]string, error) {
	var issues []githubIssue
	path := fmt.Sprintf("/repos/%s/%s/issues", g.login, g.repo)
	if err := g.doRequest(ctx, http.MethodGet, path, nil, &issues); err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(issues))
	for _, issue := range issues {
		if issue.PullRequest != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d: %s", issue.Number, issue.Title))
		if len(lines) == maxListedIssues {
			break
		}
	}
	return lines, nil
}

// CloseIssue closes the issue by number.
func (g *gitHubTracker) CloseIssue(ctx context.Context, number int) error {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", g.login, g.repo, number)
	body := map[string]string{"state": "closed"}
	return g.doRequest(ctx, http.MethodPatch, path, body, nil)
}

// doRequest performs an authenticated request against the REST API. Any
// remote failure collapses to ErrRequestFailed; details go to the log only.
func (g *gitHubTracker) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	token, err := g.installationToken(ctx)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "token "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		slog.Warn("github request failed", "method", method, "path", path, "error", err)
		return ErrRequestFailed
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrRequestFailed
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("github request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"body", string(respBody))
		return ErrRequestFailed
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return ErrRequestFailed
		}
	}
	return nil
}
