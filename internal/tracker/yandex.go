package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/alekspetrov/standup/internal/team"
)

const yandexAPIURL = "https://api.tracker.yandex.net"

// yandexTracker talks to the Yandex Tracker REST API with a user-supplied
// OAuth token scoped to one organization/queue pair.
type yandexTracker struct {
	token      string
	org        string
	queue      string
	httpClient *http.Client
	baseURL    string
}

func (r *Registry) newYandex(creds team.Credentials, accessToken string) Tracker {
	baseURL := r.yandexBaseURL
	if baseURL == "" {
		baseURL = yandexAPIURL
	}
	// For the tracker provider the stored credentials hold the
	// organization in Login and the queue in Repo.
	return &yandexTracker{
		token:      accessToken,
		org:        creds.Login,
		queue:      creds.Repo,
		httpClient: r.httpClient,
		baseURL:    baseURL,
	}
}

type yandexIssue struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
}

// ListIssues searches the configured queue and returns "<key>: <summary>"
// lines, truncated to maxListedIssues.
func (y *yandexTracker) ListIssues(ctx context.Context) ([]string, error) {
	search := map[string]interface{}{
		"filter": map[string]string{"queue": y.queue},
	}

	var issues []yandexIssue
	path := fmt.Sprintf("/v2/issues/_search?perPage=%d", maxListedIssues)
	if err := y.doRequest(ctx, http.MethodPost, path, search, &issues); err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(issues))
	for _, issue := range issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Key, issue.Summary))
		if len(lines) == maxListedIssues {
			break
		}
	}
	return lines, nil
}

// CloseIssue executes the close transition on "<queue>-<number>".
func (y *yandexTracker) CloseIssue(ctx context.Context, number int) error {
	body := map[string]string{
		"comment":    "Закрыто из Алисы",
		"resolution": "fixed",
	}
	path := fmt.Sprintf("/v2/issues/%s-%d/transitions/close/_execute", y.queue, number)
	return y.doRequest(ctx, http.MethodPost, path, body, nil)
}

func (y *yandexTracker) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "OAuth "+y.token)
	req.Header.Set("X-Org-ID", y.org)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		slog.Warn("tracker request failed", "method", method, "path", path, "error", err)
		return ErrRequestFailed
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrRequestFailed
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("tracker request rejected",
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

var _ Tracker = (*yandexTracker)(nil)
