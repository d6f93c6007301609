package tracker

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alekspetrov/standup/internal/team"
)

func testApp(t *testing.T) GitHubApp {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return GitHubApp{AppID: "109929", Key: key}
}

func testCreds() team.Credentials {
	return team.Credentials{
		Provider:     team.ProviderGitHub,
		Login:        "octocat",
		Repo:         "hello",
		Installation: "77",
	}
}

// newGitHubServer fakes the token-exchange and issues endpoints, counting
// token exchanges so tests can assert on caching.
func newGitHubServer(t *testing.T, issues []map[string]interface{}) (*httptest.Server, *int) {
	t.Helper()
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("POST /app/installations/77/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Errorf("token exchange missing app assertion, got %q", r.Header.Get("Authorization"))
		}
		tokenCalls++
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "inst-token"})
	})
	mux.HandleFunc("GET /repos/octocat/hello/issues", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "token inst-token" {
			t.Errorf("issues request auth = %q, want installation token", got)
		}
		_ = json.NewEncoder(w).Encode(issues)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &tokenCalls
}

func newTestRegistry(app GitHubApp, baseURL string) *Registry {
	reg := NewRegistry(app)
	reg.githubBaseURL = baseURL
	return reg
}

func TestGitHubListIssuesExcludesPullRequests(t *testing.T) {
	srv, _ := newGitHubServer(t, []map[string]interface{}{
		{"number": 3, "title": "Fix the bug"},
		{"number": 4, "title": "A pull request", "pull_request": map[string]string{}},
		{"number": 5, "title": "Add a feature"},
	})
	reg := newTestRegistry(testApp(t), srv.URL)

	tr, err := reg.For(team.ProviderGitHub, testCreds(), "")
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	lines, err := tr.ListIssues(context.Background())
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}

	want := []string{"3: Fix the bug", "5: Add a feature"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestGitHubListIssuesTruncated(t *testing.T) {
	var issues []map[string]interface{}
	for i := 1; i <= 15; i++ {
		issues = append(issues, map[string]interface{}{"number": i, "title": "issue"})
	}
	srv, _ := newGitHubServer(t, issues)
	reg := newTestRegistry(testApp(t), srv.URL)

	tr, _ := reg.For(team.ProviderGitHub, testCreds(), "")
	lines, err := tr.ListIssues(context.Background())
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(lines) != maxListedIssues {
		t.Errorf("len = %d, want %d", len(lines), maxListedIssues)
	}
}

func TestGitHubInstallationTokenCached(t *testing.T) {
	srv, tokenCalls := newGitHubServer(t, nil)
	reg := newTestRegistry(testApp(t), srv.URL)

	tr, _ := reg.For(team.ProviderGitHub, testCreds(), "")
	ctx := context.Background()
	if _, err := tr.ListIssues(ctx); err != nil {
		t.Fatalf("first ListIssues: %v", err)
	}
	if _, err := tr.ListIssues(ctx); err != nil {
		t.Fatalf("second ListIssues: %v", err)
	}

	if *tokenCalls != 1 {
		t.Errorf("token exchanges = %d, want 1 (cached)", *tokenCalls)
	}
}

func TestGitHubCloseIssue(t *testing.T) {
	var patched struct {
		path string
		body map[string]string
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /app/installations/77/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "inst-token"})
	})
	mux.HandleFunc("PATCH /repos/octocat/hello/issues/12", func(w http.ResponseWriter, r *http.Request) {
		patched.path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&patched.body)
		_ = json.NewEncoder(w).Encode(map[string]string{"state": "closed"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	reg := newTestRegistry(testApp(t), srv.URL)
	tr, _ := reg.For(team.ProviderGitHub, testCreds(), "")
	if err := tr.CloseIssue(context.Background(), 12); err != nil {
		t.Fatalf("CloseIssue: %v", err)
	}
	if patched.path != "/repos/octocat/hello/issues/12" {
		t.Errorf("patched path = %q", patched.path)
	}
	if patched.body["state"] != "closed" {
		t.Errorf("patch body = %v, want state closed", patched.body)
	}
}

func TestGitHubRemoteFailureIsOpaque(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg := newTestRegistry(testApp(t), srv.URL)
	tr, _ := reg.For(team.ProviderGitHub, testCreds(), "")
	_, err := tr.ListIssues(context.Background())
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("err = %v, want ErrRequestFailed", err)
	}
}

func TestGitHubWithoutAppKeyFails(t *testing.T) {
	reg := NewRegistry(GitHubApp{})
	if _, err := reg.For(team.ProviderGitHub, testCreds(), ""); err == nil {
		t.Error("expected an error when the app key is not configured")
	}
}
