package oauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// fakeProvider serves a token and a profile endpoint and records the token
// requests it received.
type fakeProvider struct {
	mu       sync.Mutex
	requests []url.Values

	tokenStatus   int
	tokenBody     map[string]interface{}
	profileStatus int
	profileBody   string
	bearer        string

	// When tokenGate is set, token requests announce themselves on
	// tokenSeen and block until the gate is closed.
	tokenGate chan struct{}
	tokenSeen chan struct{}

	server *httptest.Server
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{
		tokenStatus: http.StatusOK,
		tokenBody: map[string]interface{}{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    604800,
		},
		profileStatus: http.StatusOK,
		profileBody:   `{"id":"80351110224678912","username":"nelly","avatar":"8342729096ea3675442027381ff50dfe"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.mu.Lock()
		p.requests = append(p.requests, r.PostForm)
		status, body := p.tokenStatus, p.tokenBody
		gate, seen := p.tokenGate, p.tokenSeen
		p.mu.Unlock()

		if gate != nil {
			seen <- struct{}{}
			<-gate
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.bearer = r.Header.Get("Authorization")
		status, body := p.profileStatus, p.profileBody
		p.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) config() ProviderConfig {
	return ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      p.server.URL + "/authorize",
		TokenURL:     p.server.URL + "/token",
		ProfileURL:   p.server.URL + "/users/@me",
		RedirectURL:  "http://localhost:1887",
		Scopes:       []string{DefaultScope},
	}
}

func (p *fakeProvider) lastRequest() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	return p.requests[len(p.requests)-1]
}

func (p *fakeProvider) lastBearer() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bearer
}
