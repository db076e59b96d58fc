package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	httpserver "foodfinder/internal/adapters/http_server"
	"foodfinder/internal/app"
	"foodfinder/internal/domain"
	"foodfinder/internal/mapview"
)

// ---- fakes ----

type memCreds struct {
	rows map[string]domain.Credential
}

func (m *memCreds) InsertCredential(ctx context.Context, c domain.Credential) error {
	m.rows[c.Email] = c
	return nil
}
func (m *memCreds) FindCredential(ctx context.Context, email string) (domain.Credential, error) {
	c, ok := m.rows[email]
	if !ok {
		return domain.Credential{}, domain.ErrNotFound
	}
	return c, nil
}
func (m *memCreds) EmailExists(ctx context.Context, email string) (bool, error) {
	_, ok := m.rows[email]
	return ok, nil
}

type memSessions struct {
	store map[string]domain.Session
}

func (m *memSessions) Put(ctx context.Context, s domain.Session, ttlSec int) error {
	m.store[s.Token] = s
	return nil
}
func (m *memSessions) Get(ctx context.Context, token string) (domain.Session, error) {
	s, ok := m.store[token]
	if !ok {
		return domain.Session{}, domain.ErrNoSession
	}
	return s, nil
}
func (m *memSessions) Del(ctx context.Context, token string) error {
	delete(m.store, token)
	return nil
}

type memLoader struct{ recs []domain.RestaurantRecord }

func (l memLoader) Load(ctx context.Context) ([]domain.RestaurantRecord, error) {
	return l.recs, nil
}

type stubDirections struct{}

func (stubDirections) DrivingRoute(ctx context.Context, origin, dest domain.Coords) (domain.Route, error) {
	return domain.Route{}, domain.ErrNoRoute
}

func newTestServer(t *testing.T) (*httptest.Server, *memSessions) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	creds := &memCreds{rows: map[string]domain.Credential{
		"a@x.com": {Email: "a@x.com", Username: "ana", PasswordHash: string(hash)},
	}}
	sessions := &memSessions{store: map[string]domain.Session{}}

	loader := memLoader{recs: []domain.RestaurantRecord{
		{Title: "Pho A", Longitude: 106.70, Latitude: 10.77},
		{Title: "Banh Mi B", Longitude: 106.68, Latitude: 10.80},
	}}

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{
		Auth:     app.NewAuthService(creds, sessions, time.Hour),
		Sessions: sessions,
		Views:    mapview.NewRegistry(loader, stubDirections{}),
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, sessions
}

func postJSON(t *testing.T, url string, v any, token string) *http.Response {
	t.Helper()
	b, _ := json.Marshal(v)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func decodeProblem(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var p struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	return p.Detail
}

// ---- tests ----

func TestLogin_WrongPassword_NoSessionNoCookie(t *testing.T) {
	ts, sessions := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/auth/login", map[string]string{
		"email": "a@x.com", "password": "wrong",
	}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if got := decodeProblem(t, resp); got != "Invalid username or password!" {
		t.Fatalf("unexpected message %q", got)
	}
	if len(resp.Cookies()) != 0 {
		t.Fatalf("failed login must not set a cookie")
	}
	if len(sessions.store) != 0 {
		t.Fatalf("failed login must not create a session")
	}
}

func TestLogin_Success_SetsCookieAndSession(t *testing.T) {
	ts, sessions := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/auth/login", map[string]string{
		"email": "a@x.com", "password": "right",
	}, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var body struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Username != "ana" || body.Token == "" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if _, ok := sessions.store[body.Token]; !ok {
		t.Fatalf("session not stored")
	}
	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == httpserver.SessionCookie && c.Value == body.Token {
			found = true
		}
	}
	if !found {
		t.Fatalf("session cookie not set")
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/auth/signup", map[string]string{
		"username": "ana2", "email": "a@x.com",
		"password": "pw", "confirmPassword": "pw",
	}, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if got := decodeProblem(t, resp); got != "Email existed! Please try with another email" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestSignup_PasswordMismatch(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/auth/signup", map[string]string{
		"username": "bob", "email": "b@x.com",
		"password": "pw1", "confirmPassword": "pw2",
	}, "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if got := decodeProblem(t, resp); got != "Password does not match!" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestMapRoutes_RequireSession(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/map")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated map access must 401, got %d", resp.StatusCode)
	}
}

func TestMapFlow_LoginSearchLogout(t *testing.T) {
	ts, _ := newTestServer(t)

	// login
	resp := postJSON(t, ts.URL+"/v1/auth/login", map[string]string{
		"email": "a@x.com", "password": "right",
	}, "")
	var login struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()

	// view state carries the dataset and the username
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/map", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get map: %v", err)
	}
	var state struct {
		Username    string `json:"username"`
		Restaurants struct {
			Features []json.RawMessage `json:"features"`
		} `json:"restaurants"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	resp.Body.Close()
	if state.Username != "ana" || len(state.Restaurants.Features) != 2 {
		t.Fatalf("unexpected state: %+v", state)
	}

	// search selects the first match
	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/v1/map/search?q=pho", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var sr struct {
		Matches []struct {
			Title string `json:"title"`
		} `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	resp.Body.Close()
	if len(sr.Matches) != 1 || sr.Matches[0].Title != "Pho A" {
		t.Fatalf("unexpected matches: %+v", sr.Matches)
	}

	// logout tears the session and the view down
	resp = postJSON(t, ts.URL+"/v1/auth/logout", nil, login.Token)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status: %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/v1/map", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get map: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("map access after logout must 401, got %d", resp.StatusCode)
	}
}
