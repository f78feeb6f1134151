package authapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"taskward/cmd/identity"
	"taskward/cmd/internal/auth"
	"taskward/cmd/internal/auth/session"
	"taskward/cmd/security/password"
	"taskward/cmd/security/token"
)

// ---- in-memory stores ----

type memUsers struct {
	byLogin map[string]identity.User
	nextID  int64
}

func (m *memUsers) Create(_ context.Context, in identity.CreateUserInput) (identity.User, error) {
	if _, ok := m.byLogin[in.Login]; ok {
		return identity.User{}, identity.ErrLoginTaken
	}
	m.nextID++
	u := identity.User{
		ID:           m.nextID,
		Login:        in.Login,
		Name:         in.Name,
		Surname:      in.Surname,
		PasswordHash: in.PasswordHash,
		Roles:        []identity.Role{identity.RoleUser},
	}
	m.byLogin[in.Login] = u
	return u, nil
}

func (m *memUsers) GetByLogin(_ context.Context, login string) (identity.User, error) {
	u, ok := m.byLogin[login]
	if !ok {
		return identity.User{}, identity.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) SetLogged(_ context.Context, login string, logged bool) error {
	if u, ok := m.byLogin[login]; ok {
		u.Logged = logged
		m.byLogin[login] = u
	}
	return nil
}

type memSessions struct {
	hasher  password.Config
	salt    string
	max     int
	buckets map[string]map[string]session.Record
}

func (m *memSessions) Put(_ context.Context, login, fingerprint string, rec session.Record, enforceCap bool) error {
	b := m.buckets[login]
	if b == nil {
		b = make(map[string]session.Record)
		m.buckets[login] = b
	}
	if enforceCap {
		if _, known := b[fingerprint]; !known && len(b) >= m.max {
			return session.ErrTooManySessions
		}
	}
	b[fingerprint] = rec
	return nil
}

func (m *memSessions) ValidateRefreshToken(_ context.Context, login, fingerprint, plaintext string) (session.Record, error) {
	rec, ok := m.buckets[login][fingerprint]
	if !ok {
		return session.Record{}, session.ErrSessionNotFound
	}
	if !m.hasher.Verify(plaintext, m.salt, rec.RefreshTokenHash) {
		return session.Record{}, session.ErrRefreshTokenMismatch
	}
	if rec.Expired(time.Now().UTC()) {
		return session.Record{}, session.ErrRefreshTokenExpired
	}
	return rec, nil
}

func (m *memSessions) Delete(_ context.Context, login, fingerprint string) error {
	delete(m.buckets[login], fingerprint)
	return nil
}

// ---- harness ----

const testSecret = "api-test-signing-secret"

type api struct {
	mux    *http.ServeMux
	tokens *token.Codec
}

func newAPI(t *testing.T) api {
	t.Helper()

	hasher := password.Config{Cost: bcrypt.MinCost}
	users := &memUsers{byLogin: make(map[string]identity.User)}
	sessions := &memSessions{
		hasher:  hasher,
		salt:    "refresh-salt",
		max:     session.DefaultMaxSessions,
		buckets: make(map[string]map[string]session.Record),
	}

	tokens, err := token.NewCodec(testSecret, 30*time.Minute)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	svc, err := auth.NewService(nil, auth.Config{
		PasswordSalt: "password-salt",
		RefreshSalt:  "refresh-salt",
		RefreshTTL:   48 * time.Hour,
	}, users, sessions, tokens, hasher)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	h, err := NewHandler(nil, Config{MaxBodyBytes: 1 << 20}, svc, tokens)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	mux := http.NewServeMux()
	h.Register(mux)
	mux.Handle("/protected", h.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]string{"login": claims.Login})
	})))

	return api{mux: mux, tokens: tokens}
}

func (a api) postForm(t *testing.T, path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func (a api) register(t *testing.T, login, pass string) *httptest.ResponseRecorder {
	t.Helper()
	return a.postForm(t, "/auth/register", url.Values{
		"login":    {login},
		"name":     {"Nora"},
		"surname":  {"Sato"},
		"password": {pass},
	}, nil)
}

func (a api) login(t *testing.T, login, pass, fingerprint string) *httptest.ResponseRecorder {
	t.Helper()
	headers := map[string]string{}
	if fingerprint != "" {
		headers[HeaderFingerprint] = fingerprint
	}
	return a.postForm(t, "/auth/login", url.Values{
		"username": {login},
		"password": {pass},
	}, headers)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

// ---- tests ----

func TestRegister_OK(t *testing.T) {
	a := newAPI(t)

	rec := a.register(t, "nora", "pw-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var u userResponse
	decodeBody(t, rec, &u)
	if u.ID == 0 || u.Login != "nora" {
		t.Fatalf("unexpected user response: %+v", u)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("register response must not leak password material: %s", rec.Body.String())
	}
}

func TestRegister_DuplicateLogin(t *testing.T) {
	a := newAPI(t)
	a.register(t, "nora", "pw-1")

	rec := a.register(t, "nora", "pw-2")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: status = %d, want 400", rec.Code)
	}
}

func TestLogin_Statuses(t *testing.T) {
	a := newAPI(t)
	a.register(t, "nora", "pw-1")

	if rec := a.login(t, "ghost", "pw-1", "fp-1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown user: status = %d, want 400", rec.Code)
	}
	if rec := a.login(t, "nora", "wrong", "fp-1"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d, want 401", rec.Code)
	}

	for i := 0; i < session.DefaultMaxSessions; i++ {
		fp := "fp-" + strings.Repeat("x", i+1)
		if rec := a.login(t, "nora", "pw-1", fp); rec.Code != http.StatusOK {
			t.Fatalf("login %d: status = %d, body = %s", i, rec.Code, rec.Body.String())
		}
	}
	if rec := a.login(t, "nora", "pw-1", "fp-one-too-many"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over cap: status = %d, want 429", rec.Code)
	}
}

func TestLogin_ResponseShape(t *testing.T) {
	a := newAPI(t)
	a.register(t, "nora", "pw-1")

	rec := a.login(t, "nora", "pw-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	decodeBody(t, rec, &resp)
	if resp.TokenType != "Bearer" {
		t.Fatalf("token_type = %q, want Bearer", resp.TokenType)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("missing tokens: %+v", resp)
	}
	if len(resp.Fingerprint) != 64 {
		t.Fatalf("server-generated fingerprint must be returned, got %q", resp.Fingerprint)
	}
	if resp.LoggedAt.IsZero() {
		t.Fatalf("logged_at must be set")
	}
}

func TestScenario_RegisterLoginReissue(t *testing.T) {
	a := newAPI(t)
	a.register(t, "u1", "p1")

	loginRec := a.login(t, "u1", "p1", "fp-1")
	if loginRec.Code != http.StatusOK {
		t.Fatalf("login: status = %d", loginRec.Code)
	}
	var first loginResponse
	decodeBody(t, loginRec, &first)

	headers := map[string]string{
		HeaderRefreshToken: first.RefreshToken,
		HeaderFingerprint:  "fp-1",
	}
	rec := a.postForm(t, "/auth/reissue-tokens/u1", url.Values{}, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("reissue: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var second reissueResponse
	decodeBody(t, rec, &second)
	if second.Login != "u1" || second.TokenType != "Bearer" {
		t.Fatalf("unexpected reissue response: %+v", second)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("rotation must mint a new refresh token")
	}

	// The spent plaintext is dead: constant 401 shape.
	stale := a.postForm(t, "/auth/reissue-tokens/u1", url.Values{}, headers)
	if stale.Code != http.StatusUnauthorized {
		t.Fatalf("stale reissue: status = %d, want 401", stale.Code)
	}

	// Wrong fingerprint is the same constant 401.
	rec = a.postForm(t, "/auth/reissue-tokens/u1", url.Values{}, map[string]string{
		HeaderRefreshToken: second.RefreshToken,
		HeaderFingerprint:  "fp-stolen",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong fingerprint: status = %d, want 401", rec.Code)
	}
	if rec.Body.String() != stale.Body.String() {
		t.Fatalf("validation failures must share one shape: %q vs %q", rec.Body.String(), stale.Body.String())
	}
}

func TestGate_UniformUnauthorized(t *testing.T) {
	a := newAPI(t)

	// An expired but genuinely signed token.
	expired, _, err := a.tokens.Issue(token.Claims{Login: "nora"}, time.Now().UTC().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	responses := make([]*httptest.ResponseRecorder, 0, 2)
	for _, tok := range []string{expired, "not.a.token"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		a.mux.ServeHTTP(rec, req)
		responses = append(responses, rec)
	}

	for i, rec := range responses {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("case %d: status = %d, want 401", i, rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("case %d: missing WWW-Authenticate header", i)
		}
	}
	if responses[0].Body.String() != responses[1].Body.String() {
		t.Fatalf("expired and forged tokens must be indistinguishable: %q vs %q",
			responses[0].Body.String(), responses[1].Body.String())
	}
}

func TestLogout_AccessTokenSurvives(t *testing.T) {
	a := newAPI(t)
	a.register(t, "nora", "pw-1")

	loginRec := a.login(t, "nora", "pw-1", "fp-1")
	var issued loginResponse
	decodeBody(t, loginRec, &issued)

	headers := map[string]string{
		"Authorization":   "Bearer " + issued.AccessToken,
		HeaderFingerprint: "fp-1",
	}
	rec := a.postForm(t, "/auth/logout", url.Values{}, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out logoutResponse
	decodeBody(t, rec, &out)
	if out.User != "nora" || out.Status != "logged out" {
		t.Fatalf("unexpected logout response: %+v", out)
	}

	// The refresh path is cut...
	stale := a.postForm(t, "/auth/reissue-tokens/nora", url.Values{}, map[string]string{
		HeaderRefreshToken: issued.RefreshToken,
		HeaderFingerprint:  "fp-1",
	})
	if stale.Code != http.StatusUnauthorized {
		t.Fatalf("reissue after logout: status = %d, want 401", stale.Code)
	}

	// ...but already-issued access tokens ride out their natural expiry.
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issued.AccessToken)
	protected := httptest.NewRecorder()
	a.mux.ServeHTTP(protected, req)
	if protected.Code != http.StatusOK {
		t.Fatalf("protected after logout: status = %d, want 200", protected.Code)
	}
}

func TestLogout_RequiresBearer(t *testing.T) {
	a := newAPI(t)

	rec := a.postForm(t, "/auth/logout", url.Values{}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing bearer: status = %d, want 401", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	a := newAPI(t)

	for _, path := range []string{"/auth/register", "/auth/login", "/auth/logout", "/auth/reissue-tokens/u1"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		a.mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: status = %d, want 405", path, rec.Code)
		}
	}
}
