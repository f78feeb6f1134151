package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"taskward/cmd/identity"
	"taskward/cmd/internal/auth/session"
	"taskward/cmd/security/password"
	"taskward/cmd/security/token"
)

// Config carries the secrets and windows the Service needs beyond its
// collaborators. Both salts are peppers in the bcrypt sense: appended to the
// input before hashing, never stored. They must differ so that a leaked
// password table and a leaked session bucket cannot be cross-checked.
type Config struct {
	PasswordSalt string
	RefreshSalt  string
	RefreshTTL   time.Duration
}

// Service implements the high-level account and session operations:
// registration, login, logout, and refresh rotation.
type Service struct {
	log      *slog.Logger
	cfg      Config
	users    identity.Store
	sessions session.Store
	tokens   *token.Codec
	hasher   password.Config
}

// Credentials is the registration input. The password arrives in plaintext
// and is hashed here; nothing downstream of this package ever sees it.
type Credentials struct {
	Login    string
	Name     string
	Surname  string
	Password string
}

// Issued is the result of a login or a refresh rotation: a signed access
// token plus the opaque refresh token and the fingerprint that scopes it.
// RefreshToken is the only copy of the plaintext; it is not recoverable later.
type Issued struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	Fingerprint  string
}

// NewService constructs a Service. A nil logger falls back to slog.Default.
func NewService(log *slog.Logger, cfg Config, users identity.Store, sessions session.Store, tokens *token.Codec, hasher password.Config) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil {
		return nil, errors.New("auth: nil identity store")
	}
	if sessions == nil {
		return nil, errors.New("auth: nil session store")
	}
	if tokens == nil {
		return nil, errors.New("auth: nil token codec")
	}
	if cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: refresh ttl must be positive")
	}

	return &Service{
		log:      log,
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
	}, nil
}

// Register creates a new account. The login is claimed atomically; a taken
// login surfaces as identity.ErrLoginTaken. New accounts get the plain user
// role unless the caller asks otherwise.
func (s *Service) Register(ctx context.Context, creds Credentials) (identity.User, error) {
	hash, err := s.hasher.Hash(creds.Password, s.cfg.PasswordSalt)
	if err != nil {
		return identity.User{}, err
	}

	return s.users.Create(ctx, identity.CreateUserInput{
		Login:        creds.Login,
		Name:         creds.Name,
		Surname:      creds.Surname,
		PasswordHash: hash,
	})
}

// Login authenticates the password and opens a session under the given
// fingerprint. An empty fingerprint means the client could not supply one;
// a fresh value is generated and returned in Issued so the client can echo
// it on later calls.
//
// Opening a session from an unseen fingerprint counts against the per-login
// cap and may fail with session.ErrTooManySessions. A fingerprint that
// already holds a session replaces it instead.
func (s *Service) Login(ctx context.Context, now time.Time, login, pass, fingerprint string) (Issued, error) {
	u, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return Issued{}, err
	}
	if !s.hasher.Verify(pass, s.cfg.PasswordSalt, u.PasswordHash) {
		return Issued{}, ErrInvalidPassword
	}

	// Presence flag only; sessions are the source of truth for auth state.
	if err := s.users.SetLogged(ctx, login, true); err != nil {
		s.log.Warn("auth.login.set_logged.fail", "err", err, "login", login)
	}

	if fingerprint == "" {
		fingerprint, err = NewFingerprint(login)
		if err != nil {
			return Issued{}, err
		}
	}

	accessToken, accessExp, err := s.tokens.Issue(claimsFor(u), now)
	if err != nil {
		return Issued{}, err
	}

	refreshPlain, refreshHash, err := token.NewOpaqueRefreshToken(s.hasher, s.cfg.RefreshSalt)
	if err != nil {
		return Issued{}, err
	}

	rec := session.Record{
		UserID:           u.ID,
		RefreshTokenHash: refreshHash,
		ExpiresInMS:      s.cfg.RefreshTTL.Milliseconds(),
		CreatedAt:        now,
	}
	if err := s.sessions.Put(ctx, login, fingerprint, rec, true); err != nil {
		return Issued{}, err
	}

	return Issued{
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: refreshPlain,
		Fingerprint:  fingerprint,
	}, nil
}

// Logout closes the session for (login, fingerprint). Idempotent: logging
// out an absent session succeeds. Already-issued access tokens stay valid
// until they expire; only the refresh path is cut.
func (s *Service) Logout(ctx context.Context, login, fingerprint string) error {
	if err := s.users.SetLogged(ctx, login, false); err != nil {
		s.log.Warn("auth.logout.set_logged.fail", "err", err, "login", login)
	}
	return s.sessions.Delete(ctx, login, fingerprint)
}

// Reissue rotates the session for (login, fingerprint): the presented
// refresh token is spent and a fresh pair comes back. Each refresh token is
// single-use; presenting a rotated-out token fails with
// session.ErrRefreshTokenMismatch on the next attempt.
//
// Claims are rebuilt from the directory, so a role change takes effect on
// the next rotation without forcing a re-login.
func (s *Service) Reissue(ctx context.Context, now time.Time, login, presented, fingerprint string) (Issued, error) {
	u, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return Issued{}, err
	}

	if _, err := s.sessions.ValidateRefreshToken(ctx, login, fingerprint, presented); err != nil {
		return Issued{}, err
	}

	accessToken, accessExp, err := s.tokens.Issue(claimsFor(u), now)
	if err != nil {
		return Issued{}, err
	}

	refreshPlain, refreshHash, err := token.NewOpaqueRefreshToken(s.hasher, s.cfg.RefreshSalt)
	if err != nil {
		return Issued{}, err
	}

	// Replace, never merge: the old record is gone before the new one lands.
	// A concurrent rotation on the same fingerprint loses the race and gets
	// a mismatch on its next validate.
	if err := s.sessions.Delete(ctx, login, fingerprint); err != nil {
		return Issued{}, err
	}
	rec := session.Record{
		UserID:           u.ID,
		RefreshTokenHash: refreshHash,
		ExpiresInMS:      s.cfg.RefreshTTL.Milliseconds(),
		CreatedAt:        now,
	}
	// No cap check: rotation reuses the slot the login already holds.
	if err := s.sessions.Put(ctx, login, fingerprint, rec, false); err != nil {
		return Issued{}, err
	}

	return Issued{
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: refreshPlain,
		Fingerprint:  fingerprint,
	}, nil
}

func claimsFor(u identity.User) token.Claims {
	roles := make([]int16, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = int16(r)
	}
	return token.Claims{
		Login:   u.Login,
		Name:    u.Name,
		Surname: u.Surname,
		Roles:   roles,
	}
}
