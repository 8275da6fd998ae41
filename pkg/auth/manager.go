// Package auth bridges the third-party identity provider: email/password and
// Google sign-in, token persistence, refresh, and auth-state subscriptions.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

const (
	// TokenFile stores the signed-in user's id and refresh tokens inside the
	// config directory.
	TokenFile = "token.json"

	// secureTokenURL is the provider's refresh-token exchange endpoint.
	secureTokenURL = "https://securetoken.googleapis.com/v1/token"

	// refreshLeeway refreshes the id token slightly before it expires so
	// outgoing requests never carry a just-expired credential.
	refreshLeeway = time.Minute
)

// User is the signed-in identity, nil when signed out.
type User struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Manager owns the identity-provider session for the process.
type Manager struct {
	configDir string
	apiKey    string
	svc       *identitytoolkit.Service
	tokenURL  string

	mu      sync.RWMutex
	user    *User
	subs    map[int]func(*User)
	nextSub int
}

// NewManager creates a manager using the provider API key, restoring any
// persisted session from the config directory.
func NewManager(ctx context.Context, configDir, apiKey string) (*Manager, error) {
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit service: %w", err)
	}

	m := &Manager{
		configDir: configDir,
		apiKey:    apiKey,
		svc:       svc,
		tokenURL:  secureTokenURL,
		subs:      make(map[int]func(*User)),
	}

	tokenFile := filepath.Join(configDir, TokenFile)
	if _, err := os.Stat(tokenFile); err == nil {
		user, loadErr := userFromFile(tokenFile)
		if loadErr != nil {
			log.Printf("Warning: could not restore session from %s: %v", tokenFile, loadErr)
		} else {
			m.user = user
		}
	}
	return m, nil
}

// SignUp registers a new email/password account and signs in.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*User, error) {
	resp, err := m.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrapProviderError(err)
	}
	return m.adopt(resp.IdToken, resp.RefreshToken, email)
}

// SignIn authenticates an existing email/password account.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*User, error) {
	resp, err := m.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrapProviderError(err)
	}
	return m.adopt(resp.IdToken, resp.RefreshToken, resp.Email)
}

// SignOut removes the persisted session and notifies subscribers.
func (m *Manager) SignOut() error {
	tokenFile := filepath.Join(m.configDir, TokenFile)
	if err := os.Remove(tokenFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete token file %s: %w", tokenFile, err)
	}

	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	m.notify(nil)
	return nil
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (m *Manager) CurrentUser() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// OnStateChange subscribes to auth-state changes. The callback fires
// immediately with the current state, then on every sign-in, refresh, and
// sign-out. The returned function cancels the subscription.
func (m *Manager) OnStateChange(fn func(*User)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	current := m.user
	m.mu.Unlock()

	fn(current)

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// IDToken returns a valid id token for use as a bearer credential, refreshing
// it through the secure-token endpoint when it is about to expire.
func (m *Manager) IDToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	user := m.user
	m.mu.RUnlock()

	if user == nil {
		return "", &ProviderError{Code: CodeRecentLoginNeeded, Message: "not signed in"}
	}
	if time.Until(user.ExpiresAt) > refreshLeeway {
		return user.IDToken, nil
	}
	refreshed, err := m.refresh(ctx, user)
	if err != nil {
		return "", err
	}
	return refreshed.IDToken, nil
}

// refresh exchanges the refresh token for a fresh id token.
func (m *Manager) refresh(ctx context.Context, user *User) (*User, error) {
	cfg := &oauth2.Config{
		Endpoint: oauth2.Endpoint{TokenURL: m.tokenURL + "?key=" + m.apiKey},
	}
	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: user.RefreshToken}).Token()
	if err != nil {
		return nil, wrapProviderError(err)
	}

	refreshToken := tok.RefreshToken
	if refreshToken == "" {
		refreshToken = user.RefreshToken
	}
	return m.adopt(tok.AccessToken, refreshToken, user.Email)
}

// adopt installs a new provider session: introspects the id token, persists
// it, and notifies subscribers.
func (m *Manager) adopt(idToken, refreshToken, email string) (*User, error) {
	uid, expiresAt, err := introspect(idToken)
	if err != nil {
		return nil, err
	}

	user := &User{
		UID:          uid,
		Email:        email,
		IDToken:      idToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}

	if err := saveUser(filepath.Join(m.configDir, TokenFile), user); err != nil {
		log.Printf("Warning: could not persist session token: %v", err)
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	m.notify(user)

	u := *user
	return &u, nil
}

func (m *Manager) notify(user *User) {
	m.mu.RLock()
	fns := make([]func(*User), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(user)
	}
}

// introspect reads the uid and expiry from the id token without verifying the
// signature; verification is the backend's job.
func introspect(idToken string) (uid string, expiresAt time.Time, err error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse id token: %w", err)
	}

	uid, err = claims.GetSubject()
	if err != nil || uid == "" {
		return "", time.Time{}, fmt.Errorf("id token has no subject claim")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "", time.Time{}, fmt.Errorf("id token has no expiry claim")
	}
	return uid, exp.Time, nil
}

// userFromFile reads a persisted session from a JSON file.
func userFromFile(path string) (*User, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	user := &User{}
	if err := json.NewDecoder(f).Decode(user); err != nil {
		return nil, fmt.Errorf("failed to decode token file %s: %w", path, err)
	}
	return user, nil
}

// saveUser persists the session to a JSON file readable only by the owner.
func saveUser(path string, user *User) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(user)
}
