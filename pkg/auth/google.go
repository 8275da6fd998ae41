package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/identitytoolkit/v3"
)

const (
	// ClientSecretsFile is the downloaded Google OAuth credentials.json,
	// expected inside the config directory.
	ClientSecretsFile = "credentials.json"

	// LocalhostAuthPort is the port the local redirect catcher listens on.
	// The OAuth client's redirect URI must point at it.
	LocalhostAuthPort = "6789"

	// authFlowTimeout bounds how long we wait for the user to finish the
	// browser flow before treating it as an abandoned popup.
	authFlowTimeout = 5 * time.Minute
)

// SignInWithGoogle runs the browser-based Google OAuth flow, exchanges the
// resulting Google credential with the identity provider, and signs in.
func (m *Manager) SignInWithGoogle(ctx context.Context) (*User, error) {
	cfg, err := m.googleOAuthConfig()
	if err != nil {
		return nil, err
	}

	googleToken, err := tokenFromWeb(ctx, cfg)
	if err != nil {
		return nil, err
	}

	googleIDToken, _ := googleToken.Extra("id_token").(string)
	if googleIDToken == "" {
		return nil, &ProviderError{Code: CodeInvalidCredential, Message: "google token exchange returned no id token"}
	}

	resp, err := m.svc.Relyingparty.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          "id_token=" + googleIDToken + "&providerId=google.com",
		RequestUri:        cfg.RedirectURL,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrapProviderError(err)
	}
	return m.adopt(resp.IdToken, resp.RefreshToken, resp.Email)
}

// googleOAuthConfig reads the client secrets file and forces the redirect to
// our localhost catcher port.
func (m *Manager) googleOAuthConfig() (*oauth2.Config, error) {
	secretsFile := filepath.Join(m.configDir, ClientSecretsFile)
	b, err := os.ReadFile(secretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", secretsFile, err)
	}

	cfg, err := google.ConfigFromJSON(b, "openid", "email", "profile")
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	redirect := &url.URL{Scheme: "http", Host: "localhost:" + LocalhostAuthPort, Path: "/oauth2callback"}
	cfg.RedirectURL = redirect.String()
	return cfg, nil
}

// tokenFromWeb initiates the OAuth 2.0 authorization code flow via a local web
// server that captures the redirect.
func tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string)
	errCh := make(chan error)

	listener, err := net.Listen("tcp", ":"+LocalhostAuthPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				errCh <- &ProviderError{Code: CodePopupClosed, Message: "authorization code not found in redirect URL"}
				return
			}
			fmt.Fprintf(w, "Sign-in successful! You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", serveErr)
		}
	}()

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Please open the following URL in your browser to sign in:\n%s\n", authURL)

	select {
	case authCode := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exchangeCtx, authCode)
		if err != nil {
			return nil, wrapProviderError(fmt.Errorf("unable to retrieve token from Google: %w", err))
		}
		server.Shutdown(exchangeCtx)
		return tok, nil
	case flowErr := <-errCh:
		return nil, flowErr
	case <-ctx.Done():
		server.Shutdown(context.Background())
		return nil, ctx.Err()
	case <-time.After(authFlowTimeout):
		server.Shutdown(context.Background())
		return nil, &ProviderError{Code: CodePopupClosed, Message: "authorization timed out"}
	}
}
