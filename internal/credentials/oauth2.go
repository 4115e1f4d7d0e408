// Package credentials mints OAuth2 bearer tokens for probes that declare
// a token_url. Only the client-credentials grant is supported: probes are
// non-interactive, so flows needing a browser or a refresh token are out.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/probekit/preflight/internal/config"
	preflighterrors "github.com/probekit/preflight/pkg/errors"
	"github.com/probekit/preflight/pkg/probe"
)

// TokenRequest identifies one token to mint.
type TokenRequest struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	// Timeout bounds the token request. Zero uses the probe default.
	Timeout time.Duration
}

// Minter mints and memoizes access tokens. Several probes sharing a
// token endpoint reuse one token, and watch cycles keep tokens until
// they expire.
type Minter struct {
	mu     sync.Mutex
	tokens map[string]*oauth2.Token
}

// NewMinter creates an empty token minter.
func NewMinter() *Minter {
	return &Minter{tokens: make(map[string]*oauth2.Token)}
}

// Bearer returns a valid access token for the request, minting one if the
// cache has none or the cached token expired. Probes execute
// sequentially, so concurrent mints for the same key are not coordinated;
// the worst case is one redundant token request.
func (m *Minter) Bearer(ctx context.Context, req TokenRequest) (string, error) {
	key := cacheKey(req)

	m.mu.Lock()
	if tok, ok := m.tokens[key]; ok && tok.Valid() {
		m.mu.Unlock()
		return tok.AccessToken, nil
	}
	m.mu.Unlock()

	cfg := &clientcredentials.Config{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		TokenURL:     req.TokenURL,
		Scopes:       req.Scopes,
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = probe.DefaultTimeout
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})

	tok, err := cfg.Token(ctx)
	if err != nil {
		return "", toCredentialError(req, err)
	}

	m.mu.Lock()
	m.tokens[key] = tok
	m.mu.Unlock()

	return tok.AccessToken, nil
}

// Apply mints bearer tokens for every probe that declares a token_url and
// stores them in the probe's auth block. Call after credential resolution
// so client secrets are final.
func (m *Minter) Apply(ctx context.Context, f *config.ProbeFile, timeout time.Duration) error {
	for _, p := range f.Probes {
		if !p.Auth.UsesOAuth() {
			continue
		}

		effective := timeout
		if p.Timeout > 0 {
			effective = p.Timeout
		}

		token, err := m.Bearer(ctx, TokenRequest{
			TokenURL:     p.Auth.TokenURL,
			ClientID:     p.Auth.ClientID,
			ClientSecret: p.Auth.ClientSecret,
			Scopes:       p.Auth.Scopes,
			Timeout:      effective,
		})
		if err != nil {
			return fmt.Errorf("probe %q: %w", p.Name, err)
		}

		p.Auth.Token = token
	}

	return nil
}

func cacheKey(req TokenRequest) string {
	return strings.Join([]string{req.TokenURL, req.ClientID, strings.Join(req.Scopes, " ")}, "\x00")
}

// toCredentialError converts token-endpoint failures into credential
// errors, carrying the OAuth2 error code when the server sent one.
func toCredentialError(req TokenRequest, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		message := "token endpoint rejected the request"
		if rerr.ErrorCode != "" {
			message = fmt.Sprintf("token endpoint returned %s", rerr.ErrorCode)
			if rerr.ErrorDescription != "" {
				message = fmt.Sprintf("%s: %s", message, rerr.ErrorDescription)
			}
		}

		var suggest string
		switch rerr.ErrorCode {
		case "invalid_client", "unauthorized_client", "access_denied", "invalid_grant":
			suggest = "check client_id and client_secret for the token endpoint"
		case "invalid_scope":
			suggest = "check the scopes list against what the authorization server allows"
		}

		statusCode := 0
		if rerr.Response != nil {
			statusCode = rerr.Response.StatusCode
		}

		return &preflighterrors.CredentialError{
			Source:      "oauth2",
			Key:         req.ClientID,
			StatusCode:  statusCode,
			Message:     message,
			SuggestText: suggest,
			Cause:       err,
		}
	}

	return &preflighterrors.CredentialError{
		Source:      "oauth2",
		Key:         req.ClientID,
		Message:     fmt.Sprintf("failed to reach token endpoint %s", req.TokenURL),
		SuggestText: "verify token_url and network reachability",
		Cause:       err,
	}
}
