// Package ghauth mints GitHub App installation tokens.
package ghauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-github/v66/github"
)

// jwtLifetime stays under GitHub's ten minute cap to absorb clock drift.
const jwtLifetime = 9 * time.Minute

// AppCredentials identify a GitHub App and optionally one of its installations.
type AppCredentials struct {
	// AppID is the numeric GitHub App id.
	AppID int64
	// PrivateKeyPEM is the App private key in PEM form.
	PrivateKeyPEM []byte
	// InstallationID skips the repository installation lookup when set.
	InstallationID int64
}

// Configured reports whether both the App id and key are present.
func (c AppCredentials) Configured() bool {
	return c.AppID > 0 && len(strings.TrimSpace(string(c.PrivateKeyPEM))) > 0
}

// SignJWT returns an RS256 App JWT issued at now.
func (c AppCredentials) SignJWT(now time.Time) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(c.PrivateKeyPEM)
	if err != nil {
		return "", fmt.Errorf("parse app private key: %w", err)
	}
	claims := jwt.RegisteredClaims{
		// Backdated per GitHub's recommendation.
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtLifetime)),
		Issuer:    strconv.FormatInt(c.AppID, 10),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign app jwt: %w", err)
	}
	return signed, nil
}

// TokenSource exchanges App credentials for an installation token.
type TokenSource struct {
	creds      AppCredentials
	httpClient *http.Client
	baseURL    string
	now        func() time.Time
}

// NewTokenSource builds a TokenSource. An empty baseURL targets api.github.com.
func NewTokenSource(creds AppCredentials, httpClient *http.Client, baseURL string) *TokenSource {
	return &TokenSource{
		creds:      creds,
		httpClient: httpClient,
		baseURL:    strings.TrimSpace(baseURL),
		now:        time.Now,
	}
}

// InstallationToken returns a token for the installation on owner/repo.
func (s *TokenSource) InstallationToken(ctx context.Context, owner, repo string) (string, time.Time, error) {
	if !s.creds.Configured() {
		return "", time.Time{}, fmt.Errorf("github app credentials are incomplete")
	}
	signed, err := s.creds.SignJWT(s.now())
	if err != nil {
		return "", time.Time{}, err
	}
	client, err := s.appClient(signed)
	if err != nil {
		return "", time.Time{}, err
	}

	installationID := s.creds.InstallationID
	if installationID == 0 {
		inst, _, err := client.Apps.FindRepositoryInstallation(ctx, owner, repo)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("find app installation for %s/%s: %w", owner, repo, err)
		}
		installationID = inst.GetID()
	}

	tok, _, err := client.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create installation token for installation %d: %w", installationID, err)
	}
	if tok.GetToken() == "" {
		return "", time.Time{}, fmt.Errorf("installation %d returned an empty token", installationID)
	}
	return tok.GetToken(), tok.GetExpiresAt().Time, nil
}

func (s *TokenSource) appClient(signedJWT string) (*github.Client, error) {
	client := github.NewClient(s.httpClient).WithAuthToken(signedJWT)
	if s.baseURL == "" {
		return client, nil
	}
	base := s.baseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse github api url %q: %w", s.baseURL, err)
	}
	client.BaseURL = u
	return client, nil
}
