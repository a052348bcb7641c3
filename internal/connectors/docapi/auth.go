package docapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driven"
)

// Auth endpoints.
const (
	loginPath   = "/api/auth/login/"
	refreshPath = "/api/auth/refresh/"
	logoutPath  = "/api/auth/logout/"
)

// Ensure AuthClient implements the interfaces.
var (
	_ driven.Authenticator = (*AuthClient)(nil)
	_ driven.TokenRenewer  = (*AuthClient)(nil)
)

// AuthClient talks to the authentication endpoints of the API.
type AuthClient struct {
	client *Client
	now    func() time.Time
}

// NewAuthClient creates an auth client on top of a pipeline.
func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{client: client, now: time.Now}
}

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokensResponse struct {
	Tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	} `json:"tokens"`
}

func (r tokensResponse) pair(now time.Time) domain.CredentialPair {
	pair := domain.CredentialPair{
		Access:  r.Tokens.AccessToken,
		Refresh: r.Tokens.RefreshToken,
	}
	if r.Tokens.ExpiresIn > 0 {
		pair.Expiry = now.Add(time.Duration(r.Tokens.ExpiresIn) * time.Second)
	}
	return pair
}

// Login exchanges a username (or e-mail) and password for a credential pair.
func (a *AuthClient) Login(ctx context.Context, username, password string) (domain.CredentialPair, error) {
	var out tokensResponse
	err := a.postAnonymous(ctx, loginPath, loginRequest{UsernameOrEmail: username, Password: password}, &out)
	if err != nil {
		return domain.CredentialPair{}, err
	}
	return out.pair(a.now()), nil
}

// Renew exchanges a refresh credential for a new pair. It bypasses session
// renewal so a rejected refresh credential surfaces as a plain 401.
func (a *AuthClient) Renew(ctx context.Context, refresh string) (domain.CredentialPair, error) {
	var out tokensResponse
	if err := a.postAnonymous(ctx, refreshPath, refreshRequest{RefreshToken: refresh}, &out); err != nil {
		return domain.CredentialPair{}, err
	}
	return out.pair(a.now()), nil
}

// Logout tells the server the session is over.
func (a *AuthClient) Logout(ctx context.Context) error {
	return a.client.doJSON(ctx, http.MethodPost, logoutPath, struct{}{}, nil)
}

func (a *AuthClient) postAnonymous(ctx context.Context, path string, in, out any) error {
	body, err := jsonBody(in)
	if err != nil {
		return err
	}
	resp, err := a.client.sendAnonymous(ctx, domain.APIRequest{
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return decode(resp, out)
}
