// Package linkedin はLinkedInのOAuth2 / OpenID Connect クライアントを提供します。
package linkedin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"

	"flowchart_backend/internal/config"
	"flowchart_backend/internal/feature/sociallogin/domain"
	"flowchart_backend/internal/shared/apperr"
)

var scopes = []string{"openid", "profile", "email"}

// userInfo は userinfo エンドポイントのレスポンスです。
type userInfo struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// Provider は認可コードをユーザープロフィールに交換します。
type Provider struct {
	oauth       *oauth2.Config
	httpClient  *http.Client
	userInfoURL string
}

// NewProvider はLinkedInのエンドポイントを使うProviderを生成します。
func NewProvider(cfg config.LinkedIn, httpClient *http.Client) *Provider {
	return newProvider(cfg, linkedin.Endpoint, httpClient)
}

func newProvider(cfg config.LinkedIn, endpoint oauth2.Endpoint, httpClient *http.Client) *Provider {
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		httpClient:  httpClient,
		userInfoURL: cfg.UserInfoURL,
	}
}

// AuthCodeURL returns the provider consent URL carrying state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// FetchProfile exchanges code for an access token and reads the userinfo endpoint.
func (p *Provider) FetchProfile(ctx context.Context, code string) (*domain.Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		status := http.StatusBadGateway
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			status = re.Response.StatusCode
		}
		return nil, apperr.Upstream(status, "token exchange failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, apperr.Upstream(http.StatusBadGateway, "userinfo request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.Upstream(resp.StatusCode, "failed to read userinfo response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.Upstream(resp.StatusCode, "userinfo request failed", errors.New(http.StatusText(resp.StatusCode)))
	}

	var ui userInfo
	if err := json.Unmarshal(body, &ui); err != nil {
		return nil, apperr.Upstream(resp.StatusCode, "failed to decode userinfo response", err)
	}
	if ui.Email == "" {
		return nil, domain.ErrMissingEmail
	}

	return &domain.Profile{
		Email:      ui.Email,
		Name:       ui.Name,
		GivenName:  ui.GivenName,
		FamilyName: ui.FamilyName,
		Picture:    ui.Picture,
	}, nil
}
