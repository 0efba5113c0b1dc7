package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sciforge/depository/pkg/common/models"
	"golang.org/x/oauth2"
)

// OIDCAuthenticator validates bearer tokens against the issuer's userinfo
// endpoint.
type OIDCAuthenticator struct {
	config *oauth2.Config
	issuer string
	client *http.Client
}

func NewOIDCAuthenticator(issuer, clientID, clientSecret string) (*OIDCAuthenticator, error) {
	if issuer == "" || clientID == "" {
		return nil, fmt.Errorf("OIDC configuration incomplete")
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  fmt.Sprintf("%s/authorize", issuer),
			TokenURL: fmt.Sprintf("%s/token", issuer),
		},
		Scopes: []string{"openid", "profile", "email"},
	}

	return &OIDCAuthenticator{
		config: config,
		issuer: issuer,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type userinfoClaims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Admin   bool   `json:"admin"`
}

// ValidateToken resolves a bearer token to the caller's identity.
func (a *OIDCAuthenticator) ValidateToken(ctx context.Context, token string) (*models.RequestContext, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, a.client), src)

	resp, err := client.Get(fmt.Sprintf("%s/userinfo", a.issuer))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned HTTP %d", resp.StatusCode)
	}

	var claims userinfoClaims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return &models.RequestContext{
		UserID: claims.Subject,
		Email:  claims.Email,
		Admin:  claims.Admin,
	}, nil
}
