package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/app/entity"

	"google.golang.org/api/idtoken"
)

// OAuthIdentity is the minimal account description every provider must yield.
type OAuthIdentity struct {
	Provider   entity.AuthProvider
	ProviderID string
	Email      string
	Name       string
	ImageURL   string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*OAuthIdentity, error)
}

type GoogleTokenValidator func(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)

// GoogleVerifier checks a Google ID token against the configured client id.
type GoogleVerifier struct {
	clientID string
	validate GoogleTokenValidator
}

func NewGoogleVerifier(clientID string, validate GoogleTokenValidator) *GoogleVerifier {
	if validate == nil {
		validate = idtoken.Validate
	}
	return &GoogleVerifier{clientID: clientID, validate: validate}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*OAuthIdentity, error) {
	payload, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthTokenRejected, err)
	}

	email, _ := payload.Claims["email"].(string)
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		email = ""
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return &OAuthIdentity{
		Provider:   entity.ProviderGoogle,
		ProviderID: payload.Subject,
		Email:      email,
		Name:       name,
		ImageURL:   picture,
	}, nil
}

// FacebookVerifier resolves a user access token through the Graph API.
type FacebookVerifier struct {
	graphURL string
	client   *http.Client
}

func NewFacebookVerifier(graphURL string, client *http.Client) *FacebookVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &FacebookVerifier{graphURL: strings.TrimRight(graphURL, "/"), client: client}
}

type facebookProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func (v *FacebookVerifier) Verify(ctx context.Context, token string) (*OAuthIdentity, error) {
	query := url.Values{}
	query.Set("fields", "id,name,email,picture")
	query.Set("access_token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.graphURL+"/me?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: graph api status %d", ErrOAuthTokenRejected, resp.StatusCode)
	}

	var profile facebookProfile
	if err = json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode facebook profile: %w", err)
	}
	if profile.ID == "" {
		return nil, ErrOAuthTokenRejected
	}

	return &OAuthIdentity{
		Provider:   entity.ProviderFacebook,
		ProviderID: profile.ID,
		Email:      profile.Email,
		Name:       profile.Name,
		ImageURL:   profile.Picture.Data.URL,
	}, nil
}
