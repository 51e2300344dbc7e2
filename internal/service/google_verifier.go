package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// googleTokenInfo is the response shape of Google's tokeninfo endpoint.
// Google serializes email_verified as the string "true"/"false".
type googleTokenInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified string `json:"email_verified"`
	Audience      string `json:"aud"`
}

// googleVerifier verifies Google ID tokens against the tokeninfo endpoint
type googleVerifier struct {
	client       *http.Client
	tokenInfoURL string
	clientID     string
}

// NewGoogleVerifier creates a Google ID token verifier. When clientID is
// non-empty the token audience must match it.
func NewGoogleVerifier(tokenInfoURL, clientID string, timeout time.Duration) GoogleVerifier {
	return &googleVerifier{
		client:       &http.Client{Timeout: timeout},
		tokenInfoURL: tokenInfoURL,
		clientID:     clientID,
	}
}

// Verify checks the ID token with Google and returns the normalized identity
func (v *googleVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	endpoint := fmt.Sprintf("%s?id_token=%s", v.tokenInfoURL, url.QueryEscape(idToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: tokeninfo request failed: %v", ErrInvalidExternalToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tokeninfo returned status %d", ErrInvalidExternalToken, resp.StatusCode)
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: failed to decode tokeninfo response: %v", ErrInvalidExternalToken, err)
	}

	if v.clientID != "" && info.Audience != v.clientID {
		return nil, fmt.Errorf("%w: token audience mismatch", ErrInvalidExternalToken)
	}

	return &GoogleIdentity{
		Email:         info.Email,
		Name:          info.Name,
		ExternalID:    info.Sub,
		EmailVerified: info.EmailVerified == "true",
	}, nil
}
