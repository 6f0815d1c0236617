package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIURL        = "https://api.clerk.com/v1"
	defaultLookupTimeout = 10 * time.Second
	maxUserResponseSize  = 1 << 20
)

// Directory looks up users in the identity provider's backend API.
// It fills in what session tokens omit by default, such as the email.
type Directory struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// DirectoryOption configures Directory.
type DirectoryOption func(*Directory)

// WithDirectoryHTTPClient replaces the default HTTP client.
func WithDirectoryHTTPClient(c *http.Client) DirectoryOption {
	return func(d *Directory) {
		if c != nil {
			d.httpClient = c
		}
	}
}

// NewDirectory creates a Directory from cfg.SecretKey and cfg.APIURL.
func NewDirectory(cfg Config, opts ...DirectoryOption) (*Directory, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, ErrMissingSecretKey
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if baseURL == "" {
		baseURL = defaultAPIURL
	}

	d := &Directory{
		httpClient: &http.Client{Timeout: defaultLookupTimeout},
		baseURL:    baseURL,
		secretKey:  secret,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

type userResponse struct {
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

// Email returns the user's primary email address, or the first one when no
// primary is set. A user without addresses yields "".
func (d *Directory) Email(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrMissingSubject
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return "", errors.Join(ErrUserLookup, err)
	}
	req.Header.Set("Authorization", "Bearer "+d.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", errors.Join(ErrUserLookup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrUserNotFound
	}
	if resp.StatusCode >= 300 {
		return "", errors.Join(ErrUserLookup, fmt.Errorf("get user %s: status %d", userID, resp.StatusCode))
	}

	var user userResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserResponseSize)).Decode(&user); err != nil {
		return "", errors.Join(ErrUserLookup, err)
	}

	for _, addr := range user.EmailAddresses {
		if addr.ID == user.PrimaryEmailAddressID {
			return addr.EmailAddress, nil
		}
	}
	if len(user.EmailAddresses) > 0 {
		return user.EmailAddresses[0].EmailAddress, nil
	}
	return "", nil
}
