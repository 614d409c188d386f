// Package identity provides a client for the identity provider's backend
// user API. It is the "current profile" accessor used during onboarding.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/logging"
	"github.com/ekaya-inc/ekaya-journal/pkg/retry"
)

// DefaultTimeout is the maximum time to wait for identity provider responses.
const DefaultTimeout = 10 * time.Second

// ErrProviderUnavailable is returned when the identity provider cannot be
// reached, answers with an unexpected status or sends an unreadable body.
var ErrProviderUnavailable = errors.New("identity provider unavailable")

// ErrUserNotFound is returned when the identity provider has no such user.
var ErrUserNotFound = errors.New("identity provider user not found")

// EmailAddress is one address listed on a provider profile.
type EmailAddress struct {
	ID           string `json:"id,omitempty"`
	EmailAddress string `json:"email_address"`
}

// Profile is the provider's view of a user.
type Profile struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
}

// PrimaryEmail returns the first non-blank address, trimmed, or "" if every
// listed address is blank.
func (p *Profile) PrimaryEmail() string {
	for _, e := range p.EmailAddresses {
		if addr := strings.TrimSpace(e.EmailAddress); addr != "" {
			return addr
		}
	}
	return ""
}

// ProfileFetcher fetches the current profile for an external identity id.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, externalID string) (*Profile, error)
}

// Client calls the identity provider's backend API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	retry      *retry.Config
	logger     *zap.Logger
}

// NewClient creates a new identity provider client.
// A zero timeout uses DefaultTimeout.
func NewClient(baseURL, secretKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry:  retry.DefaultConfig(),
		logger: logger.Named("identity"),
	}
}

// GetProfile fetches the user identified by externalID. Unreachable
// providers and 5xx answers are retried with backoff.
func (c *Client) GetProfile(ctx context.Context, externalID string) (*Profile, error) {
	if externalID == "" || strings.ContainsAny(externalID, "/?#%") || externalID == ".." {
		return nil, ErrUserNotFound
	}

	endpoint, err := buildURL(c.baseURL, "v1", "users", externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	c.logger.Debug("Fetching user profile from identity provider",
		zap.String("external_id", externalID))

	profile, err := retry.DoWithResult(ctx, c.retry, func() (*Profile, error) {
		return c.fetchProfile(ctx, endpoint)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Got user profile from identity provider",
		zap.String("external_id", profile.ID),
		zap.String("email", logging.RedactEmail(profile.PrimaryEmail())))

	return profile, nil
}

// fetchProfile makes one request. Errors not worth repeating are marked permanent.
func (c *Client) fetchProfile(ctx context.Context, endpoint string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, logging.SanitizeError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %s", ErrProviderUnavailable, err.Error())
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Permanent(ErrUserNotFound)
	case resp.StatusCode != http.StatusOK:
		c.logger.Error("Identity provider returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.TruncateString(string(body), 256)))
		statusErr := fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, retry.Permanent(statusErr)
		}
		return nil, statusErr
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: failed to parse response: %s", ErrProviderUnavailable, err.Error()))
	}

	return &profile, nil
}

// buildURL constructs a URL by parsing the base and joining path segments.
func buildURL(baseURL string, pathSegments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base URL: %q", baseURL)
	}

	segments := append([]string{u.Path}, pathSegments...)
	u.Path = path.Join(segments...)

	return u.String(), nil
}

// Ensure Client implements ProfileFetcher at compile time.
var _ ProfileFetcher = (*Client)(nil)
