package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// User is the authenticated identity as reported by the identity provider.
// Its ID is the auth user id, not the internal member id.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ErrUnauthenticated means the token did not resolve to a user.
var ErrUnauthenticated = errors.New("unauthenticated")

// Provider resolves bearer tokens to authenticated users.
type Provider interface {
	CurrentUser(ctx context.Context, token string) (User, error)
}

// Client talks to the identity provider's user endpoint over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client for the given provider base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CurrentUser validates the token and returns the user it belongs to.
// A definitive rejection maps to ErrUnauthenticated; transport failures are
// returned as-is so callers can tell the two apart.
func (c *Client) CurrentUser(ctx context.Context, token string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return User{}, ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("identity provider returned %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return User{}, err
	}
	if user.ID == "" {
		return User{}, ErrUnauthenticated
	}
	return user, nil
}
