package api

import (
	"context"
	"fmt"
)

// Login authenticates with email and password. The returned access
// token is stored in the credential store before Login returns.
func (c *Client) Login(ctx context.Context, email, password string) error {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp tokenResponse
	if err := c.postJSON(ctx, "/auth/login", payload, &resp); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("login response contained no access token")
	}

	if err := c.store.Set(resp.AccessToken); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	return nil
}

// Register creates a new account. It does not authenticate; callers
// follow up with Login.
func (c *Client) Register(ctx context.Context, userName, email, password string) error {
	payload := map[string]string{
		"userName": userName,
		"email":    email,
		"password": password,
	}

	if err := c.postJSON(ctx, "/auth/register", payload, nil); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	return nil
}

// Logout invalidates the server-side session. It does not touch the
// credential store; session teardown is the caller's responsibility.
func (c *Client) Logout(ctx context.Context) error {
	return c.postJSON(ctx, "/auth/logout", nil, nil)
}

// Profile fetches the identity of the authenticated user
func (c *Client) Profile(ctx context.Context) (User, error) {
	var user User
	if err := c.get(ctx, "/auth/profile", nil, &user); err != nil {
		return User{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return user, nil
}
