package api

import (
	"context"

	"github.com/pullman-cli/pullman/internal/apierr"
)

// User is the authenticated GitHub identity. Derived, never stored;
// recomputed on each lookup.
type User struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// CurrentUser looks up the identity behind the request's credential.
// A token that authenticates transport but fails this lookup is invalid.
func (c *Client) CurrentUser(ctx context.Context, opts ...RequestOption) (User, error) {
	var user User
	if err := c.Get(ctx, "/user", nil, &user, opts...); err != nil {
		return User{}, err
	}
	if user.Login == "" {
		return User{}, apierr.New(apierr.KindAuth, "invalid token")
	}
	return user, nil
}
