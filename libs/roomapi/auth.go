package roomapi

import (
	"context"
	"net/http"

	"github.com/goold/roomsched/libs/domain"
)

func (c *Client) Login(ctx context.Context, email, password string) (domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   domain.LoginRequest{Email: email, Password: password},
	}, &out)
	return out, err
}

// Signup creates a customer account. The backend ignores any other account type on public signup.
func (c *Client) Signup(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	req.AccountType = domain.AccountCustomer
	return c.CreateUser(ctx, req)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, call{method: http.MethodPost, path: "/auth/logout"}, nil)
}

func (c *Client) Profile(ctx context.Context) (domain.User, error) {
	var out domain.User
	err := c.do(ctx, call{method: http.MethodGet, path: "/auth/profile"}, &out)
	return out, err
}
