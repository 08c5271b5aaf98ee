package roomapi

import (
	"context"
	"net/http"

	"github.com/goold/roomsched/libs/domain"
)

func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := c.do(ctx, call{method: http.MethodGet, path: "/users"}, &out)
	return out, err
}

func (c *Client) User(ctx context.Context, id int64) (domain.User, error) {
	var out domain.User
	if err := checkID(id); err != nil {
		return out, err
	}
	err := c.do(ctx, call{method: http.MethodGet, path: idPath("/users", id)}, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	var out domain.User
	err := c.do(ctx, call{method: http.MethodPost, path: "/users", body: req}, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id int64, req domain.UpdateUserRequest) (domain.User, error) {
	var out domain.User
	if err := checkID(id); err != nil {
		return out, err
	}
	err := c.do(ctx, call{method: http.MethodPut, path: idPath("/users", id), body: req}, &out)
	return out, err
}

func (c *Client) UpdateUserStatus(ctx context.Context, id int64, active bool) (domain.User, error) {
	var out domain.User
	if err := checkID(id); err != nil {
		return out, err
	}
	err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   idPath("/users", id, "status"),
		body:   domain.UpdateUserStatusRequest{IsActive: active},
	}, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return c.do(ctx, call{method: http.MethodDelete, path: idPath("/users", id)}, nil)
}
