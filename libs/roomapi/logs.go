package roomapi

import (
	"context"
	"net/http"

	"github.com/goold/roomsched/libs/domain"
)

func (c *Client) Logs(ctx context.Context, page, limit int) (domain.LogsResponse, error) {
	var out domain.LogsResponse
	err := c.do(ctx, call{method: http.MethodGet, path: "/logs", query: pageQuery(page, limit)}, &out)
	return out, err
}

func (c *Client) MyLogs(ctx context.Context, page, limit int) (domain.LogsResponse, error) {
	var out domain.LogsResponse
	err := c.do(ctx, call{method: http.MethodGet, path: "/logs/my", query: pageQuery(page, limit)}, &out)
	return out, err
}

func (c *Client) LogsByModule(ctx context.Context, module domain.LogModule, page, limit int) (domain.LogsResponse, error) {
	var out domain.LogsResponse
	if !module.Valid() {
		return out, &APIError{Kind: KindValidation, Message: "unknown log module " + string(module)}
	}
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/logs/module/" + string(module),
		query:  pageQuery(page, limit),
	}, &out)
	return out, err
}

func (c *Client) CreateLog(ctx context.Context, module domain.LogModule, activity string) (domain.Log, error) {
	var out domain.Log
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/logs",
		body:   domain.CreateLogRequest{Module: module, ActivityType: activity},
	}, &out)
	return out, err
}
