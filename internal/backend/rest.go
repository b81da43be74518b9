package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"simdash/internal/common"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrUnexpectedStatus is wrapped by every non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

const requestIDHeader = "X-Request-ID"

type Client struct {
	base string
	rest *resty.Client
}

// NewREST returns a client for the simulation server at base. A timeout of
// zero leaves requests unbounded.
func NewREST(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	}
	r.SetHeader("Accept", "application/json")
	return &Client{base: base, rest: r}
}

// Start asks the server to begin a simulation.
func (c *Client) Start(ctx context.Context, req StartRequest) (Ack, error) {
	return c.command(ctx, common.PathStart, req)
}

// Stop asks the server to stop the running simulation.
func (c *Client) Stop(ctx context.Context) (Ack, error) {
	return c.command(ctx, common.PathStop, nil)
}

// SetStrategy selects the strategy for the next run.
func (c *Client) SetStrategy(ctx context.Context, name string) (Ack, error) {
	return c.command(ctx, common.PathStrategy, StrategyRequest{Name: name})
}

// Status fetches the current run state.
func (c *Client) Status(ctx context.Context) (ControlStatus, error) {
	var status ControlStatus
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&status).
		Get(c.base + common.PathStatus)
	if err != nil {
		return ControlStatus{}, fmt.Errorf("status request failed: %w", err)
	}
	if resp.IsError() {
		return ControlStatus{}, fmt.Errorf("%w: status %d, body: %s", ErrUnexpectedStatus, resp.StatusCode(), resp.String())
	}
	return status, nil
}

func (c *Client) command(ctx context.Context, path string, body any) (Ack, error) {
	reqID := uuid.NewString()

	ack := Ack{}
	r := c.rest.R().
		SetContext(ctx).
		SetHeader(requestIDHeader, reqID).
		SetResult(&ack)
	if body != nil {
		r.SetBody(body)
	}

	start := time.Now()
	resp, err := r.Post(c.base + path)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s returned %d, body: %s", ErrUnexpectedStatus, path, resp.StatusCode(), resp.String())
	}

	log.Debug().
		Str("path", path).
		Str("request_id", reqID).
		Dur("took", time.Since(start)).
		Interface("ack", ack).
		Msg("command acknowledged")
	return ack, nil
}
