package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pscheid92/applyme/internal/domain"
)

const (
	routeSignup    = "/auth/signup"
	routeLogin     = "/auth/login"
	routeBatches   = "/batches"
	routeDashboard = "/dashboard/{batchId}"
	routeHealth    = "/health"
)

// Signup registers a new account and returns the issued token.
func (c *Client) Signup(ctx context.Context, token string, creds domain.Credentials) (*domain.AuthResult, error) {
	return c.authenticate(ctx, routeSignup, token, creds)
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, token string, creds domain.Credentials) (*domain.AuthResult, error) {
	return c.authenticate(ctx, routeLogin, token, creds)
}

func (c *Client) authenticate(ctx context.Context, path, token string, creds domain.Credentials) (*domain.AuthResult, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Route: path, Token: token, Body: creds})
	if err != nil {
		return nil, err
	}

	var wire struct {
		Token looseString `json:"token"`
	}
	if err := resp.Decode(&wire); err != nil {
		return nil, shapeError(resp, err)
	}
	return &domain.AuthResult{Token: wire.Token.String()}, nil
}

type batchCreated struct {
	BatchID looseString `json:"batchId"`
	Status  looseString `json:"status"`
}

// CreateBatch requests a new job search batch.
func (c *Client) CreateBatch(ctx context.Context, token string, req domain.BatchRequest) (*domain.Batch, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: routeBatches, Route: routeBatches, Token: token, Body: req})
	if err != nil {
		return nil, err
	}

	var created batchCreated
	if err := resp.Decode(&created); err != nil {
		return nil, shapeError(resp, err)
	}

	return &domain.Batch{
		ID:       created.BatchID.String(),
		Status:   created.Status.String(),
		Field:    req.Field,
		Location: req.Location,
		JobType:  req.JobType,
	}, nil
}

// Every field the page shows is a looseString: an off-type value is
// displayed as text instead of failing the whole refresh.
type batchWire struct {
	ID       looseString `json:"id"`
	Status   looseString `json:"status"`
	Field    looseString `json:"field"`
	Location looseString `json:"location"`
	JobType  looseString `json:"job_type"`
}

type applicationWire struct {
	Company        looseString `json:"company"`
	JobURL         looseString `json:"job_url"`
	Title          looseString `json:"title"`
	Status         looseString `json:"status"`
	RecruiterEmail looseString `json:"recruiter_email"`
	Error          looseString `json:"error"`
}

func (a applicationWire) toDomain() domain.Application {
	return domain.Application{
		Company:        a.Company.String(),
		JobURL:         a.JobURL.String(),
		Title:          a.Title.String(),
		Status:         a.Status.String(),
		RecruiterEmail: a.RecruiterEmail.String(),
		Error:          a.Error.String(),
	}
}

type dashboardWire struct {
	Batch        batchWire         `json:"batch"`
	Applications []applicationWire `json:"applications"`
}

// Dashboard fetches the applications of one batch, in server order.
func (c *Client) Dashboard(ctx context.Context, token, batchID string) (*domain.Dashboard, error) {
	path := "/dashboard/" + url.PathEscape(batchID)
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Route: routeDashboard, Token: token})
	if err != nil {
		return nil, err
	}

	var wire dashboardWire
	if err := resp.Decode(&wire); err != nil {
		return nil, shapeError(resp, err)
	}

	apps := make([]domain.Application, 0, len(wire.Applications))
	for _, a := range wire.Applications {
		apps = append(apps, a.toDomain())
	}

	return &domain.Dashboard{
		Batch: domain.Batch{
			ID:       wire.Batch.ID.String(),
			Status:   wire.Batch.Status.String(),
			Field:    wire.Batch.Field.String(),
			Location: wire.Batch.Location.String(),
			JobType:  wire.Batch.JobType.String(),
		},
		Applications: apps,
	}, nil
}

// Health checks that the API answers GET /health with a 2xx.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.Do(ctx, Request{Method: http.MethodGet, Path: routeHealth, Route: routeHealth}); err != nil {
		return fmt.Errorf("applyme api unhealthy: %w", err)
	}
	return nil
}

func shapeError(resp *Response, err error) error {
	return &domain.RequestError{Status: resp.Status, Message: err.Error(), Err: err}
}
