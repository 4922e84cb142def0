// Package careerapi is a client for the career-path HTTP API.
package careerapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/matching"
)

const (
	userAgent = "spigell/career-path"

	careerPath   = "/api/user-career"
	careerMePath = "/api/user-career/me"
	roadmapPath  = "/api/roadmap"
)

var (
	// ErrNotFound is returned for a 404 response.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for a 401 response.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-success response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bad status: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("bad status: %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps status codes onto the sentinel errors callers check with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return career.ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(logger *zap.Logger, apiURL string) (*Client, error) {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		return nil, errors.New("api url is required")
	}
	if _, err := url.ParseRequestURI(apiURL); err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}, nil
}

// Submit stores a profile. With a token the authenticated endpoint is used and
// the server takes the user id from the token.
func (c *Client) Submit(ctx context.Context, s career.Submission, token string) (*career.Record, error) {
	endpoint := c.APIURL + careerPath
	if token != "" {
		endpoint = c.APIURL + careerMePath
		s.UserID = ""
	}

	var rec career.Record
	if err := c.do(ctx, http.MethodPost, endpoint, token, s, http.StatusCreated, &rec); err != nil {
		return nil, err
	}

	c.logger.Debug("career profile submitted", zap.String("id", rec.ID), zap.Bool("authenticated", token != ""))
	return &rec, nil
}

// Get fetches a record by id.
func (c *Client) Get(ctx context.Context, id string) (*career.Record, error) {
	var rec career.Record
	if err := c.do(ctx, http.MethodGet, c.recordURL(id), "", nil, http.StatusOK, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List fetches every record, newest first.
func (c *Client) List(ctx context.Context) ([]*career.Record, error) {
	var items []any
	if err := c.do(ctx, http.MethodGet, c.APIURL+careerPath, "", nil, http.StatusOK, &items); err != nil {
		return nil, err
	}

	var records []*career.Record
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
		Result:     &records,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	if records == nil {
		records = []*career.Record{}
	}

	c.logger.Debug("got records", zap.Int("count", len(records)))
	return records, nil
}

// Roadmap fetches the roadmap of a stored record.
func (c *Client) Roadmap(ctx context.Context, id string) (*matching.Roadmap, error) {
	var roadmap matching.Roadmap
	if err := c.do(ctx, http.MethodGet, c.recordURL(id)+"/roadmap", "", nil, http.StatusOK, &roadmap); err != nil {
		return nil, err
	}
	return &roadmap, nil
}

// Match resolves an ad-hoc profile into a roadmap.
func (c *Client) Match(ctx context.Context, s career.Submission) (*matching.Roadmap, error) {
	var roadmap matching.Roadmap
	if err := c.do(ctx, http.MethodPost, c.APIURL+roadmapPath, "", s, http.StatusOK, &roadmap); err != nil {
		return nil, err
	}
	return &roadmap, nil
}

func (c *Client) recordURL(id string) string {
	return c.APIURL + careerPath + "/" + url.PathEscape(id)
}
