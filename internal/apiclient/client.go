// Package apiclient talks to the JSON API of a running api-server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"readlist/internal/progress"
	"readlist/internal/sheet"
	"readlist/pkg/models"
)

const DefaultBaseURL = "http://localhost:8080"

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Is lets callers test remote failures against the same sentinels as local ones.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusServiceUnavailable:
		return target == sheet.ErrUnavailable
	case http.StatusNotFound:
		return target == progress.ErrNotFound
	}
	return false
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type listResponse struct {
	Total int             `json:"total"`
	Items []progress.View `json:"items"`
}

type HistoryPage struct {
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Items  []models.ProgressEntry `json:"items"`
}

func bookPath(title string, rest ...string) string {
	p := "/api/books/" + url.PathEscape(title)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// Views lists books with their page counts; status filters when non-empty.
func (c *Client) Views(ctx context.Context, status string) ([]progress.View, error) {
	endpoint := "/api/books"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) List(ctx context.Context) ([]models.Book, error) {
	views, err := c.Views(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]models.Book, len(views))
	for i, v := range views {
		out[i] = v.Book
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, title string) (progress.View, error) {
	var v progress.View
	err := c.do(ctx, http.MethodGet, bookPath(title), nil, &v)
	return v, err
}

func (c *Client) Add(ctx context.Context, title, author string, total int) (progress.View, error) {
	var v progress.View
	payload := map[string]any{"title": title, "author": author, "total": total}
	err := c.do(ctx, http.MethodPost, "/api/books", payload, &v)
	return v, err
}

func (c *Client) SetProgress(ctx context.Context, title string, p int) (progress.View, error) {
	var v progress.View
	err := c.do(ctx, http.MethodPut, bookPath(title, "progress"), map[string]int{"progress": p}, &v)
	return v, err
}

func (c *Client) StepBy(ctx context.Context, title string, delta int) (progress.View, error) {
	var v progress.View
	err := c.do(ctx, http.MethodPost, bookPath(title, "step"), map[string]int{"delta": delta}, &v)
	return v, err
}

func (c *Client) Done(ctx context.Context, title string) (progress.View, error) {
	var v progress.View
	err := c.do(ctx, http.MethodPost, bookPath(title, "done"), nil, &v)
	return v, err
}

func (c *Client) Delete(ctx context.Context, title string) error {
	return c.do(ctx, http.MethodDelete, bookPath(title), nil, nil)
}

func (c *Client) History(ctx context.Context, title string, limit, offset int) (HistoryPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var page HistoryPage
	err := c.do(ctx, http.MethodGet, bookPath(title, "history")+"?"+q.Encode(), nil, &page)
	return page, err
}

// The methods below let a terminal screen drive a remote server.

func (c *Client) AddBook(ctx context.Context, title, author string, total int) (models.Book, error) {
	v, err := c.Add(ctx, title, author, total)
	return v.Book, err
}

func (c *Client) Step(ctx context.Context, b models.Book, delta int) (models.Book, error) {
	v, err := c.StepBy(ctx, b.Title, delta)
	return v.Book, err
}

func (c *Client) MarkDone(ctx context.Context, b models.Book) (models.Book, error) {
	v, err := c.Done(ctx, b.Title)
	return v.Book, err
}

func (c *Client) DeleteBook(ctx context.Context, b models.Book) error {
	return c.Delete(ctx, b.Title)
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsUnavailable reports whether err means the server or its sheet store
// could not be reached.
func IsUnavailable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusServiceUnavailable
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
