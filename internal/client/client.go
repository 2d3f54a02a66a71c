// Package client talks to the najdeno HTTP API and keeps the application
// state a front end renders from.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Client is a thin JSON client for the /api routes.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Query narrows a search. Zero values do not filter.
type Query struct {
	Text     string
	Type     string
	Category string
	Limit    int
}

// Report is the body of a new lost or found report.
type Report struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Image       string `json:"image,omitempty"`
	ContactInfo string `json:"contactInfo,omitempty"`
}

type authResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Signup registers an account and returns the new session.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*Session, error) {
	var out authResult
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", body, &out); err != nil {
		return nil, err
	}
	return &Session{User: out.User, Token: out.Token}, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out authResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	return &Session{User: out.User, Token: out.Token}, nil
}

// Me returns the user behind token, or nil when the server does not
// accept it.
func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	var out struct {
		IsAuthenticated bool        `json:"isAuthenticated"`
		User            *model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	if !out.IsAuthenticated {
		return nil, nil
	}
	return out.User, nil
}

// Search lists items matching q.
func (c *Client) Search(ctx context.Context, q Query) ([]model.Item, error) {
	v := url.Values{}
	if q.Text != "" {
		v.Set("query", q.Text)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}

	path := "/api/items/search"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var out struct {
		Items []model.Item `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Report files a report. An empty token files it anonymously.
func (c *Client) Report(ctx context.Context, token string, r Report) (*model.Item, error) {
	var out struct {
		Item *model.Item `json:"item"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/items/report", token, r, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

// ListUser lists the items reported by the token's owner.
func (c *Client) ListUser(ctx context.Context, token string) ([]model.Item, error) {
	var out struct {
		Items []model.Item `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/items/user", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ListAdmin lists every item.
func (c *Client) ListAdmin(ctx context.Context, token string) ([]model.Item, error) {
	var out struct {
		Items []model.Item `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/items/admin", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// UpdateStatus sets the status of an item.
func (c *Client) UpdateStatus(ctx context.Context, token, itemID, status string) (*model.Item, error) {
	var out struct {
		Item *model.Item `json:"item"`
	}
	body := map[string]string{"itemId": itemID, "status": status}
	if err := c.do(ctx, http.MethodPut, "/api/items/admin", token, body, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

// History lists the status changes of an item, newest first.
func (c *Client) History(ctx context.Context, token, itemID string) ([]model.StatusChange, error) {
	var out struct {
		Changes []model.StatusChange `json:"changes"`
	}
	path := "/api/items/" + url.PathEscape(itemID) + "/history"
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Changes, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
