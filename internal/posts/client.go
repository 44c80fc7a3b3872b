// Package posts reads and writes posts on a JSONPlaceholder-style REST API.
package posts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/Makepad-fr/tada/internal/model"
)

const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

// NetworkError is returned for transport failures and non-2xx responses.
type NetworkError struct {
	Op     string // e.g. "fetch", "create post"
	Status int    // HTTP status, 0 for transport errors
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to %s: HTTP error! status: %d", e.Op, e.Status)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Options tune the client.
type Options struct {
	Timeout time.Duration
	Token   string // sent as a bearer token when set
}

// Client talks to the posts API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string, opts Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
		token:   opts.Token,
	}
}

// FetchAll returns every post.
func (c *Client) FetchAll(ctx context.Context) ([]model.Post, error) {
	var out []model.Post
	if err := c.do(ctx, "fetch", http.MethodGet, "/posts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id int) (model.Post, error) {
	var out model.Post
	err := c.do(ctx, "fetch", http.MethodGet, "/posts/"+strconv.Itoa(id), nil, &out)
	return out, err
}

func (c *Client) ByUser(ctx context.Context, userID int) ([]model.Post, error) {
	var out []model.Post
	if err := c.do(ctx, "fetch", http.MethodGet, "/posts?userId="+strconv.Itoa(userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts p without its id; the server assigns one.
func (c *Client) Create(ctx context.Context, p model.Post) (model.Post, error) {
	body := struct {
		UserID int    `json:"userId"`
		Title  string `json:"title"`
		Body   string `json:"body"`
	}{p.UserID, p.Title, p.Body}
	var out model.Post
	err := c.do(ctx, "create post", http.MethodPost, "/posts", body, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, p model.Post) (model.Post, error) {
	var out model.Post
	err := c.do(ctx, "update post", http.MethodPut, "/posts/"+strconv.Itoa(p.ID), p, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, "delete post", http.MethodDelete, "/posts/"+strconv.Itoa(id), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &NetworkError{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("charset: %w", err)}
	}
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
