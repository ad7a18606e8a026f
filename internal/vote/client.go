package vote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	PostVotePath    = "/api/subreddit/post/vote"
	CommentVotePath = "/api/subreddit/post/comment/vote"
)

// ErrUnauthorized is returned by Submit when the server answers 401.
var ErrUnauthorized = errors.New("vote: unauthorized")

// StatusError is returned by Submit for any other non-2xx answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vote: server returned %d: %s", e.Code, e.Body)
}

// Notifier surfaces failed votes to the user.
type Notifier interface {
	// LoginRequired is called when the server rejects the vote as unauthenticated.
	LoginRequired()
	// VoteFailed is called for every other failure.
	VoteFailed()
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends the bearer token on every vote request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client votes on a single post or comment with optimistic local updates.
//
// Overlapping Submit calls are not serialized against the server: each one
// applies its own optimistic delta and, on failure, undoes only that delta.
type Client struct {
	endpoint string
	idField  string
	targetID string
	token    string
	http     *http.Client
	notifier Notifier
	logger   *zap.Logger

	mu          sync.Mutex
	state       State
	initialVote Type
}

// NewPostClient returns a client for the post vote endpoint under baseURL.
func NewPostClient(baseURL, postID string, initialVotesAmount int, initialVote Type, n Notifier, opts ...Option) *Client {
	return newClient(baseURL+PostVotePath, "postId", postID, initialVotesAmount, initialVote, n, opts)
}

// NewCommentClient returns a client for the comment vote endpoint under baseURL.
func NewCommentClient(baseURL, commentID string, initialVotesAmount int, initialVote Type, n Notifier, opts ...Option) *Client {
	return newClient(baseURL+CommentVotePath, "commentId", commentID, initialVotesAmount, initialVote, n, opts)
}

func newClient(endpoint, idField, targetID string, amount int, initial Type, n Notifier, opts []Option) *Client {
	c := &Client{
		endpoint:    endpoint,
		idField:     idField,
		targetID:    targetID,
		http:        http.DefaultClient,
		notifier:    n,
		logger:      zap.NewNop(),
		state:       State{VotesAmount: amount, CurrentVote: initial},
		initialVote: initial,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the local vote state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resync adopts a fresh server-side vote for the current user. It only
// touches the state when initialVote actually changed since the last call.
func (c *Client) Resync(initialVote Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if initialVote == c.initialVote {
		return
	}
	c.initialVote = initialVote
	c.state.CurrentVote = initialVote
}

// Submit applies t optimistically, sends it, and rolls back on failure.
func (c *Client) Submit(ctx context.Context, t Type) error {
	if !t.Valid() {
		return fmt.Errorf("vote: invalid type %q", t)
	}

	c.mu.Lock()
	next, tr := ApplyOptimistic(c.state, t)
	c.state = next
	c.mu.Unlock()

	err := c.send(ctx, t)
	if err == nil {
		return nil
	}

	c.mu.Lock()
	c.state = Rollback(c.state, tr)
	c.mu.Unlock()

	c.logger.Warn("vote rolled back",
		zap.String("target", c.targetID),
		zap.String("vote_type", string(t)),
		zap.Error(err),
	)

	if c.notifier != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.notifier.LoginRequired()
		} else {
			c.notifier.VoteFailed()
		}
	}
	return err
}

func (c *Client) send(ctx context.Context, t Type) error {
	body, err := json.Marshal(map[string]string{
		c.idField:  c.targetID,
		"voteType": string(t),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("vote: request failed: %w", err)
	}
	defer resp.Body.Close()

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return nil
}
