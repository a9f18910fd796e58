package bluesky

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"marketsky/models"
)

const DefaultPDSHost = "https://bsky.social"

// MaxFeedLimit is the provider cap on getAuthorFeed page size.
const MaxFeedLimit = 100

const (
	createSessionPath = "/xrpc/com.atproto.server.createSession"
	getAuthorFeedPath = "/xrpc/app.bsky.feed.getAuthorFeed"
	searchActorsPath  = "/xrpc/app.bsky.actor.searchActors"
)

const defaultTimeout = 30 * time.Second

// Credentials identify the harvesting account. The secret is only ever
// sent in the single session-creation exchange and is never logged.
type Credentials struct {
	Identifier string
	Password   string
}

// Session is the authenticated context returned by createSession. Owned
// exclusively by the client; callers see it read-only.
type Session struct {
	AccessJwt  string
	RefreshJwt string
	Handle     string
	Did        string
	IssuedAt   time.Time
}

// SessionState tracks where the client sits in the session lifecycle.
type SessionState int32

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticating
	StateValid
	StateExpired
	StateAuthFailed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateAuthFailed:
		return "auth_failed"
	default:
		return "unknown"
	}
}

// Client talks to a Bluesky PDS with an owned session. Safe for concurrent
// use: fetches for different actors may run in parallel while session
// acquisition is serialized through a single-flight group.
type Client struct {
	http  *resty.Client
	creds Credentials

	mu      sync.RWMutex
	session *Session
	state   SessionState

	sf singleflight.Group
}

type Option func(*Client)

// WithTimeout overrides the default timeout applied to every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.http.SetHeader("User-Agent", ua)
	}
}

func NewClient(host string, creds Credentials, opts ...Option) *Client {
	httpClient := resty.New()
	httpClient.SetBaseURL(host)
	httpClient.SetTimeout(defaultTimeout)

	client := &Client{
		http:  httpClient,
		creds: creds,
		state: StateUnauthenticated,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// State returns the current position in the session lifecycle.
func (c *Client) State() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) currentSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Authenticate exchanges the credentials for a fresh session. Credential
// rejection is not transient, so it is never retried here.
func (c *Client) Authenticate(ctx context.Context) (*Session, error) {
	c.setState(StateAuthenticating)

	var out createSessionResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(createSessionRequest{
			Identifier: c.creds.Identifier,
			Password:   c.creds.Password,
		}).
		SetResult(&out).
		Post(createSessionPath)

	if err != nil {
		sessionFailures.Inc()
		c.clearSession(StateUnauthenticated)
		return nil, &TransportError{Op: "createSession", Err: err}
	}

	if res.IsError() {
		sessionFailures.Inc()
		c.clearSession(StateAuthFailed)
		return nil, &AuthenticationError{Status: res.StatusCode(), Message: res.String()}
	}

	if out.AccessJwt == "" {
		sessionFailures.Inc()
		c.clearSession(StateAuthFailed)
		return nil, &AuthenticationError{Status: res.StatusCode(), Message: "response missing accessJwt"}
	}

	session := &Session{
		AccessJwt:  out.AccessJwt,
		RefreshJwt: out.RefreshJwt,
		Handle:     out.Handle,
		Did:        out.Did,
		IssuedAt:   time.Now(),
	}

	c.mu.Lock()
	c.session = session
	c.state = StateValid
	c.mu.Unlock()

	sessionCreations.Inc()
	log.WithFields(log.Fields{
		"handle": session.Handle,
		"did":    session.Did,
	}).Info("Created Bluesky session")

	return session, nil
}

// ensureSession returns the current session, authenticating first if
// needed. Concurrent callers share a single in-flight authentication.
// The exchange runs under the leader's context: if the leader cancels,
// every waiter gets its TransportError and the next fetch starts a
// fresh exchange. Waiters never end up with a half-valid session.
func (c *Client) ensureSession(ctx context.Context) (*Session, error) {
	if session := c.currentSession(); session != nil {
		return session, nil
	}

	v, err, _ := c.sf.Do("createSession", func() (interface{}, error) {
		// A waiter may have been queued behind an exchange that already
		// completed; reuse its session instead of logging in again.
		if session := c.currentSession(); session != nil {
			return session, nil
		}
		return c.Authenticate(ctx)
	})
	if err != nil {
		return nil, err
	}

	return v.(*Session), nil
}

// invalidate drops the session that produced an auth-expiry signal. Only
// clears state if the stale session is still the current one, so a slow
// fetch cannot clobber a newer session.
func (c *Client) invalidate(stale *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == stale {
		c.session = nil
		c.state = StateExpired
	}
}

func (c *Client) setState(state SessionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Client) clearSession(state SessionState) {
	c.mu.Lock()
	c.session = nil
	c.state = state
	c.mu.Unlock()
}

// FetchAuthorFeed fetches a single page of an author's feed. On an
// auth-expiry signal it re-authenticates and retries the fetch exactly
// once before surfacing AuthExpiredError.
func (c *Client) FetchAuthorFeed(ctx context.Context, actor string, limit int, cursor string) ([]models.Post, string, error) {
	if actor == "" {
		return nil, "", fmt.Errorf("actor must not be empty")
	}
	if _, err := syntax.ParseAtIdentifier(actor); err != nil {
		return nil, "", fmt.Errorf("invalid actor %q: %w", actor, err)
	}
	limit = clampLimit(limit)

	session, err := c.ensureSession(ctx)
	if err != nil {
		return nil, "", err
	}

	posts, next, err := c.getAuthorFeed(ctx, session, actor, limit, cursor)

	var expired *AuthExpiredError
	if errors.As(err, &expired) {
		log.WithFields(log.Fields{
			"actor":  actor,
			"status": expired.Status,
		}).Info("Session expired, re-authenticating")

		c.invalidate(session)
		session, err = c.ensureSession(ctx)
		if err != nil {
			return nil, "", err
		}
		posts, next, err = c.getAuthorFeed(ctx, session, actor, limit, cursor)
	}

	return posts, next, err
}

func (c *Client) getAuthorFeed(ctx context.Context, session *Session, actor string, limit int, cursor string) ([]models.Post, string, error) {
	var out feedResponse
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(session.AccessJwt).
		SetQueryParam("actor", actor).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&out)
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}

	res, err := req.Get(getAuthorFeedPath)
	if err != nil {
		feedRequests.WithLabelValues("transport_error").Inc()
		return nil, "", &TransportError{Op: "getAuthorFeed", Err: err}
	}

	if err := mapResponseError(res); err != nil {
		feedRequests.WithLabelValues(outcomeLabel(err)).Inc()
		return nil, "", err
	}
	feedRequests.WithLabelValues("ok").Inc()

	next := ""
	if out.Cursor != nil {
		next = *out.Cursor
	}

	return normalizePosts(out.Feed), next, nil
}

// SearchActors returns accounts matching a search term, most relevant
// first.
func (c *Client) SearchActors(ctx context.Context, term string, limit int) ([]models.Actor, error) {
	if term == "" {
		return nil, fmt.Errorf("search term must not be empty")
	}
	limit = clampLimit(limit)

	session, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	actors, err := c.searchActors(ctx, session, term, limit)

	var expired *AuthExpiredError
	if errors.As(err, &expired) {
		c.invalidate(session)
		session, err = c.ensureSession(ctx)
		if err != nil {
			return nil, err
		}
		actors, err = c.searchActors(ctx, session, term, limit)
	}

	return actors, err
}

func (c *Client) searchActors(ctx context.Context, session *Session, term string, limit int) ([]models.Actor, error) {
	var out searchActorsResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(session.AccessJwt).
		SetQueryParam("term", term).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&out).
		Get(searchActorsPath)

	if err != nil {
		return nil, &TransportError{Op: "searchActors", Err: err}
	}

	if err := mapResponseError(res); err != nil {
		return nil, err
	}

	actors := make([]models.Actor, 0, len(out.Actors))
	for _, actor := range out.Actors {
		actors = append(actors, models.Actor{
			Did:         actor.Did,
			Handle:      actor.Handle,
			DisplayName: actor.DisplayName,
		})
	}

	return actors, nil
}

// mapResponseError translates a non-2xx response into the error taxonomy
// callers branch on.
func mapResponseError(res *resty.Response) error {
	if !res.IsError() {
		return nil
	}

	switch res.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthExpiredError{Status: res.StatusCode()}
	case http.StatusTooManyRequests:
		rateLimitHits.Inc()
		return &RateLimitedError{RetryAfter: parseRetryAfter(res.Header().Get("Retry-After"))}
	default:
		return &ProviderError{Status: res.StatusCode(), Body: res.String()}
	}
}

func outcomeLabel(err error) string {
	var expired *AuthExpiredError
	var rateLimited *RateLimitedError
	switch {
	case errors.As(err, &expired):
		return "auth_expired"
	case errors.As(err, &rateLimited):
		return "rate_limited"
	default:
		return "provider_error"
	}
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}
