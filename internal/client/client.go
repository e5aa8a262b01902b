// Package client is the app core: it drives the estate hub API the way the
// browser app does, holding the auth session, guarding navigation and keeping
// the catalog and my-properties views consistent under concurrent loads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/authsession"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

const authPrefix = "/api/auth/"

// checkResp turns a non-2xx response into an *apperr.Error carrying the
// server's kind, message and field.
func checkResp(resp *http.Response, method, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	op := method + " " + path
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body apperr.Body
	if err := json.Unmarshal(raw, &body); err != nil || body.Kind == "" {
		return &apperr.Error{Kind: kindForStatus(resp.StatusCode), Op: op,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))}
	}
	return &apperr.Error{Kind: body.Kind, Op: op, Field: body.Field, Message: body.Error}
}

func kindForStatus(code int) apperr.Kind {
	switch code {
	case http.StatusBadRequest:
		return apperr.Validation
	case http.StatusUnauthorized:
		return apperr.Auth
	case http.StatusForbidden:
		return apperr.Permission
	case http.StatusNotFound:
		return apperr.NotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return apperr.Network
	}
	return apperr.Internal
}

// Client calls the estate hub API. It implements authsession.Provider and
// authsession.ExpiryNotifier.
type Client struct {
	baseURL    string
	httpClient *http.Client
	jar        *sessionJar
	log        *zap.Logger

	mu        sync.Mutex
	token     string
	epoch     func() uint64
	onExpired func(uint64)
}

// New returns a client for baseURL. Every request is bounded by timeout.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{baseURL: strings.TrimRight(baseURL, "/"), log: log, jar: &sessionJar{}}
	c.jar.reset()
	c.httpClient = &http.Client{Timeout: timeout, Jar: c.jar}
	return c
}

// sessionJar is a cookie jar that can forget everything at once.
type sessionJar struct {
	mu  sync.Mutex
	jar *cookiejar.Jar
}

func (j *sessionJar) reset() {
	jar, _ := cookiejar.New(nil)
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}

func (j *sessionJar) current() *cookiejar.Jar {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.current().SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie { return j.current().Cookies(u) }

// Close releases idle connections.
func (c *Client) Close() { c.httpClient.CloseIdleConnections() }

// OnExpired registers expire to run when a data call is rejected because the
// session is gone. It receives the epoch read when the call was issued and
// runs on its own goroutine.
func (c *Client) OnExpired(epoch func() uint64, expire func(uint64)) {
	c.mu.Lock()
	c.epoch, c.onExpired = epoch, expire
	c.mu.Unlock()
}

func (c *Client) currentEpoch() uint64 {
	c.mu.Lock()
	fn := c.epoch
	c.mu.Unlock()
	if fn == nil {
		return 0
	}
	return fn()
}

func (c *Client) setToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) expired(epoch uint64) {
	c.mu.Lock()
	fn := c.onExpired
	c.mu.Unlock()
	if fn != nil {
		go fn(epoch)
	}
}

// do sends a JSON request and decodes a JSON response into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return apperr.Wrap(apperr.Internal, path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperr.Wrap(apperr.Internal, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	epoch := c.currentEpoch()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &apperr.Error{Kind: apperr.Network, Op: method + " " + path, Message: apperr.ErrUnavailable.Message, Err: err}
	}
	defer resp.Body.Close()

	if err := checkResp(resp, method, path); err != nil {
		if resp.StatusCode == http.StatusUnauthorized && !strings.HasPrefix(path, authPrefix) {
			c.expired(epoch)
		}
		return err
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.Network, method+" "+path, fmt.Errorf("decode: %w", err))
	}
	return nil
}

// CurrentSession calls GET /api/auth/session.
func (c *Client) CurrentSession(ctx context.Context) (*models.User, error) {
	var resp models.SessionResponse
	if err := c.do(ctx, http.MethodGet, authPrefix+"session", nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		c.setToken("")
	}
	return resp.User, nil
}

// SignIn calls POST /api/auth/signin.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	var resp models.SessionResponse
	err := c.do(ctx, http.MethodPost, authPrefix+"signin", models.SignInRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, apperr.New(apperr.Auth, "client.SignIn", "invalid login credentials")
	}
	c.setToken(resp.AccessToken)
	return resp.User, nil
}

// SignUp calls POST /api/auth/signup.
func (c *Client) SignUp(ctx context.Context, req authsession.SignUpRequest) (authsession.SignUpResult, error) {
	var resp models.SignUpResponse
	err := c.do(ctx, http.MethodPost, authPrefix+"signup", models.SignUpRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	}, &resp)
	if err != nil {
		return authsession.SignUpResult{}, err
	}
	if resp.NeedsConfirmation {
		return authsession.SignUpResult{NeedsConfirmation: true}, nil
	}
	c.setToken(resp.AccessToken)
	return authsession.SignUpResult{User: resp.User}, nil
}

// SignOut calls POST /api/auth/signout. The local credentials are dropped
// whatever the outcome.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, authPrefix+"signout", nil, nil)
	c.setToken("")
	c.jar.reset()
	return err
}

// IsStale reports whether err is ErrStale.
func IsStale(err error) bool { return errors.Is(err, ErrStale) }
