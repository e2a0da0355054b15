// Package rest reaches the hosted backend: identities through gotrue-go and
// tables through postgrest-go.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ecofinds/internal/gateway"

	gotrue "github.com/supabase-community/gotrue-go"
	postgrest "github.com/supabase-community/postgrest-go"
)

// Config holds the hosted backend settings.
type Config struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// Client implements gateway.Gateway on the hosted backend.
type Client struct {
	baseURL string
	anonKey string
	timeout time.Duration
	auth    gotrue.Client
}

// New creates a client. A missing URL or anon key is logged, not fatal: every
// call will then fail with the backend's own error.
func New(cfg Config) *Client {
	if cfg.URL == "" || cfg.AnonKey == "" {
		log.Printf("Configuration error: backend URL and anon key must both be set (url set: %t, key set: %t)",
			cfg.URL != "", cfg.AnonKey != "")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(cfg.URL, "/")
	return &Client{
		baseURL: baseURL,
		anonKey: cfg.AnonKey,
		timeout: cfg.Timeout,
		auth:    gotrue.New("", cfg.AnonKey).WithCustomGoTrueURL(baseURL + "/auth/v1"),
	}
}

// callTransport carries one call's context into the library's requests and
// keeps the status of the last response.
type callTransport struct {
	ctx    context.Context
	status int
}

func (t *callTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := http.DefaultTransport.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, err
	}
	t.status = resp.StatusCode
	return resp, nil
}

// call bounds ctx by the client timeout.
func (c *Client) call(ctx context.Context) (context.Context, context.CancelFunc, *callTransport) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return ctx, cancel, &callTransport{ctx: ctx}
}

// authAs returns a GoTrue client for one call. An empty token calls as the
// anonymous role.
func (c *Client) authAs(t *callTransport, token string) gotrue.Client {
	client := c.auth.WithClient(http.Client{Timeout: c.timeout, Transport: t})
	if token != "" {
		client = client.WithToken(token)
	}
	return client
}

// tablesAs returns a PostgREST client for one call. Row policies see token,
// or the anon key when token is empty.
func (c *Client) tablesAs(t *callTransport, token string) *postgrest.Client {
	if token == "" {
		token = c.anonKey
	}
	client := postgrest.NewClient(c.baseURL+"/rest/v1", "public", map[string]string{
		"apikey":        c.anonKey,
		"Authorization": "Bearer " + token,
	})
	if client.Transport != nil {
		client.Transport.Parent = t
	}
	return client
}

var (
	// postgrest-go reports error bodies as "(code) message".
	tableErrRe = regexp.MustCompile(`(?s)^\(([^)]*)\) (.*)$`)
	// gotrue-go reports them as "response status code N: body".
	authErrRe = regexp.MustCompile(`(?s)^response status code (\d+)(?:: (.*))?$`)
)

// translate turns a library error into a *gateway.Error where the response
// carried one.
func translate(ctx context.Context, t *callTransport, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if m := authErrRe.FindStringSubmatch(err.Error()); m != nil {
		status, _ := strconv.Atoi(m[1])
		return decodeError(status, []byte(m[2]))
	}
	if t.status >= 400 {
		if m := tableErrRe.FindStringSubmatch(err.Error()); m != nil {
			return normalize(&gateway.Error{Code: m[1], Message: m[2], Status: t.status})
		}
		return normalize(&gateway.Error{Status: t.status})
	}
	var gErr *gateway.Error
	if errors.As(err, &gErr) {
		return gErr
	}
	return fmt.Errorf("backend request failed: %w", err)
}

// errorBody covers the error shapes GoTrue uses.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	Message          string          `json:"message"`
	Details          string          `json:"details"`
	Hint             string          `json:"hint"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
}

func decodeError(status int, body []byte) error {
	gErr := &gateway.Error{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		gErr.Code = gateway.CodeInternal
		gErr.Message = fmt.Sprintf("unexpected response (status %d): %s", status, truncate(string(body), 200))
		return gErr
	}

	var code string
	if len(eb.Code) > 0 {
		// PostgREST sends a string, GoTrue sends the HTTP status as a number.
		if err := json.Unmarshal(eb.Code, &code); err != nil {
			code = ""
		}
	}
	switch {
	case eb.ErrorCode != "":
		gErr.Code = eb.ErrorCode
	case code != "":
		gErr.Code = code
	case eb.Error != "":
		gErr.Code = eb.Error
	}
	gErr.Message = firstNonEmpty(eb.Message, eb.Msg, eb.ErrorDescription, eb.Error)
	gErr.Details = firstNonEmpty(eb.Details, eb.Hint)
	return normalize(gErr)
}

// normalize maps backend codes onto the gateway's.
func normalize(gErr *gateway.Error) *gateway.Error {
	switch gErr.Code {
	case "invalid_grant":
		gErr.Code = gateway.CodeInvalidCredentials
	case "PGRST301", "PGRST302":
		gErr.Code = gateway.CodeBadJWT
	case "":
		gErr.Code = codeForStatus(gErr.Status, gErr.Message)
	}
	if gErr.Message == "" {
		gErr.Message = fmt.Sprintf("request failed with status %d", gErr.Status)
	}
	return gErr
}

func codeForStatus(status int, msg string) string {
	switch {
	case strings.Contains(strings.ToLower(msg), "already registered"):
		return gateway.CodeUserExists
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return gateway.CodeBadJWT
	case status == http.StatusConflict:
		return gateway.CodeUniqueViolation
	case status >= 500:
		return gateway.CodeInternal
	default:
		return gateway.CodeInvalidRequest
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
