// Package recruitapi is a JSON client for the external recruiting service
// that authenticates recruiters, generates questions and reports, and issues
// video call join links.
package recruitapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/msomdec/recruit-dashboard/internal/domain"
)

const maxErrorBody = 1 << 20

// Operation names, used for metrics labels and error messages.
const (
	OpAuthenticate      = "authenticate"
	OpRegister          = "register"
	OpGenerateQuestions = "generate_questions"
	OpGenerateJoinLink  = "generate_join_link"
	OpGenerateReport    = "generate_report"
)

var defaultMessages = map[string]string{
	OpAuthenticate:      "Login failed. Please check your credentials.",
	OpRegister:          "Registration failed. Please try again.",
	OpGenerateQuestions: "Failed to generate questions.",
	OpGenerateJoinLink:  "Failed to schedule interview.",
	OpGenerateReport:    "Failed to generate report.",
}

// Observer receives the outcome of every backend call. status is 0 when the
// request never produced a response.
type Observer interface {
	ObserveBackendCall(op string, status int, elapsed time.Duration)
}

// Client talks to the recruiting backend. It implements
// domain.Authenticator and domain.InterviewBackend.
type Client struct {
	baseURL       string
	http          *http.Client
	token         string
	sessionCookie string
	observer      Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithBearerToken sends token in the Authorization header.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithSessionCookie sends cookie verbatim in the Cookie header. Some
// deployments of the backend authenticate callers with a session cookie
// instead of a bearer token.
func WithSessionCookie(cookie string) Option {
	return func(c *Client) { c.sessionCookie = cookie }
}

// WithObserver reports call outcomes to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate posts credentials to /api/authenticate.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	req := authenticateRequest{Email: email, Password: password}
	var resp authenticateResponse
	if err := c.post(ctx, OpAuthenticate, "/api/authenticate", req, &resp); err != nil {
		return nil, err
	}

	user := resp.user()
	if user.Email == "" {
		user.Email = email
	}
	if user.Name == "" {
		user.Name = user.Email
	}
	return user, nil
}

// Register posts a new account to /register.
func (c *Client) Register(ctx context.Context, r domain.RegisterRequest) error {
	role := r.Role
	if role == "" {
		role = domain.DefaultRole
	}
	req := registerRequest{Name: r.Name, Email: r.Email, Password: r.Password, Role: role}
	return c.post(ctx, OpRegister, "/register", req, nil)
}

// GenerateQuestions posts a combined job description to
// /api/generate_questions.
func (c *Client) GenerateQuestions(ctx context.Context, payload string) ([]domain.Question, error) {
	var resp questionsResponse
	if err := c.post(ctx, OpGenerateQuestions, "/api/generate_questions", questionsRequest{JobDescription: payload}, &resp); err != nil {
		return nil, err
	}
	return toQuestions(resp.Questions), nil
}

// GenerateJoinLink asks the backend to open a room for an interview.
func (c *Client) GenerateJoinLink(ctx context.Context, r domain.JoinLinkRequest) (*domain.JoinLink, error) {
	req := joinLinkRequest{
		InterviewerName:  r.InterviewerName,
		InterviewerEmail: r.InterviewerEmail,
		CandidateName:    r.CandidateName,
		CandidateEmail:   r.CandidateEmail,
		CandidatePhone:   r.CandidatePhone,
		ScheduledAt:      r.ScheduledAt.UTC().Format(time.RFC3339),
		JobDescription:   r.JobDescription,
	}
	var resp joinLinkResponse
	if err := c.post(ctx, OpGenerateJoinLink, "/api/generate_join_link", req, &resp); err != nil {
		return nil, err
	}
	return &domain.JoinLink{
		RoomID:          resp.RoomID,
		InterviewerLink: resp.InterviewerLink,
		CandidateLink:   resp.IntervieweeLink,
		Questions:       toQuestions(resp.GeneratedQuestions),
	}, nil
}

// GenerateReport asks the backend to analyse the interview held in roomID.
func (c *Client) GenerateReport(ctx context.Context, roomID string) (*domain.Report, error) {
	var resp reportResponse
	if err := c.post(ctx, OpGenerateReport, "/generate_report", reportRequest{RoomID: roomID}, &resp); err != nil {
		return nil, err
	}
	return resp.report(), nil
}

func (c *Client) post(ctx context.Context, op, path string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.sessionCookie != "" {
		req.Header.Set("Cookie", c.sessionCookie)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, 0, start)
		slog.Warn("recruit api request failed", "op", op, "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return &domain.BackendError{Op: op, Message: defaultMessages[op]}
	}
	defer resp.Body.Close()
	c.observe(op, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := errorMessage(raw)
		if msg == "" {
			msg = defaultMessages[op]
		}
		slog.Warn("recruit api returned error", "op", op, "status", resp.StatusCode, "message", msg)
		return &domain.BackendError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if dst == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &domain.BackendError{Op: op, StatusCode: resp.StatusCode, Message: defaultMessages[op]}
		}
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func (c *Client) observe(op string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(op, status, time.Since(start))
	}
}

// errorMessage extracts a human readable message from an error body. It
// understands {"detail": "..."}, {"detail": [{"msg": "..."}]},
// {"message": "..."} and {"error": "..."}.
func errorMessage(raw []byte) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		v, ok := body[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(v, &items); err == nil && len(items) > 0 && items[0].Msg != "" {
			return items[0].Msg
		}
	}
	return ""
}
