// Package client talks to the monitoring backend that proxies Zabbix. Every
// call carries the user's bearer token; the backend enforces the same role
// rules the UI does.
package client

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

	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/rs/zerolog/log"
)

var (
	// ErrUnauthorized means the session is missing or expired.
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrForbidden means the user's role is too low for the call.
	ErrForbidden = errors.New("backend: forbidden")
)

// APIError is any other non-2xx answer of the backend.
type APIError struct {
	Resource string
	Status   int
	Detail   string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend %s failed with status %d: %s", e.Resource, e.Status, e.Detail)
	}
	return fmt.Sprintf("backend %s failed with status %d", e.Resource, e.Status)
}

// Observer records backend call latency; *metrics.Metrics implements it.
type Observer interface {
	ObserveBackend(resource string, status int, d time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveBackend(string, int, time.Duration) {}

// Config holds the backend location.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
	now        func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithObserver reports call latency to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithClock overrides time.Now when resolving period windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a backend client.
func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		observer:   noopObserver{},
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Identity returns the account that owns token.
func (c *Client) Identity(ctx context.Context, token string) (model.User, error) {
	return c.Session(token).Me(ctx)
}

// Session binds the client to a bearer token.
func (c *Client) Session(token string) *Session {
	return &Session{c: c, token: strings.TrimSpace(token)}
}

// Session issues calls on behalf of one user.
type Session struct {
	c     *Client
	token string
}

// Token returns the bearer token of the session.
func (s *Session) Token() string { return s.token }

// ===== inventory =====

// Companies lists the companies the user may see.
func (s *Session) Companies(ctx context.Context) ([]model.Company, error) {
	return getList[model.Company](ctx, s, "companies", "/me/empresas", nil)
}

// Hosts lists the Zabbix hosts of a company.
func (s *Session) Hosts(ctx context.Context, companyID string) ([]model.Host, error) {
	return getList[model.Host](ctx, s, "hosts", "/zabbix/hosts/"+url.PathEscape(companyID), nil)
}

// ===== dashboard collections =====

// AlertHistory returns the alerts of the scope's window, optionally for one host.
func (s *Session) AlertHistory(ctx context.Context, scope model.Scope) ([]model.Alert, error) {
	return getList[model.Alert](ctx, s, "alerts", "/zabbix/alerts/history/"+url.PathEscape(scope.CompanyID), s.windowQuery(scope))
}

// EventLog returns the problem/resolution events of the scope's window.
func (s *Session) EventLog(ctx context.Context, scope model.Scope) ([]model.EventLogEntry, error) {
	return getList[model.EventLogEntry](ctx, s, "events", "/zabbix/events/log/"+url.PathEscape(scope.CompanyID), s.windowQuery(scope))
}

// TopConsumers returns the top cpu and memory hosts of the company.
func (s *Session) TopConsumers(ctx context.Context, scope model.Scope) (model.TopConsumers, error) {
	out, err := getObject[model.TopConsumers](ctx, s, "top_consumers", "/zabbix/metrics/top_consumers/"+url.PathEscape(scope.CompanyID), nil)
	out.CPU = nonNil(out.CPU)
	out.Memory = nonNil(out.Memory)
	return out, err
}

// ===== host view =====

// HostTriggers returns the host's triggers as grouped by the backend.
func (s *Session) HostTriggers(ctx context.Context, scope model.Scope) (model.GroupedTriggers, error) {
	return getObject[model.GroupedTriggers](ctx, s, "host_triggers", s.hostPath("/zabbix/triggers/host/", scope), nil)
}

// KeyMetrics returns the fast-moving gauges of a host.
func (s *Session) KeyMetrics(ctx context.Context, scope model.Scope) ([]model.KeyMetric, error) {
	return getList[model.KeyMetric](ctx, s, "key_metrics", s.hostPath("/zabbix/metrics/key_metrics/", scope), nil)
}

// SystemInfo returns identity and os details of a host.
func (s *Session) SystemInfo(ctx context.Context, scope model.Scope) (model.SystemInfo, error) {
	return getObject[model.SystemInfo](ctx, s, "host_info", s.hostPath("/zabbix/host/info/", scope), nil)
}

// ===== assistant =====

// Chat sends a question to the AI assistant. The answer is opaque text.
func (s *Session) Chat(ctx context.Context, question string, companyID int) (string, error) {
	var out model.ChatResponse
	body := model.ChatRequest{Question: question, CompanyID: companyID}
	if err := s.do(ctx, "chat", http.MethodPost, "/chat/", nil, body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// GenerateReport asks the assistant for a report about one host. It can take
// as long as the client timeout allows.
func (s *Session) GenerateReport(ctx context.Context, in model.ReportRequest) (model.Report, error) {
	var out model.Report
	err := s.do(ctx, "report", http.MethodPost, "/reports/generate", nil, in, &out)
	return out, err
}

// ===== health trend & inventory =====

// HealthTrend returns the hourly cpu and memory averages of the company.
func (s *Session) HealthTrend(ctx context.Context, companyID string, period model.Period) ([]model.TrendPoint, error) {
	q := url.Values{}
	q.Set("period", string(period))
	points, err := getList[model.TrendPoint](ctx, s, "health_trend", "/zabbix/history/aggregated/"+url.PathEscape(companyID), q)
	for i := range points {
		points[i].TopCPU = nonNil(points[i].TopCPU)
		points[i].TopMemory = nonNil(points[i].TopMemory)
	}
	return points, err
}

// Inventory lists the company's hosts with their inventory fields, optionally
// narrowed to names containing filter.
func (s *Session) Inventory(ctx context.Context, companyID, filter string) ([]model.InventoryHost, error) {
	var q url.Values
	if filter = strings.TrimSpace(filter); filter != "" {
		q = url.Values{}
		q.Set("filter", filter)
	}
	return getList[model.InventoryHost](ctx, s, "inventory", "/zabbix/inventory/"+url.PathEscape(companyID), q)
}

// ===== profile =====

// Me returns the account that owns the session token.
func (s *Session) Me(ctx context.Context) (model.User, error) {
	var out model.User
	err := s.do(ctx, "me", http.MethodGet, "/me", nil, nil, &out)
	return out, err
}

// UpdateMe changes the caller's own profile.
func (s *Session) UpdateMe(ctx context.Context, in model.ProfileUpdate) (model.User, error) {
	var out model.User
	err := s.do(ctx, "me", http.MethodPatch, "/me", nil, in, &out)
	return out, err
}

// ===== management =====

// AllCompanies lists every registered company.
func (s *Session) AllCompanies(ctx context.Context) ([]model.Company, error) {
	return getList[model.Company](ctx, s, "companies_admin", "/empresas/", nil)
}

// CreateCompany registers a company with its Zabbix credentials.
func (s *Session) CreateCompany(ctx context.Context, in model.CompanyCreate) (model.Company, error) {
	var out model.Company
	err := s.do(ctx, "companies_admin", http.MethodPost, "/empresas/", nil, in, &out)
	return out, err
}

// DeleteCompany removes a company.
func (s *Session) DeleteCompany(ctx context.Context, companyID int) error {
	return s.do(ctx, "companies_admin", http.MethodDelete, "/empresas/"+strconv.Itoa(companyID), nil, nil, nil)
}

// Users lists every account.
func (s *Session) Users(ctx context.Context) ([]model.User, error) {
	return getList[model.User](ctx, s, "users", "/usuarios/", nil)
}

// UpdateUserRole changes a user's role and returns the updated account.
func (s *Session) UpdateUserRole(ctx context.Context, userID int, role string) (model.User, error) {
	var out model.User
	body := map[string]string{"role": role}
	err := s.do(ctx, "users", http.MethodPut, fmt.Sprintf("/usuarios/%d/role", userID), nil, body, &out)
	return out, err
}

// AssignCompany grants a user access to a company.
func (s *Session) AssignCompany(ctx context.Context, userID, companyID int) (model.User, error) {
	var out model.User
	err := s.do(ctx, "users", http.MethodPost, fmt.Sprintf("/usuarios/%d/empresas/%d", userID, companyID), nil, nil, &out)
	return out, err
}

// UnassignCompany revokes a user's access to a company.
func (s *Session) UnassignCompany(ctx context.Context, userID, companyID int) (model.User, error) {
	var out model.User
	err := s.do(ctx, "users", http.MethodDelete, fmt.Sprintf("/usuarios/%d/empresas/%d", userID, companyID), nil, nil, &out)
	return out, err
}

// ===== plumbing =====

func (s *Session) windowQuery(scope model.Scope) url.Values {
	from, till := scope.Range(s.c.now())
	q := url.Values{}
	q.Set("time_from", strconv.FormatInt(from, 10))
	q.Set("time_till", strconv.FormatInt(till, 10))
	if scope.Period != "" && scope.From <= 0 && scope.Till <= 0 {
		q.Set("period", string(scope.Period))
	}
	if scope.HostID != "" {
		q.Set("hostids", scope.HostID)
	}
	return q
}

func (s *Session) hostPath(prefix string, scope model.Scope) string {
	return prefix + url.PathEscape(scope.CompanyID) + "/" + url.PathEscape(scope.HostID)
}

// getList decodes a JSON array. A body of another shape, or with any element
// of another shape, degrades to an empty list.
func getList[T any](ctx context.Context, s *Session, resource, path string, q url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := s.do(ctx, resource, http.MethodGet, path, q, nil, &raw); err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn().Err(err).Str("resource", resource).Msg("unexpected backend payload, using empty list")
		return []T{}, nil
	}
	return nonNil(out), nil
}

// getObject decodes a JSON object. A body of another shape degrades to the zero value.
func getObject[T any](ctx context.Context, s *Session, resource, path string, q url.Values) (T, error) {
	var zero T
	var raw json.RawMessage
	if err := s.do(ctx, resource, http.MethodGet, path, q, nil, &raw); err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn().Err(err).Str("resource", resource).Msg("unexpected backend payload, using empty value")
		return zero, nil
	}
	return out, nil
}

func (s *Session) do(ctx context.Context, resource, method, path string, q url.Values, in, out interface{}) error {
	if s.token == "" {
		return ErrUnauthorized
	}

	reqURL := s.c.baseURL + path
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		bs, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.c.httpClient.Do(req)
	if err != nil {
		s.c.observer.ObserveBackend(resource, 0, time.Since(start))
		return fmt.Errorf("backend %s request failed: %w", resource, err)
	}
	defer resp.Body.Close()
	s.c.observer.ObserveBackend(resource, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", resource, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, detailOf(data))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &APIError{Resource: resource, Status: resp.StatusCode, Detail: detailOf(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resource, err)
	}
	return nil
}

// detailOf extracts the backend's "detail" message, falling back to the raw body.
func detailOf(data []byte) string {
	var body struct {
		Detail interface{} `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			return s
		}
		if bs, err := json.Marshal(body.Detail); err == nil {
			return string(bs)
		}
	}
	return strings.TrimSpace(string(data))
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// IsAuth reports whether err ends the user's session.
func IsAuth(err error) bool { return errors.Is(err, ErrUnauthorized) }
