package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]int
}

func (o *recordingObserver) ObserveBackend(resource string, status int, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = map[string]int{}
	}
	o.calls[resource] = status
}

var fixedNow = time.Unix(1_700_000_000, 0)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, opts...)
}

func TestAlertHistory_SendsWindowAndToken(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/zabbix/alerts/history/7", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "1700000000", q.Get("time_till"))
		assert.Equal(t, "1699395200", q.Get("time_from"))
		assert.Equal(t, "7d", q.Get("period"))
		assert.Equal(t, "10084", q.Get("hostids"))
		_, _ = w.Write([]byte(`[{"triggerid":"1","description":"DB down","priority":"5","hosts":[{"name":"pg"}],"lastchange":"1699999000","value":"1"}]`))
	}, WithObserver(obs))

	alerts, err := c.Session("tok").AlertHistory(context.Background(),
		model.Scope{CompanyID: "7", HostID: "10084", Period: model.Period7d})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, 5, alerts[0].Severity)
	assert.Equal(t, []string{"pg"}, alerts[0].Hosts)
	assert.False(t, alerts[0].Resolved)
	assert.Equal(t, http.StatusOK, obs.calls["alerts"])
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"expired"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.True(t, IsAuth(err))
		}},
		{"forbidden", http.StatusForbidden, `{"detail":"Permissão insuficiente"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrForbidden)
			assert.Contains(t, err.Error(), "Permissão insuficiente")
		}},
		{"server error", http.StatusInternalServerError, `{"detail":"zabbix down"}`, func(t *testing.T, err error) {
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
			assert.Equal(t, "zabbix down", apiErr.Detail)
		}},
		{"plain body", http.StatusBadGateway, `bad gateway`, func(t *testing.T, err error) {
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "bad gateway", apiErr.Detail)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Session("tok").Companies(context.Background())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	_, err := c.Session("  ").Hosts(context.Background(), "1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, called)
}

func TestMalformedPayloadDegradesToEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	})
	s := c.Session("tok")

	alerts, err := s.AlertHistory(context.Background(), model.Scope{CompanyID: "1"})
	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)

	events, err := s.EventLog(context.Background(), model.Scope{CompanyID: "1"})
	require.NoError(t, err)
	assert.Empty(t, events)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	})
	top, err := c.Session("tok").TopConsumers(context.Background(), model.Scope{CompanyID: "1"})
	require.NoError(t, err)
	assert.NotNil(t, top.CPU)
	assert.NotNil(t, top.Memory)

	// one bad element discards the whole list
	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"triggerid":"1","description":"DB down","priority":"5"},42,{"triggerid":"3","description":"CPU high","priority":"2"}]`))
	})
	alerts, err = c.Session("tok").AlertHistory(context.Background(), model.Scope{CompanyID: "1"})
	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"critical":"nope","ok":[{"triggerid":"3","priority":"2"}]}`))
	})
	triggers, err := c.Session("tok").HostTriggers(context.Background(), model.Scope{CompanyID: "1", HostID: "42"})
	require.NoError(t, err)
	assert.Empty(t, triggers.Flatten())
}

func TestHostTriggersAndChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/zabbix/triggers/host/1/42":
			_, _ = w.Write([]byte(`{"critical":[{"triggerid":"9","description":"down","priority":"4"}],"ok":[{"triggerid":"3","description":"fine","priority":"2"}]}`))
		case "/chat/":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var req model.ChatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 1, req.CompanyID)
			_, _ = w.Write([]byte(`{"response":"all good"}`))
		default:
			http.NotFound(w, r)
		}
	})
	s := c.Session("tok")

	g, err := s.HostTriggers(context.Background(), model.Scope{CompanyID: "1", HostID: "42"})
	require.NoError(t, err)
	flat := g.Flatten()
	require.Len(t, flat, 2)
	assert.True(t, flat[1].Resolved)

	answer, err := s.Chat(context.Background(), "why?", 1)
	require.NoError(t, err)
	assert.Equal(t, "all good", answer)
}

func TestUserManagement(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/usuarios/3/role":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"id":3,"email":"a@b.c","role":"` + body["role"] + `"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/usuarios/3/empresas/5":
			_, _ = w.Write([]byte(`{"id":3,"email":"a@b.c","role":"viewer","empresas":[{"id":5,"nome":"Acme"}]}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/empresas/5":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	})
	s := c.Session("tok")

	u, err := s.UpdateUserRole(context.Background(), 3, "operator")
	require.NoError(t, err)
	assert.Equal(t, "operator", u.Role)

	u, err = s.AssignCompany(context.Background(), 3, 5)
	require.NoError(t, err)
	require.Len(t, u.Companies, 1)
	assert.Equal(t, "Acme", u.Companies[0].Name)

	require.NoError(t, s.DeleteCompany(context.Background(), 5))

	_, err = s.UnassignCompany(context.Background(), 3, 5)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
