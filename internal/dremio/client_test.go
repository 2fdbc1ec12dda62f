package dremio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type fakeDremio struct {
	t          *testing.T
	logins     atomic.Int64
	queries    atomic.Int64
	rejectOnce atomic.Bool
	sqlStatus  int
	sqlBody    string
}

func (f *fakeDremio) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /apiv2/login", func(w http.ResponseWriter, r *http.Request) {
		f.logins.Add(1)
		var creds struct {
			UserName string `json:"userName"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			f.t.Errorf("decode login: %v", err)
		}
		if creds.UserName != "svc" || creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		n := f.logins.Load()
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok" + string(rune('0'+n))})
	})
	mux.HandleFunc("POST /apiv2/sql", func(w http.ResponseWriter, r *http.Request) {
		f.queries.Add(1)
		auth := r.Header.Get("Authorization")
		if len(auth) < 7 || auth[:7] != "_dremio" {
			f.t.Errorf("bad auth header %q", auth)
		}
		if f.rejectOnce.CompareAndSwap(true, false) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.sqlStatus != 0 {
			w.WriteHeader(f.sqlStatus)
			_, _ = w.Write([]byte(f.sqlBody))
			return
		}
		_, _ = w.Write([]byte(`{
			"columns": [{"name":"monitoringSiteIdentifier"},{"name":"resultObservedValue"}],
			"rows": [
				{"row":[{"v":"SE001"},{"v":4.2}]},
				{"row":[{"v":"SE002"},{"v":null}]}
			]
		}`))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeDremio) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c, err := New(Config{Server: srv.URL, Username: "svc", Password: "secret"}, srv.Client(), nil)
	if err != nil {
		t.Fatalf("client setup: %v", err)
	}
	return c
}

func TestNew_RequiresCredentials(t *testing.T) {
	if _, err := New(Config{Server: "http://x"}, nil, nil); err == nil {
		t.Fatalf("missing credentials accepted")
	}
	if _, err := New(Config{Username: "u", Password: "p"}, nil, nil); err == nil {
		t.Fatalf("missing server accepted")
	}
}

func TestQuery_LoginOnceAndFlatten(t *testing.T) {
	f := &fakeDremio{t: t}
	c := newTestClient(t, f)

	rows, err := c.Query(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d want 2", len(rows))
	}
	if rows[0]["monitoringSiteIdentifier"] != "SE001" || rows[0]["resultObservedValue"] != 4.2 {
		t.Fatalf("row0=%v", rows[0])
	}
	if rows[1]["resultObservedValue"] != nil {
		t.Fatalf("null cell not preserved: %v", rows[1])
	}

	// second query reuses the cached token
	if _, err := c.Query(context.Background(), "SELECT 2"); err != nil {
		t.Fatalf("second query: %v", err)
	}
	if got := f.logins.Load(); got != 1 {
		t.Fatalf("logins=%d want 1", got)
	}
}

func TestQuery_ReauthenticatesOnceOn401(t *testing.T) {
	f := &fakeDremio{t: t}
	f.rejectOnce.Store(true)
	c := newTestClient(t, f)

	rows, err := c.Query(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("query after reauth: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d", len(rows))
	}
	if got := f.logins.Load(); got != 2 {
		t.Fatalf("logins=%d want 2 (initial + refresh)", got)
	}
}

func TestQuery_ServerErrorIsUnavailable(t *testing.T) {
	f := &fakeDremio{t: t, sqlStatus: http.StatusBadGateway}
	c := newTestClient(t, f)

	_, err := c.Query(context.Background(), "SELECT 1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}
}

func TestQuery_BadRequestSurfacesMessage(t *testing.T) {
	f := &fakeDremio{t: t, sqlStatus: http.StatusBadRequest, sqlBody: `{"errorMessage":"Table not found"}`}
	c := newTestClient(t, f)

	_, err := c.Query(context.Background(), "SELECT broken")
	if err == nil || errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v want plain query error", err)
	}
	if got := err.Error(); !strings.Contains(got, "Table not found") {
		t.Fatalf("error lost upstream message: %s", got)
	}
}

func TestPing(t *testing.T) {
	f := &fakeDremio{t: t}
	c := newTestClient(t, f)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
