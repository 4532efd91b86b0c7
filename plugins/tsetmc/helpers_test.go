package tsetmc

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeTSETMC serves canned bodies keyed by URL path and counts requests
type fakeTSETMC struct {
	server *httptest.Server
	bodies map[string]string
	status map[string]int
	hits   atomic.Int32

	mu    sync.Mutex
	paths []string
}

func newFakeTSETMC(t *testing.T) *fakeTSETMC {
	t.Helper()
	f := &fakeTSETMC{
		bodies: map[string]string{},
		status: map[string]int{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		path := strings.TrimPrefix(r.URL.EscapedPath(), "/api")
		f.mu.Lock()
		f.paths = append(f.paths, path)
		f.mu.Unlock()

		if code, ok := f.status[path]; ok {
			w.WriteHeader(code)
			return
		}
		body, ok := f.bodies[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

// requested returns the escaped paths served so far
func (f *fakeTSETMC) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func (f *fakeTSETMC) client() *Client {
	return NewClient(f.server.URL+"/api", "", 0)
}

func (f *fakeTSETMC) tools() (*StockTools, *MemoryCache) {
	cache := NewMemoryCache()
	st := NewStockTools(f.client(), cache, nil, nil)
	st.Now = func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC) }
	return st, cache
}

func ptr(v float64) *float64 { return &v }
