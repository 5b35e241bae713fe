package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Isingizwe12/taskboard/internal/identity"
	"github.com/Isingizwe12/taskboard/internal/logging"
	"github.com/Isingizwe12/taskboard/internal/mesh"
	"github.com/Isingizwe12/taskboard/internal/store"
)

func newTestServer(t *testing.T, requireAuth bool) (*gin.Engine, *Server) {
	t.Helper()
	return newTestServerWith(t, requireAuth, nil)
}

// newTestServerWith lets configure replace collaborators before routes are built.
func newTestServerWith(t *testing.T, requireAuth bool, configure func(*Server)) (*gin.Engine, *Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := &Server{
		Store:       store.NewMemoryStore(),
		Identity:    identity.NewService(identity.NewMemoryUsers(), identity.NewMemoryRevoker(), []byte("test_secret"), time.Hour),
		Bus:         mesh.NewLocalBus(),
		Idempotency: NewMemoryIdempotency(),
		Logger:      logging.Discard(),
		RequireAuth: requireAuth,
	}
	if configure != nil {
		configure(s)
	}
	r, err := NewRouter(s, RouterConfig{})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return r, s
}

type call struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

func do(t *testing.T, r http.Handler, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := c.body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}
