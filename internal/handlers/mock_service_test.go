package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"garage_door/internal/models"
	"garage_door/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// ---- Service Mocks ----

type mockCommander struct {
	mu   sync.Mutex
	resp models.Response
	err  error
	got  []models.Command
}

func (m *mockCommander) Submit(_ context.Context, cmd models.Command) (models.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, cmd)
	return m.resp, m.err
}

func (m *mockCommander) commands() []models.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Command(nil), m.got...)
}

type mockMonitoring struct {
	mu     sync.Mutex
	status models.Status
}

func (m *mockMonitoring) Status() models.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *mockMonitoring) set(st models.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = st
}

// ---- Shared Test Helpers ----

const testKey = "s3cret-key"

func testAuthHash(t *testing.T) []byte {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testKey), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return hash
}

func newTestRouter(t *testing.T, s *service.Service, metrics http.Handler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, testAuthHash(t), metrics, nil)
	return h.InitRoutes()
}

func authHeader(key string) http.Header {
	h := http.Header{}
	if key != "" {
		h.Set("Authorization", "Basic "+key)
	}
	return h
}

func withHeader(req *http.Request, hdr http.Header) *http.Request {
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
