package middlewares

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uhcare-backend/models"
)

type memIdempotencyStore struct {
	mu   sync.Mutex
	recs map[string]*models.IdempotencyKey
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{recs: make(map[string]*models.IdempotencyKey)}
}

func (s *memIdempotencyStore) Load(key string) (*models.IdempotencyKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recs[key]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, nil
}

func (s *memIdempotencyStore) Create(rec *models.IdempotencyKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[rec.Key]; ok {
		return false, nil
	}
	cp := *rec
	s.recs[rec.Key] = &cp
	return true, nil
}

func (s *memIdempotencyStore) Complete(key string, status int, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recs[key]; ok {
		rec.ResponseStatus = status
		rec.ResponseBody = body
	}
	return nil
}

func (s *memIdempotencyStore) Release(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, key)
	return nil
}

// markPending simulates an in-flight request holding the key.
func (s *memIdempotencyStore) markPending(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recs[key]; ok {
		rec.ResponseStatus = 0
		rec.ResponseBody = nil
	}
}

func newIdempotencyApp(store idempotencyStore, handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", "patient-1")
		c.Locals("role", models.RolePatient)
		return c.Next()
	})
	app.Use(idempotencyWith(store))
	app.Post("/checkout", handler)
	return app
}

func postCheckout(t *testing.T, app *fiber.App, key, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(raw)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemIdempotencyStore()
	executions := 0
	app := newIdempotencyApp(store, func(c *fiber.Ctx) error {
		executions++
		return c.JSON(fiber.Map{"execution": executions})
	})

	body := `{"items":[{"medicine_id":1,"quantity":2}]}`
	firstStatus, firstBody := postCheckout(t, app, "key-1", body)
	require.Equal(t, fiber.StatusOK, firstStatus)
	require.Equal(t, 1, executions)

	secondStatus, secondBody := postCheckout(t, app, "key-1", body)
	assert.Equal(t, 1, executions, "a replayed key must not run the handler again")
	assert.Equal(t, firstStatus, secondStatus)
	assert.Equal(t, firstBody, secondBody, "the stored response is served verbatim")
}

func TestIdempotencyRejectsKeyReuseWithDifferentRequest(t *testing.T) {
	store := newMemIdempotencyStore()
	executions := 0
	app := newIdempotencyApp(store, func(c *fiber.Ctx) error {
		executions++
		return c.JSON(fiber.Map{"ok": true})
	})

	status, _ := postCheckout(t, app, "key-1", `{"items":[{"medicine_id":1,"quantity":2}]}`)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = postCheckout(t, app, "key-1", `{"items":[{"medicine_id":9,"quantity":1}]}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, 1, executions)
}

func TestIdempotencyBlocksConcurrentPendingKey(t *testing.T) {
	store := newMemIdempotencyStore()
	executions := 0
	app := newIdempotencyApp(store, func(c *fiber.Ctx) error {
		executions++
		return c.JSON(fiber.Map{"ok": true})
	})

	body := `{"items":[{"medicine_id":1,"quantity":2}]}`
	status, _ := postCheckout(t, app, "key-1", body)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 1, executions)

	// First request still in flight: its record exists but has no response yet.
	store.markPending("key-1")

	status, _ = postCheckout(t, app, "key-1", body)
	assert.Equal(t, fiber.StatusConflict, status, "an in-flight key must not run the handler")
	assert.Equal(t, 1, executions)
}

func TestIdempotencyReleasesKeyOnHandlerError(t *testing.T) {
	store := newMemIdempotencyStore()
	executions := 0
	app := newIdempotencyApp(store, func(c *fiber.Ctx) error {
		executions++
		if executions == 1 {
			return fiber.NewError(fiber.StatusConflict, "not enough units available")
		}
		return c.JSON(fiber.Map{"ok": true})
	})

	body := `{"quantity":1}`
	status, _ := postCheckout(t, app, "key-1", body)
	require.Equal(t, fiber.StatusConflict, status)

	status, _ = postCheckout(t, app, "key-1", body)
	assert.Equal(t, fiber.StatusOK, status, "a failed attempt must not poison the key")
	assert.Equal(t, 2, executions)
}

func TestIdempotencyIgnoresRequestsWithoutKey(t *testing.T) {
	store := newMemIdempotencyStore()
	executions := 0
	app := newIdempotencyApp(store, func(c *fiber.Ctx) error {
		executions++
		return c.JSON(fiber.Map{"execution": executions})
	})

	postCheckout(t, app, "", `{"quantity":1}`)
	postCheckout(t, app, "", `{"quantity":1}`)
	assert.Equal(t, 2, executions)
}
