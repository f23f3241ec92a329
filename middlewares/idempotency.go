package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"uhcare-backend/database"
	"uhcare-backend/models"
)

// idempotencyStore persists the first response recorded under a key. The
// gorm-backed store is the production implementation; tests swap in an
// in-memory one.
type idempotencyStore interface {
	// Load returns the record for key, or nil when none exists.
	Load(key string) (*models.IdempotencyKey, error)
	// Create inserts a pending record. Returns false when the key already
	// exists (lost a unique-index race).
	Create(rec *models.IdempotencyKey) (bool, error)
	// Complete stores the final response under key.
	Complete(key string, status int, body []byte) error
	// Release drops a still-pending record so the client can retry after a
	// failed attempt.
	Release(key string) error
}

type gormIdempotencyStore struct{}

func (gormIdempotencyStore) Load(key string) (*models.IdempotencyKey, error) {
	var rec models.IdempotencyKey
	err := database.DB.Where("key = ?", key).First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (gormIdempotencyStore) Create(rec *models.IdempotencyKey) (bool, error) {
	if err := database.DB.Create(rec).Error; err != nil {
		// Most likely the unique index fired: another request created the
		// key first. The caller re-reads and treats that record as canonical.
		return false, nil
	}
	return true, nil
}

func (gormIdempotencyStore) Complete(key string, status int, body []byte) error {
	now := time.Now().UTC()
	return database.DB.Model(&models.IdempotencyKey{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"response_status": status,
			"response_body":   body,
			"completed_at":    &now,
		}).Error
}

func (gormIdempotencyStore) Release(key string) error {
	return database.DB.Where("key = ? AND response_status = 0", key).
		Delete(&models.IdempotencyKey{}).Error
}

// Idempotency processes Idempotency-Key for mutating HTTP methods so retried
// checkouts (bookings, pharmacy, equipment) replay the stored response instead
// of charging twice. It persists outside the request transaction on purpose:
// the stored response must survive a handler rollback.
func Idempotency() fiber.Handler {
	return idempotencyWith(gormIdempotencyStore{})
}

func idempotencyWith(store idempotencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return fiber.NewError(fiber.StatusBadRequest, "Idempotency-Key too long")
		}

		userID, _ := c.Locals("userID").(string)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "auth context missing")
		}

		path := c.OriginalURL() // includes query string
		reqHash := requestHash(method, path, c.Body(), userID)

		existing, err := store.Load(key)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
		}
		if existing == nil {
			rec := &models.IdempotencyKey{
				Key:         key,
				RequestHash: reqHash,
				Method:      method,
				Path:        path,
				UserID:      userID,
			}
			created, err := store.Create(rec)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
			}
			if !created {
				// Unique race: adopt the winner's record.
				if existing, err = store.Load(key); err != nil || existing == nil {
					return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
				}
			}
		}

		if existing != nil {
			if existing.RequestHash != reqHash {
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			if existing.ResponseStatus != 0 && existing.ResponseBody != nil {
				// Replay the stored response. Returning here is what keeps the
				// handler from running a second time.
				c.Status(existing.ResponseStatus)
				return c.Send(existing.ResponseBody)
			}
			// A pending record we did not create: the first request with this
			// key is still in flight.
			return fiber.NewError(fiber.StatusConflict, "a request with this Idempotency-Key is still in progress")
		}

		// We own the pending record; run the handler exactly once.
		if err := c.Next(); err != nil {
			// Free the key so the client can retry the failed attempt.
			_ = store.Release(key)
			return err
		}

		resp := c.Response().Body()
		blob := make([]byte, len(resp))
		copy(blob, resp)
		_ = store.Complete(key, c.Response().StatusCode(), blob)

		return nil
	}
}

// requestHash fingerprints method|path|body|user so a reused key with a
// different request is detectable.
func requestHash(method, path string, body []byte, userID string) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write(body)
	h.Write([]byte{'\n'})
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}
