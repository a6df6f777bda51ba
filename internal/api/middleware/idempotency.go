package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/repository"
	apperrors "github.com/sahelshop/storefront/pkg/errors"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	idempotencyKeyCtxKey   = "idempotency_key"
	idempotencyHashCtxKey  = "idempotency_hash"
	idempotencyOrderCtxKey = "idempotency_order_id"
)

// Idempotency resolves the Idempotency-Key header against stored keys. A
// replay with the same key and payload from the same session exposes the
// existing order id; the same key from another session or with a different
// payload is rejected.
func Idempotency(keys repository.IdempotencyRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		sum := sha256.Sum256(body)
		hash := hex.EncodeToString(sum[:])

		c.Set(idempotencyKeyCtxKey, key)
		c.Set(idempotencyHashCtxKey, hash)

		existing, err := keys.Get(c.Request.Context(), key)
		if err != nil {
			var notFound *apperrors.ErrNotFound
			if errors.As(err, &notFound) {
				c.Next()
				return
			}
			logger.Error("Failed to look up idempotency key", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		// A stored key is bound to the session that created it; another
		// session presenting the same key must not see that order.
		if existing.SessionID != SessionID(c) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "idempotency key was already used by another session",
			})
			return
		}

		if existing.RequestHash != hash {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "idempotency key was already used with a different payload",
			})
			return
		}

		c.Set(idempotencyOrderCtxKey, existing.OrderID)
		c.Next()
	}
}

// IdempotencyInfo returns the key, request hash, existing order id and
// whether a stored order matched the key.
func IdempotencyInfo(c *gin.Context) (key, hash string, existingOrderID uuid.UUID, isExisting bool) {
	key = c.GetString(idempotencyKeyCtxKey)
	hash = c.GetString(idempotencyHashCtxKey)
	if v, ok := c.Get(idempotencyOrderCtxKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return key, hash, id, true
		}
	}
	return key, hash, uuid.Nil, false
}
