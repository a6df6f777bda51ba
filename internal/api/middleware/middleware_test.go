package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/domain"
	apperrors "github.com/sahelshop/storefront/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memKeyStore struct {
	keys map[string]*domain.IdempotencyKey
}

func (m *memKeyStore) Get(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	if record, ok := m.keys[key]; ok {
		return record, nil
	}
	return nil, &apperrors.ErrNotFound{Resource: "idempotency_key", ID: key}
}

func (m *memKeyStore) Create(ctx context.Context, record *domain.IdempotencyKey) error {
	m.keys[record.Key] = record
	return nil
}

func bodyHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

func TestCartSessionMintsCookie(t *testing.T) {
	router := gin.New()
	router.Use(CartSession())

	var got string
	router.GET("/", func(c *gin.Context) {
		got = SessionID(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "cart_session", cookies[0].Name)
	assert.Equal(t, got, cookies[0].Value)
}

func TestCartSessionPrefersHeader(t *testing.T) {
	router := gin.New()
	router.Use(CartSession())

	var got string
	router.GET("/", func(c *gin.Context) {
		got = SessionID(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Cart-Session", "header-session")
	req.AddCookie(&http.Cookie{Name: "cart_session", Value: "cookie-session"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "header-session", got)
	// An existing session does not get a new cookie.
	assert.Empty(t, w.Result().Cookies())
}

func TestIdempotencyPassThroughWithoutKey(t *testing.T) {
	store := &memKeyStore{keys: make(map[string]*domain.IdempotencyKey)}
	router := gin.New()
	router.Use(Idempotency(store, zap.NewNop()))

	router.POST("/", func(c *gin.Context) {
		key, _, _, isExisting := IdempotencyInfo(c)
		assert.Empty(t, key)
		assert.False(t, isExisting)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"a":1}`)))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestIdempotencyReplayExposesOrder(t *testing.T) {
	store := &memKeyStore{keys: make(map[string]*domain.IdempotencyKey)}
	orderID := uuid.New()

	router := gin.New()
	router.Use(CartSession(), Idempotency(store, zap.NewNop()))

	var hashes []string
	router.POST("/", func(c *gin.Context) {
		key, hash, existingID, isExisting := IdempotencyInfo(c)
		hashes = append(hashes, hash)
		if isExisting {
			assert.Equal(t, orderID, existingID)
			c.JSON(http.StatusOK, gin.H{"order_id": existingID})
			return
		}
		// First attempt: store the key the way the checkout handler does.
		require.NoError(t, store.Create(c.Request.Context(), &domain.IdempotencyKey{
			Key: key, SessionID: SessionID(c), RequestHash: hash, OrderID: orderID,
		}))
		c.Status(http.StatusCreated)
	})

	body := `{"customer_name":"Awa"}`

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("X-Cart-Session", "shopper-1")
	req.Header.Set("Idempotency-Key", "k1")
	router.ServeHTTP(first, req)
	assert.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("X-Cart-Session", "shopper-1")
	req.Header.Set("Idempotency-Key", "k1")
	router.ServeHTTP(second, req)
	assert.Equal(t, http.StatusOK, second.Code)

	require.Len(t, hashes, 2)
	assert.Equal(t, hashes[0], hashes[1])
}

func TestIdempotencyKeyBoundToSession(t *testing.T) {
	orderID := uuid.New()
	store := &memKeyStore{keys: map[string]*domain.IdempotencyKey{
		"k1": {Key: "k1", SessionID: "shopper-1", RequestHash: bodyHash(`{"customer_name":"Awa"}`), OrderID: orderID},
	}}

	router := gin.New()
	router.Use(CartSession(), Idempotency(store, zap.NewNop()))
	router.POST("/", func(c *gin.Context) {
		t.Fatal("handler must not run for another session's key")
	})

	// Same key, byte-identical body, different shopper: the stored order
	// must not be exposed.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"customer_name":"Awa"}`))
	req.Header.Set("X-Cart-Session", "shopper-2")
	req.Header.Set("Idempotency-Key", "k1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestIdempotencyKeyReuseWithDifferentPayload(t *testing.T) {
	store := &memKeyStore{keys: map[string]*domain.IdempotencyKey{
		"k1": {Key: "k1", SessionID: "shopper-1", RequestHash: "stored-hash", OrderID: uuid.New()},
	}}

	router := gin.New()
	router.Use(CartSession(), Idempotency(store, zap.NewNop()))
	router.POST("/", func(c *gin.Context) {
		t.Fatal("handler must not run on a payload mismatch")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"different":true}`))
	req.Header.Set("X-Cart-Session", "shopper-1")
	req.Header.Set("Idempotency-Key", "k1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestIdempotencyBodyStaysReadable(t *testing.T) {
	store := &memKeyStore{keys: make(map[string]*domain.IdempotencyKey)}
	router := gin.New()
	router.Use(Idempotency(store, zap.NewNop()))

	var payload struct {
		CustomerName string `json:"customer_name"`
	}
	router.POST("/", func(c *gin.Context) {
		require.NoError(t, c.ShouldBindJSON(&payload))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"customer_name":"Awa"}`))
	req.Header.Set("Idempotency-Key", "k1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "Awa", payload.CustomerName)
}
