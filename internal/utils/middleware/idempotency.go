package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/outbound"
	"github.com/botmarket/server/internal/utils/errors"
	"github.com/botmarket/server/internal/utils/logger"
)

const (
	// IdempotencyKeyHeader is the header for idempotency key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from the store.
	IdempotencyReplayedHeader = "Idempotency-Replayed"

	defaultIdempotencyTTL     = 24 * time.Hour
	defaultIdempotencyLockTTL = 30 * time.Second
)

// IdempotencyConfig holds idempotency middleware configuration.
type IdempotencyConfig struct {
	// TTL is the time to live for stored responses.
	TTL time.Duration
	// LockTTL bounds how long an in-progress request holds its key.
	LockTTL time.Duration
	// Methods are the HTTP methods to apply idempotency check.
	// Default: POST
	Methods []string
}

// DefaultIdempotencyConfig returns the default idempotency configuration.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     defaultIdempotencyTTL,
		LockTTL: defaultIdempotencyLockTTL,
		Methods: []string{http.MethodPost},
	}
}

// idempotencyResponseWriter wraps gin.ResponseWriter to capture the response.
type idempotencyResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency returns a middleware that replays the stored response for a
// repeated Idempotency-Key. A key reused with a different body is rejected.
// A nil store disables the middleware; store errors let the request through.
func Idempotency(store outbound.IdempotencyStorePort, cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL == 0 {
		cfg.TTL = defaultIdempotencyTTL
	}
	if cfg.LockTTL == 0 {
		cfg.LockTTL = defaultIdempotencyLockTTL
	}
	if len(cfg.Methods) == 0 {
		cfg.Methods = []string{http.MethodPost}
	}

	methodSet := make(map[string]bool)
	for _, m := range cfg.Methods {
		methodSet[m] = true
	}

	return func(c *gin.Context) {
		if store == nil || !methodSet[c.Request.Method] {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		cacheKey := idempotencyCacheKey(c, key)
		bodyHash, err := hashBody(c)
		if err != nil {
			abort(c, errors.BadRequest("unreadable request body"))
			return
		}

		cached, err := store.Get(ctx, cacheKey)
		if err != nil {
			log.Warn("idempotency lookup failed", logger.Err(err))
		}
		if cached != nil {
			replay(c, cached, bodyHash)
			return
		}

		locked, err := store.Lock(ctx, cacheKey, cfg.LockTTL)
		if err != nil {
			log.Warn("idempotency lock failed", logger.Err(err))
			c.Next()
			return
		}
		if !locked {
			appErr := errors.Conflict("A request with this idempotency key is already being processed")
			appErr.Code = "REQUEST_IN_PROGRESS"
			abort(c, appErr)
			return
		}

		unlockCtx := context.WithoutCancel(ctx)
		defer func() {
			if err := store.Unlock(unlockCtx, cacheKey); err != nil {
				log.Warn("idempotency unlock failed", logger.Err(err))
			}
		}()

		// The first request may have finished between Get and Lock.
		if cached, err := store.Get(ctx, cacheKey); err == nil && cached != nil {
			replay(c, cached, bodyHash)
			return
		}

		respWriter := &idempotencyResponseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = respWriter

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 500 {
			return
		}

		headers := make(map[string]string)
		for k := range c.Writer.Header() {
			if k == RequestIDHeader {
				continue
			}
			headers[k] = c.Writer.Header().Get(k)
		}
		resp := &model.CachedResponse{
			StatusCode:  status,
			Headers:     headers,
			Body:        respWriter.body.Bytes(),
			RequestHash: bodyHash,
		}
		if err := store.Save(unlockCtx, cacheKey, resp, cfg.TTL); err != nil {
			log.Warn("idempotency save failed", logger.Err(err))
		}
	}
}

// idempotencyCacheKey scopes the client key to the route and the caller.
func idempotencyCacheKey(c *gin.Context, key string) string {
	hash := sha256.Sum256([]byte(c.Request.Method + ":" + c.FullPath() + ":" + GetSubject(c) + ":" + key))
	return hex.EncodeToString(hash[:])
}

// hashBody hashes the request body and restores it for the handler.
func hashBody(c *gin.Context) (string, error) {
	if c.Request.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:]), nil
}

// replay answers with a stored response, or rejects a key reused with another body.
func replay(c *gin.Context, cached *model.CachedResponse, bodyHash string) {
	if cached.RequestHash != bodyHash {
		appErr := errors.ValidationError("Idempotency-Key was already used with a different request body")
		appErr.Code = "IDEMPOTENCY_KEY_REUSED"
		abort(c, appErr)
		return
	}
	for k, v := range cached.Headers {
		c.Header(k, v)
	}
	c.Header(IdempotencyReplayedHeader, "true")
	c.Data(cached.StatusCode, c.Writer.Header().Get("Content-Type"), cached.Body)
	c.Abort()
}
