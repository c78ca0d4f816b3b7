package middleware

import (
	"bytes"
	"net/http"
	"time"

	"freightops/internal/cache"
	"freightops/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyHeader is the request header clients set to make a write safe to retry
const IdempotencyHeader = "Idempotency-Key"

// ReplayedHeader marks a response served from the idempotency store
const ReplayedHeader = "Idempotent-Replayed"

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// A key still in flight answers 409. Server errors release the key so the
// client may retry. Requests without the header pass through untouched.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || store == nil || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		// keys are scoped per user and route so two clients cannot collide
		scoped := c.GetString(ContextUserID) + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
		ctx := c.Request.Context()

		record, err := store.Get(ctx, scoped)
		if err != nil {
			logger.Error("idempotency lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "internal server error"))
			return
		}
		if record != nil {
			replay(c, record)
			return
		}

		reserved, err := store.Reserve(ctx, scoped, ttl)
		if err != nil {
			logger.Error("idempotency reserve failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "internal server error"))
			return
		}
		if !reserved {
			// lost the race to a concurrent request with the same key
			c.AbortWithStatusJSON(http.StatusConflict, response.Error(http.StatusConflict, "request with this Idempotency-Key is in progress"))
			return
		}

		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		status := writer.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Release(ctx, scoped); err != nil {
				logger.Warn("idempotency release failed", zap.Error(err))
			}
			return
		}
		err = store.Complete(ctx, scoped, cache.Record{
			StatusCode:  status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
		}, ttl)
		if err != nil {
			logger.Warn("idempotency store failed", zap.Error(err))
		}
	}
}

func replay(c *gin.Context, record *cache.Record) {
	if record.State != cache.StateCompleted {
		c.AbortWithStatusJSON(http.StatusConflict, response.Error(http.StatusConflict, "request with this Idempotency-Key is in progress"))
		return
	}
	contentType := record.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Header(ReplayedHeader, "true")
	c.Data(record.StatusCode, contentType, record.Body)
	c.Abort()
}
