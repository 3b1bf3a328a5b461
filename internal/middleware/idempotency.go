package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyPrefix = "idempotency:"

	// How long a finished response is replayed.
	idempotencyTTL = 24 * time.Hour
	// How long a request may hold its key before a retry is let through.
	inFlightTTL = 30 * time.Second
)

// inFlight marks a key whose first request has not finished yet.
var inFlight = []byte(`{"in_flight":true}`)

// storedResponse is the replayable part of a handled request.
type storedResponse struct {
	Status      int             `json:"status"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
	InFlight    bool            `json:"in_flight,omitempty"`
}

// recordingWriter tees the response body into a buffer.
type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the stored response for a repeated
// Idempotency-Key on POST and DELETE, so a double-submitted booking form
// takes one seat. A duplicate that arrives while the first request is still
// running gets 409. A nil client disables the middleware.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	if redisClient == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodDelete {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		// The concrete path keeps one key reused across resources apart.
		redisKey := idempotencyPrefix + c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		claimed, err := redisClient.SetNX(ctx, redisKey, inFlight, inFlightTTL).Result()
		if err != nil {
			// Redis unavailable: serve without replay.
			c.Next()
			return
		}

		if !claimed {
			replay(c, redisClient, redisKey)
			return
		}

		w := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := w.Status()
		storeCtx := context.WithoutCancel(ctx)
		if status >= http.StatusInternalServerError {
			// Let the client retry a server failure.
			_ = redisClient.Del(storeCtx, redisKey).Err()
			return
		}

		data, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
		if err != nil {
			_ = redisClient.Del(storeCtx, redisKey).Err()
			return
		}
		_ = redisClient.Set(storeCtx, redisKey, data, idempotencyTTL).Err()
	}
}

// replay answers a repeated request from the stored response.
func replay(c *gin.Context, client *redis.Client, key string) {
	data, err := client.Get(c.Request.Context(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; handle as a fresh request.
		c.Next()
		return
	}
	if err != nil {
		c.Next()
		return
	}

	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil || stored.InFlight {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"success": false, "error": "request with this idempotency key is in progress"})
		return
	}

	contentType := stored.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(stored.Status, contentType, stored.Body)
	c.Abort()
}
