package cache

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/anonto42/yatube/internal/monitoring"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// cachedResponse is what Page stores for one URL.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type recordingWriter struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Page caches successful GET responses of the wrapped handler for ttl.
// Entries are keyed by prefix and the full request URI, so each page of a
// listing is cached separately. A hit replays the stored bytes unchanged.
func Page(store Store, ttl time.Duration, prefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				return next(c)
			}
			ctx := req.Context()
			key := prefix + ":" + req.URL.RequestURI()

			raw, ok, err := store.Get(ctx, key)
			if err != nil {
				log.WithError(err).WithField("key", key).Warn("response cache lookup failed")
			}
			if ok {
				var cached cachedResponse
				if err := json.Unmarshal(raw, &cached); err == nil {
					monitoring.ResponseCacheLookups.WithLabelValues(prefix, "hit").Inc()
					return c.Blob(cached.Status, cached.ContentType, cached.Body)
				}
				log.WithField("key", key).Warn("discarding undecodable cache entry")
			}
			monitoring.ResponseCacheLookups.WithLabelValues(prefix, "miss").Inc()

			res := c.Response()
			writer := &recordingWriter{ResponseWriter: res.Writer}
			res.Writer = writer
			defer func() { res.Writer = writer.ResponseWriter }()

			if err := next(c); err != nil {
				return err
			}
			if res.Status != http.StatusOK || req.Method != http.MethodGet {
				return nil
			}
			entry, err := json.Marshal(cachedResponse{
				Status:      res.Status,
				ContentType: res.Header().Get(echo.HeaderContentType),
				Body:        writer.body.Bytes(),
			})
			if err != nil {
				return nil
			}
			if err := store.Set(ctx, key, entry, ttl); err != nil {
				log.WithError(err).WithField("key", key).Warn("response cache store failed")
			}
			return nil
		}
	}
}
