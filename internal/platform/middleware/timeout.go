package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout bounds each request with a context deadline. The handler
// runs on its own echo context against a buffered writer, and only the first
// of handler completion and deadline reaches the client: either the
// handler's buffered response or a 504 JSON body. Writes the handler makes
// after the deadline are discarded. Paths matching one of the skip prefixes
// run inline without a deadline.
func RequestTimeout(timeout time.Duration, skipPrefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, p := range skipPrefixes {
				if strings.HasPrefix(path, p) {
					return next(c)
				}
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			buf := &bufferedWriter{header: make(http.Header)}
			hc := detach(c, c.Request().WithContext(ctx), buf)

			done := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- fmt.Errorf("panic in handler: %v", r)
					}
				}()
				done <- next(hc)
			}()

			select {
			case err := <-done:
				buf.flush(c.Response())
				return err
			case <-ctx.Done():
				buf.discard()
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return gatewayTimeout(c)
				}
				// client went away
				return ctx.Err()
			}
		}
	}
}

// detach copies what handlers read from c onto a fresh context that writes
// to w. The fresh context is never returned to echo's pool, so a handler that
// outlives the deadline cannot touch a recycled one.
func detach(c echo.Context, req *http.Request, w http.ResponseWriter) echo.Context {
	hc := c.Echo().NewContext(req, w)
	hc.SetPath(c.Path())
	hc.SetParamNames(c.ParamNames()...)
	hc.SetParamValues(c.ParamValues()...)
	hc.SetHandler(c.Handler())
	if rid, ok := c.Get("request_id").(string); ok {
		hc.Set("request_id", rid)
	}
	return hc
}

func gatewayTimeout(c echo.Context) error {
	if c.Response().Committed {
		return nil
	}
	return c.JSON(http.StatusGatewayTimeout, map[string]string{
		"message": "request timed out",
	})
}

// bufferedWriter holds a handler's response until the middleware decides
// whether to send it. Once discarded it swallows every write.
type bufferedWriter struct {
	mu        sync.Mutex
	header    http.Header
	status    int
	body      bytes.Buffer
	discarded bool
}

func (w *bufferedWriter) Header() http.Header {
	return w.header
}

func (w *bufferedWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.discarded || w.status != 0 {
		return
	}
	w.status = code
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.discarded {
		return 0, http.ErrHandlerTimeout
	}
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *bufferedWriter) discard() {
	w.mu.Lock()
	w.discarded = true
	w.body.Reset()
	w.mu.Unlock()
}

// flush copies the buffered response onto res. A handler that wrote nothing
// leaves res untouched so echo's error handler can still answer.
func (w *bufferedWriter) flush(res *echo.Response) {
	w.mu.Lock()
	defer w.mu.Unlock()
	dst := res.Header()
	for k, v := range w.header {
		dst[k] = v
	}
	if w.status == 0 {
		return
	}
	res.WriteHeader(w.status)
	if w.body.Len() > 0 {
		_, _ = res.Write(w.body.Bytes())
	}
}
