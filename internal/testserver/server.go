// Package testserver provides a small JSON HTTP server used by the tests and
// by "apinette serve" to exercise the dispatch engine locally.
package testserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/wesleyorama2/apinette/pkg/value"
)

// DefaultPort is the port "apinette serve" listens on.
const DefaultPort = 8000

// maxDelay caps /delay/:ms.
const maxDelay = 30 * time.Second

// Todo is the document served for GET / and any unmatched path.
type Todo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var exampleTodo = Todo{
	Title:       "example",
	Description: "this is an example todo item",
}

// New builds the gin handler.
//
// Routes:
//
//	GET  /             example todo item
//	ANY  /echo         method, path, query, headers and body of the request
//	ANY  /status/:code responds with the given status and a JSON body
//	GET  /text         a text/plain body
//	ANY  /delay/:ms    sleeps, then responds like /
//	*                  example todo item
func New(log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))

	engine.GET("/", todo)
	engine.Any("/echo", echo)
	engine.Any("/status/:code", status)
	engine.GET("/text", func(c *gin.Context) {
		c.String(http.StatusOK, "plain text body")
	})
	engine.Any("/delay/:ms", delay)
	engine.NoRoute(todo)

	return engine
}

func todo(c *gin.Context) {
	c.JSON(http.StatusOK, exampleTodo)
}

func status(c *gin.Context) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil || code < 100 || code > 599 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status code"})
		return
	}
	c.JSON(code, gin.H{"status": code, "text": http.StatusText(code)})
}

func delay(c *gin.Context) {
	ms, err := strconv.Atoi(c.Param("ms"))
	if err != nil || ms < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delay"})
		return
	}
	d := min(time.Duration(ms)*time.Millisecond, maxDelay)

	select {
	case <-time.After(d):
		todo(c)
	case <-c.Request.Context().Done():
	}
}

func echo(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc := value.NewObject()
	doc.Set("method", value.String(c.Request.Method))
	doc.Set("path", value.String(c.Request.URL.Path))
	doc.Set("query", valuesObject(c.Request.URL.Query()))
	doc.Set("headers", valuesObject(c.Request.Header))
	doc.Set("body", value.String(string(body)))

	parsed := value.Null()
	if strings.HasPrefix(c.ContentType(), "application/json") && len(body) > 0 {
		if v, err := value.Decode(body); err == nil {
			parsed = v
		}
	}
	doc.Set("json", parsed)

	out, err := value.Encode(value.FromObject(doc))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

// valuesObject renders a multimap with sorted keys; repeated values are
// joined with ", ".
func valuesObject(m map[string][]string) value.Value {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	obj := value.NewObject()
	for _, k := range keys {
		obj.Set(k, value.String(strings.Join(m[k], ", ")))
	}
	return value.FromObject(obj)
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		status := c.Writer.Status()
		event := log.Debug()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client", c.ClientIP()).
			Msg("request served")
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down with a
// five second deadline. ready, if non-nil, receives the bound address.
func Serve(ctx context.Context, addr string, log zerolog.Logger, ready chan<- string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           New(log),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", listener.Addr().String()).Msg("test server started")
	if ready != nil {
		ready <- listener.Addr().String()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down test server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}
