package middleware

import (
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the response types served by the API and the
// static player loader.
var compressibleTypes = []string{
	"application/json",
	"application/problem+json",
	"application/javascript",
	"text/html",
	"text/css",
	"text/plain",
}

// Compress negotiates br, gzip or deflate for textual responses.
func Compress(level int) func(http.Handler) http.Handler {
	c := chimiddleware.NewCompressor(level, compressibleTypes...)
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c.Handler
}
