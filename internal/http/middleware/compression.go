package middleware

import (
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the response types worth compressing. Stylesheets
// dominate the traffic of this service.
var compressibleTypes = []string{
	"text/css",
	"text/plain",
	"text/html",
	"application/json",
	"application/problem+json",
	"application/yaml",
}

// Compress returns a middleware that compresses responses with brotli, gzip
// or deflate depending on the client's Accept-Encoding.
func Compress(level int) func(http.Handler) http.Handler {
	c := chimiddleware.NewCompressor(level, compressibleTypes...)
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c.Handler
}
