package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
)

// CompressionConfig holds response compression settings
type CompressionConfig struct {
	BrotliLevel       int
	GzipLevel         int
	MinSizeBytes      int
	CompressibleTypes []string
}

// DefaultCompressionConfig returns sensible defaults
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		BrotliLevel:  5,
		GzipLevel:    gzip.DefaultCompression,
		MinSizeBytes: 1024,
		CompressibleTypes: []string{
			"application/json",
			"text/plain",
		},
	}
}

// Compression buffers the response and compresses it with brotli or gzip,
// whichever the client prefers (brotli on ties). Small bodies, other content
// types and WebSocket upgrades pass through untouched.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			encoding := bestEncoding(r.Header.Get("Accept-Encoding"))
			if encoding == "" || r.Method == http.MethodHead || r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}

			buf := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(buf, r)
			buf.flushTo(cfg, encoding)
		})
	}
}

// bufferedWriter holds the body until the handler returns
type bufferedWriter struct {
	http.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
}

func (b *bufferedWriter) WriteHeader(code int) {
	if b.wroteHeader {
		return
	}
	b.status = code
	b.wroteHeader = true
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.wroteHeader = true
	return b.buf.Write(p)
}

func (b *bufferedWriter) flushTo(cfg CompressionConfig, encoding string) {
	w := b.ResponseWriter
	body := b.buf.Bytes()

	if len(body) < cfg.MinSizeBytes || !compressible(cfg, w.Header().Get("Content-Type")) ||
		w.Header().Get("Content-Encoding") != "" || b.status == http.StatusNoContent {
		w.WriteHeader(b.status)
		_, _ = w.Write(body)
		return
	}

	compressed, err := compress(cfg, encoding, body)
	if err != nil {
		w.WriteHeader(b.status)
		_, _ = w.Write(body)
		return
	}

	w.Header().Set("Content-Encoding", encoding)
	w.Header().Set("Content-Length", strconv.Itoa(len(compressed)))
	w.Header().Add("Vary", "Accept-Encoding")
	w.WriteHeader(b.status)
	_, _ = w.Write(compressed)
}

func compress(cfg CompressionConfig, encoding string, body []byte) ([]byte, error) {
	var out bytes.Buffer
	var zw io.WriteCloser
	switch encoding {
	case "br":
		zw = brotli.NewWriterLevel(&out, cfg.BrotliLevel)
	default:
		gz, err := gzip.NewWriterLevel(&out, cfg.GzipLevel)
		if err != nil {
			return nil, err
		}
		zw = gz
	}

	if _, err := zw.Write(body); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func compressible(cfg CompressionConfig, contentType string) bool {
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	for _, t := range cfg.CompressibleTypes {
		if strings.EqualFold(mediaType, t) {
			return true
		}
	}
	return false
}

// bestEncoding parses Accept-Encoding q-values and picks br or gzip
func bestEncoding(header string) string {
	if header == "" {
		return ""
	}

	quality := map[string]float64{}
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				q = parsed
			}
		}
		quality[strings.ToLower(strings.TrimSpace(name))] = q
	}

	br, gz := quality["br"], quality["gzip"]
	switch {
	case br > 0 && br >= gz:
		return "br"
	case gz > 0:
		return "gzip"
	default:
		return ""
	}
}
