package http

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

var gzipWriterPool = sync.Pool{
	New: func() any {
		return gzip.NewWriter(io.Discard)
	},
}

// withGZip inflates gzip request bodies and compresses responses for
// clients that accept gzip. It must not wrap the event stream: the
// compressor buffers frames.
func withGZip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") && r.Body != nil {
			reader, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, "invalid gzip body", http.StatusBadRequest)
				return
			}
			defer reader.Close()

			r.Body = reader
			r.Header.Del("Content-Encoding")
			r.ContentLength = -1
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzipWriterPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer gzipWriterPool.Put(gz)

		gw := &gzipResponseWriter{ResponseWriter: w, writer: gz}
		next.ServeHTTP(gw, r)
		gw.finish()
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	writer *gzip.Writer

	wroteHeader bool
	// bodyless is set for responses that must not carry a body.
	bodyless bool
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	w.bodyless = statusCode == http.StatusNoContent || statusCode == http.StatusNotModified
	if !w.bodyless {
		w.Header().Del("Content-Length")
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.writer.Write(data)
}

func (w *gzipResponseWriter) finish() {
	if !w.wroteHeader || w.bodyless {
		return
	}
	_ = w.writer.Close()
}
