package capture

import (
	"bytes"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/alonana/harmetrics/core"
)

// Handler wraps next so that every request it serves is recorded.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		request := m.captureRequest(r)

		recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK, limit: m.MaxBodySize}
		next.ServeHTTP(recorder, r)

		end := time.Now()
		if m.Identify != nil {
			request.Group = m.group(func() *core.Group { return m.Identify(r) })
		}
		m.Record(request, recorder.captured(request.HttpVersion), start, end)
	})
}

func (m *Middleware) captureRequest(r *http.Request) *core.CapturedRequest {
	var body []byte
	truncated := false
	if r.Body != nil && r.Body != http.NoBody {
		body, truncated = m.captureRequestBody(r)
	}

	contentLength := int(r.ContentLength)
	if contentLength < 0 {
		contentLength = len(body)
		if truncated {
			contentLength = -1
		}
	}

	var cookies core.Pairs
	for _, cookie := range r.Cookies() {
		cookies = append(cookies, core.Pair{Name: cookie.Name, Value: cookie.Value})
	}

	return &core.CapturedRequest{
		Method:        r.Method,
		Url:           fullUrl(r),
		Query:         parseQuery(r.URL.RawQuery),
		Headers:       headerPairs(r.Header),
		Cookies:       cookies,
		Body:          body,
		ContentType:   r.Header.Get("Content-Type"),
		ContentLength: contentLength,
		HttpVersion:   r.Proto,
		RemoteAddr:    r.RemoteAddr,
	}
}

// captureRequestBody reads up to MaxBodySize bytes and puts them back in front of the
// unread remainder, so the handler still streams the whole body. A read error is
// replayed to the handler after the bytes that were read. The second result reports
// that the body may continue past the captured bytes.
func (m *Middleware) captureRequestBody(r *http.Request) ([]byte, bool) {
	original := r.Body
	var reader io.Reader = original
	if m.MaxBodySize > 0 {
		reader = io.LimitReader(original, int64(m.MaxBodySize))
	}

	body, err := io.ReadAll(reader)
	readers := []io.Reader{bytes.NewReader(body)}
	truncated := false
	if err != nil {
		m.warn("read request body failed: %v", err)
		readers = append(readers, errReader{err: err})
	} else if m.MaxBodySize > 0 && len(body) == m.MaxBodySize {
		readers = append(readers, original)
		truncated = true
	}

	r.Body = readCloser{Reader: io.MultiReader(readers...), Closer: original}
	return body, truncated
}

type readCloser struct {
	io.Reader
	io.Closer
}

type errReader struct {
	err error
}

func (e errReader) Read([]byte) (int, error) {
	return 0, e.err
}

func fullUrl(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// headerPairs sorts by name since http.Header does not keep arrival order.
func headerPairs(header http.Header) core.Pairs {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make(core.Pairs, 0, len(names))
	for _, name := range names {
		for _, value := range header[name] {
			pairs = append(pairs, core.Pair{Name: name, Value: value})
		}
	}
	return pairs
}

// responseRecorder passes every write through and keeps the first limit bytes.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	limit       int
	written     int
	body        bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.keep(data)
	n, err := r.ResponseWriter.Write(data)
	r.written += n
	return n, err
}

func (r *responseRecorder) keep(data []byte) {
	if r.limit <= 0 {
		r.body.Write(data)
		return
	}
	room := r.limit - r.body.Len()
	if room <= 0 {
		return
	}
	if len(data) > room {
		data = data[:room]
	}
	r.body.Write(data)
}

func (r *responseRecorder) Flush() {
	flusher, ok := r.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *responseRecorder) captured(httpVersion string) *core.CapturedResponse {
	header := r.ResponseWriter.Header()
	body := r.body.Bytes()

	contentLength := r.written
	if value := header.Get("Content-Length"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			contentLength = parsed
		}
	}

	var cookies core.Pairs
	for _, cookie := range (&http.Response{Header: header}).Cookies() {
		cookies = append(cookies, core.Pair{Name: cookie.Name, Value: cookie.Value})
	}

	return &core.CapturedResponse{
		Status:        r.status,
		HttpVersion:   httpVersion,
		Headers:       headerPairs(header),
		Cookies:       cookies,
		Body:          body,
		ContentType:   header.Get("Content-Type"),
		ContentLength: contentLength,
		Location:      header.Get("Location"),
	}
}
