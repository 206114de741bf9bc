package bugsnag

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/sthembisoo/bugsnag-notifier/bugsnag/types"
)

const maxBodySize = 1 << 20 // 1 MiB

// Request is the inbound request context an error is reported against
type Request struct {
	Method     string
	URL        string
	Header     http.Header
	Body       []byte
	RemoteAddr string
}

// NewRequest captures r for reporting. Up to 1 MiB of the body is read and the
// body is put back so the handler can still consume it. The read blocks until
// that much of the body has arrived or the client finishes sending, so use it
// only once the body is known to be complete. Middleware and Handle record the
// body as the handler reads it instead.
func NewRequest(r *http.Request) *Request {
	req := requestWithoutBody(r)

	if r.Body != nil && r.Body != http.NoBody {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err == nil {
			req.Body = body
		}
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
	}

	return req
}

func requestWithoutBody(r *http.Request) *Request {
	return &Request{
		Method:     r.Method,
		URL:        requestURL(r),
		Header:     r.Header.Clone(),
		RemoteAddr: r.RemoteAddr,
	}
}

// bodyRecorder keeps a copy of the first maxBodySize bytes the handler reads
// from a request body. It never reads on its own.
type bodyRecorder struct {
	io.ReadCloser

	mu  sync.Mutex
	buf bytes.Buffer
}

// recordBody swaps r.Body for a recorder. It returns nil when there is no body.
func recordBody(r *http.Request) *bodyRecorder {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	rec := &bodyRecorder{ReadCloser: r.Body}
	r.Body = rec
	return rec
}

func (b *bodyRecorder) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.mu.Lock()
		if room := maxBodySize - b.buf.Len(); room > 0 {
			b.buf.Write(p[:min(n, room)])
		}
		b.mu.Unlock()
	}
	return n, err
}

// Bytes returns a copy of what has been read so far
func (b *bodyRecorder) Bytes() []byte {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len() == 0 {
		return nil
	}
	return bytes.Clone(b.buf.Bytes())
}

// snapshotRequest builds the report context for r from the body bytes the
// handler consumed.
func snapshotRequest(r *http.Request, body *bodyRecorder) *Request {
	req := requestWithoutBody(r)
	req.Body = body.Bytes()
	return req
}

func requestURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.IsAbs() {
		return r.URL.String()
	}

	u := *r.URL
	u.Scheme = "http"
	if r.TLS != nil {
		u.Scheme = "https"
	}
	u.Host = r.Host
	return u.String()
}

// String renders the request for the "Request debug description" metadata entry
func (r *Request) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", r.Method, r.URL)
	if r.RemoteAddr != "" {
		fmt.Fprintf(&b, " from %s", r.RemoteAddr)
	}
	for _, name := range sortedHeaderNames(r.Header) {
		fmt.Fprintf(&b, "\n%s: %s", name, strings.Join(r.Header[name], ", "))
	}
	return b.String()
}

func sortedHeaderNames(h http.Header) []string {
	names := lo.Keys(h)
	sort.Strings(names)
	return names
}

// snapshot copies the request into its wire form. Repeated header names
// collapse to the last value.
func (r *Request) snapshot() types.Request {
	headers := make(map[string]string, len(r.Header))
	for _, name := range sortedHeaderNames(r.Header) {
		values := r.Header[name]
		if len(values) == 0 {
			continue
		}
		headers[http.CanonicalHeaderKey(name)] = values[len(values)-1]
	}

	snap := types.Request{
		Headers:    headers,
		HTTPMethod: r.Method,
		Referer:    r.RemoteAddr,
		URL:        r.URL,
	}
	if body := capBody(r.Body); len(body) > 0 && utf8.Valid(body) {
		snap.Body = lo.ToPtr(string(body))
	}
	if ip := clientIP(r.RemoteAddr); ip != "" {
		snap.ClientIP = lo.ToPtr(ip)
	}
	return snap
}

// capBody limits body to maxBodySize bytes. A rune split by the cut is dropped
// so a truncated UTF-8 body stays valid.
func capBody(body []byte) []byte {
	if len(body) < maxBodySize {
		return body
	}
	body = body[:maxBodySize]
	for i := 0; i < utf8.UTFMax-1 && len(body) > 0; i++ {
		if r, size := utf8.DecodeLastRune(body); r != utf8.RuneError || size != 1 {
			break
		}
		trimmed := body[:len(body)-1]
		if utf8.Valid(trimmed) {
			return trimmed
		}
		body = trimmed
	}
	return body
}

func clientIP(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
