package bugsnag

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest_RestoresBody(t *testing.T) {
	httpReq := httptest.NewRequest(http.MethodPost, "https://api.example.com/v1/orders?x=1", strings.NewReader(`{"a":1}`))
	httpReq.RemoteAddr = "192.0.2.1:1234"
	httpReq.Header.Add("Accept", "text/plain")
	httpReq.Header.Add("Accept", "application/json")

	req := NewRequest(httpReq)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "https://api.example.com/v1/orders?x=1", req.URL)
	assert.Equal(t, `{"a":1}`, string(req.Body))
	assert.Equal(t, "192.0.2.1:1234", req.RemoteAddr)

	rest, err := io.ReadAll(httpReq.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(rest))

	snap := req.snapshot()
	assert.Equal(t, "application/json", snap.Headers["Accept"])
	require.NotNil(t, snap.ClientIP)
	assert.Equal(t, "192.0.2.1", *snap.ClientIP)
}

func TestNewRequest_HeaderIsCopied(t *testing.T) {
	httpReq := httptest.NewRequest(http.MethodGet, "/", nil)
	httpReq.Header.Set("X-Id", "1")

	req := NewRequest(httpReq)
	httpReq.Header.Set("X-Id", "2")

	assert.Equal(t, "1", req.Header.Get("X-Id"))
	assert.Nil(t, req.Body)
}

func TestRequest_String(t *testing.T) {
	req := &Request{
		Method:     http.MethodGet,
		URL:        "http://example.com/",
		Header:     http.Header{"B": {"2"}, "A": {"1", "3"}},
		RemoteAddr: "10.1.1.1:80",
	}
	assert.Equal(t, "GET http://example.com/ from 10.1.1.1:80\nA: 1, 3\nB: 2", req.String())
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		remote, want string
	}{
		{"10.0.0.1:8080", "10.0.0.1"},
		{"[::1]:443", "::1"},
		{"unix-socket", "unix-socket"},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q", tc.remote), func(t *testing.T) {
			assert.Equal(t, tc.want, clientIP(tc.remote))
		})
	}
}

func TestSnapshot_TruncatedBodyKeepsWholeRunes(t *testing.T) {
	for name, tail := range map[string]string{
		"two byte":   "é",
		"three byte": "€",
		"four byte":  "🙂",
	} {
		t.Run(name, func(t *testing.T) {
			body := strings.Repeat("a", maxBodySize-1) + tail
			httpReq := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

			snap := NewRequest(httpReq).snapshot()

			require.NotNil(t, snap.Body, "a body cut inside a rune must still be reported")
			assert.True(t, utf8.ValidString(*snap.Body))
			assert.Equal(t, strings.Repeat("a", maxBodySize-1), *snap.Body)

			rest, err := io.ReadAll(httpReq.Body)
			require.NoError(t, err)
			assert.Equal(t, body, string(rest))
		})
	}
}

func TestSnapshot_OversizedBodyIsCapped(t *testing.T) {
	req := &Request{Method: http.MethodPost, Body: []byte(strings.Repeat("b", maxBodySize+10))}

	snap := req.snapshot()

	require.NotNil(t, snap.Body)
	assert.Len(t, *snap.Body, maxBodySize)
}

func TestSnapshot_InvalidBodyOmitted(t *testing.T) {
	req := &Request{Method: http.MethodPost, Body: []byte{0xff, 0xfe, 'x'}}

	assert.Nil(t, req.snapshot().Body)
}

func TestBodyRecorder(t *testing.T) {
	httpReq := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abcdef"))
	rec := recordBody(httpReq)
	require.NotNil(t, rec)
	assert.Nil(t, rec.Bytes())

	buf := make([]byte, 3)
	_, err := io.ReadFull(httpReq.Body, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), rec.Bytes())

	rest, err := io.ReadAll(httpReq.Body)
	require.NoError(t, err)
	assert.Equal(t, "def", string(rest))
	assert.Equal(t, []byte("abcdef"), rec.Bytes())

	snap := snapshotRequest(httpReq, rec)
	assert.Equal(t, "abcdef", string(snap.Body))
	assert.Equal(t, http.MethodPost, snap.Method)
}

func TestBodyRecorder_NoBody(t *testing.T) {
	httpReq := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := recordBody(httpReq)

	assert.Nil(t, rec)
	assert.Nil(t, rec.Bytes())
	assert.Nil(t, snapshotRequest(httpReq, rec).Body)
}
