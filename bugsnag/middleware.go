package bugsnag

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Middleware reports panics raised by next and answers them with a 500, unless
// next already started the response.
func (r *Reporter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body := recordBody(req)
		tw := &trackingWriter{ResponseWriter: w}
		defer func() {
			rval := recover()
			if rval == nil {
				return
			}
			if rval == http.ErrAbortHandler {
				panic(rval)
			}

			err, ok := rval.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rval)
			}
			r.Report(err, snapshotRequest(req, body), panicLocation()...)
			if !tw.wroteHeader {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(tw, req)
	})
}

// HandlerFunc is an http handler that can fail
type HandlerFunc func(w http.ResponseWriter, req *http.Request) error

// Handle adapts fn into an http.Handler. A returned error is reported and
// answered with its AbortError status, or 500 for any other error. Nothing is
// written when fn already started the response.
func (r *Reporter) Handle(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body := recordBody(req)
		tw := &trackingWriter{ResponseWriter: w}
		err := fn(tw, req)
		if err == nil {
			return
		}

		r.Report(err, snapshotRequest(req, body))
		if tw.wroteHeader {
			return
		}

		status, reason := responseFor(err)
		http.Error(w, reason, status)
	})
}

// responseFor picks the status line for a failed handler. AbortErrors with a
// status net/http cannot write fall back to DefaultStatus.
func responseFor(err error) (int, string) {
	var abort AbortError
	if !errors.As(err, &abort) {
		return DefaultStatus, http.StatusText(DefaultStatus)
	}

	status, reason := abort.Status(), abort.Reason()
	if !writableStatus(status) {
		status = DefaultStatus
	}
	if reason == "" {
		reason = http.StatusText(status)
	}
	return status, reason
}

func writableStatus(status int) bool {
	return status >= 100 && status <= 999 && http.StatusText(status) != ""
}

// trackingWriter remembers whether the wrapped handler started the response
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(status int) {
	// 1xx responses are informational; the final header is still to come
	if status >= 200 || status == http.StatusSwitchingProtocols {
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Flush() {
	w.wroteHeader = true
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer
func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// panicLocation finds the first frame outside the runtime, which is where
// the panic was raised.
func panicLocation() []ReportOption {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			return []ReportOption{WithLocation(frame.File, frame.Function, frame.Line)}
		}
		if !more {
			return nil
		}
	}
}
