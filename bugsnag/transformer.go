package bugsnag

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/samber/lo"

	"github.com/sthembisoo/bugsnag-notifier/bugsnag/types"
)

const (
	metaErrorDescription   = "Error localized description"
	metaRequestDescription = "Request debug description"
)

// Location is the call site a report points at
type Location struct {
	File     string
	Function string
	Line     int
	Column   int
}

// Report is everything the transformer needs to build one payload
type Report struct {
	Classification Classification
	Request        *Request
	Severity       Severity
	Location       Location

	UserID    string
	UserName  string
	UserEmail string

	Version     string
	Metadata    map[string]any
	Breadcrumbs []types.Breadcrumb
}

// Transformer maps reports onto the Bugsnag wire schema. It holds no mutable
// state and is safe for concurrent use.
type Transformer struct {
	apiKey          string
	releaseStage    string
	fallbackMessage string
	device          types.Device
}

// NewTransformer returns a Transformer for cfg. Device details are read from
// the host once, here.
func NewTransformer(cfg Config) *Transformer {
	cfg = cfg.withDefaults()
	hostname, _ := os.Hostname()

	return &Transformer{
		apiKey:          cfg.APIKey,
		releaseStage:    cfg.ReleaseStage,
		fallbackMessage: cfg.FallbackMessage,
		device: types.Device{
			Hostname:        hostname,
			OSName:          runtime.GOOS,
			RuntimeVersions: map[string]string{"go": runtime.Version()},
		},
	}
}

// PayloadFor builds the payload for r. It reads r but never modifies it.
func (t *Transformer) PayloadFor(r Report) (*types.Payload, error) {
	if t.apiKey == "" {
		return nil, &TransformError{Field: "apiKey", Err: ErrMissingAPIKey}
	}
	if r.Request == nil {
		return nil, &TransformError{Field: "request", Err: ErrNilRequest}
	}
	if !r.Severity.Valid() {
		return nil, &TransformError{Field: "severity", Err: fmt.Errorf("%w: %q", ErrInvalidSeverity, r.Severity)}
	}

	event := types.Event{
		App: types.App{
			ReleaseStage: t.releaseStage,
			Version:      r.Version,
		},
		Breadcrumbs:    lo.Ternary(r.Breadcrumbs == nil, []types.Breadcrumb{}, r.Breadcrumbs),
		Device:         t.device,
		Exceptions:     []types.Exception{t.exception(r)},
		MetaData:       types.MetaData{Meta: metadata(r)},
		PayloadVersion: payloadVersion,
		Request:        r.Request.snapshot(),
		Severity:       r.Severity.String(),
		Unhandled:      true,
	}
	if r.UserID != "" {
		event.User = &types.User{ID: r.UserID, Name: r.UserName, Email: r.UserEmail}
	}

	return &types.Payload{
		APIKey: t.apiKey,
		Events: []types.Event{event},
		Notifier: types.Notifier{
			Name:    notifierName,
			URL:     notifierURL,
			Version: notifierVersion,
		},
	}, nil
}

func (t *Transformer) exception(r Report) types.Exception {
	c := r.Classification

	message := t.fallbackMessage
	if c.Structured && c.Reason != "" {
		message = c.Reason
	}

	status := DefaultStatus
	if c.Structured && http.StatusText(c.Status) != "" {
		status = c.Status
	}

	return types.Exception{
		ErrorClass: c.Description,
		Message:    message,
		Stacktrace: []types.StackFrame{{
			File:         r.Location.File,
			Method:       r.Location.Function,
			LineNumber:   r.Location.Line,
			ColumnNumber: r.Location.Column,
			Code:         []string{},
			InProject:    true,
		}},
		Type: http.StatusText(status),
	}
}

// metadata merges the synthetic entries with the caller's; the caller wins on
// collisions.
func metadata(r Report) map[string]string {
	synthetic := map[string]string{
		metaErrorDescription:   r.Classification.Description,
		metaRequestDescription: r.Request.String(),
	}
	caller := lo.MapValues(r.Metadata, func(v any, _ string) string {
		return stringify(v)
	})
	return lo.Assign(synthetic, caller)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return val
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprintf("%+v", v)
}

// IsTransformError reports whether err came from payload construction
func IsTransformError(err error) bool {
	var te *TransformError
	return errors.As(err, &te)
}
