package bugsnag

import (
	"context"
	"runtime"

	"go.uber.org/zap"

	"github.com/sthembisoo/bugsnag-notifier/bugsnag/types"
)

// Reporter files errors raised while handling requests. Reports are sent in
// the background; nothing it does can fail the calling request.
type Reporter struct {
	config      Config
	transformer *Transformer
	conn        ConnectionManager
	logger      *zap.Logger
	onError     func(error)
}

// Option configures a Reporter
type Option func(*Reporter)

// WithLogger sets the logger used for dropped and failed reports
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reporter) {
		r.logger = logger
	}
}

// WithConnectionManager replaces the HTTP connection manager
func WithConnectionManager(conn ConnectionManager) Option {
	return func(r *Reporter) {
		r.conn = conn
	}
}

// WithErrorHandler registers fn to receive transform and delivery failures
func WithErrorHandler(fn func(error)) Option {
	return func(r *Reporter) {
		r.onError = fn
	}
}

// New returns a Reporter for cfg. Without WithConnectionManager reports are
// posted to cfg.Endpoint.
func New(cfg Config, opts ...Option) *Reporter {
	cfg = cfg.withDefaults()

	r := &Reporter{
		config:      cfg,
		transformer: NewTransformer(cfg),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.conn == nil {
		r.conn = NewConnectionManager(cfg)
	}
	return r
}

type reportOptions struct {
	severity    Severity
	location    Location
	userID      string
	userName    string
	userEmail   string
	version     string
	metadata    map[string]any
	breadcrumbs []types.Breadcrumb
	onComplete  func()
}

// ReportOption adjusts a single report
type ReportOption func(*reportOptions)

// WithSeverity files the report under s instead of SeverityError
func WithSeverity(s Severity) ReportOption {
	return func(o *reportOptions) { o.severity = s }
}

// WithUser attaches the affected user. An empty id leaves the report without a user.
func WithUser(id, name, email string) ReportOption {
	return func(o *reportOptions) {
		o.userID = id
		o.userName = name
		o.userEmail = email
	}
}

// WithLocation points the report's stack frame at file:line in fn
func WithLocation(file, fn string, line int) ReportOption {
	return func(o *reportOptions) {
		o.location = Location{File: file, Function: fn, Line: line}
	}
}

// WithVersion sets the client application version
func WithVersion(version string) ReportOption {
	return func(o *reportOptions) { o.version = version }
}

// WithMetadata adds annotations. Later calls override earlier keys.
func WithMetadata(meta map[string]any) ReportOption {
	return func(o *reportOptions) {
		if o.metadata == nil {
			o.metadata = make(map[string]any, len(meta))
		}
		for k, v := range meta {
			o.metadata[k] = v
		}
	}
}

// WithBreadcrumbs appends crumbs to the report's breadcrumb trail
func WithBreadcrumbs(crumbs ...types.Breadcrumb) ReportOption {
	return func(o *reportOptions) {
		o.breadcrumbs = append(o.breadcrumbs, crumbs...)
	}
}

// WithCompletion sets fn to run once the collector accepted the report. It
// never runs for filtered, dropped or failed reports.
func WithCompletion(fn func()) ReportOption {
	return func(o *reportOptions) { o.onComplete = fn }
}

// Report sends err, raised while handling req, to the collector
func (r *Reporter) Report(err error, req *Request, opts ...ReportOption) {
	o := reportOptions{severity: SeverityError}
	for _, opt := range opts {
		opt(&o)
	}
	r.report(err, req, o)
}

// ReportUser reports err on behalf of a user with severity error
func (r *Reporter) ReportUser(err error, req *Request, userID, userName, userEmail string, opts ...ReportOption) {
	r.Report(err, req, append([]ReportOption{WithUser(userID, userName, userEmail)}, opts...)...)
}

// ReportHere is Report with the location set to the caller
func (r *Reporter) ReportHere(err error, req *Request, opts ...ReportOption) {
	if pc, file, line, ok := runtime.Caller(1); ok {
		fn := ""
		if f := runtime.FuncForPC(pc); f != nil {
			fn = f.Name()
		}
		opts = append([]ReportOption{WithLocation(file, fn, line)}, opts...)
	}
	r.Report(err, req, opts...)
}

func (r *Reporter) report(err error, req *Request, o reportOptions) {
	if !r.config.shouldNotify() {
		metricReportsTotal.WithLabelValues(resultFiltered).Inc()
		return
	}

	payload, terr := r.transformer.PayloadFor(Report{
		Classification: Classify(err),
		Request:        req,
		Severity:       o.severity,
		Location:       o.location,
		UserID:         o.userID,
		UserName:       o.userName,
		UserEmail:      o.userEmail,
		Version:        o.version,
		Metadata:       o.metadata,
		Breadcrumbs:    o.breadcrumbs,
	})
	if terr != nil {
		metricReportsTotal.WithLabelValues(resultDropped).Inc()
		r.logger.Debug("Dropping error report", zap.Error(terr))
		r.fail(terr)
		return
	}

	result := r.conn.SubmitPayload(context.Background(), payload)
	if result == nil {
		go r.failed(DeliveryResult{Err: ErrNoDeliveryResult})
		return
	}
	go r.await(result, o.onComplete)
}

func (r *Reporter) await(result <-chan DeliveryResult, onComplete func()) {
	res, ok := <-result
	if !ok {
		res = DeliveryResult{Err: ErrNoDeliveryResult}
	}
	if !res.Delivered() {
		r.failed(res)
		return
	}

	metricReportsTotal.WithLabelValues(resultDelivered).Inc()
	if onComplete != nil {
		onComplete()
	}
}

func (r *Reporter) failed(res DeliveryResult) {
	metricReportsTotal.WithLabelValues(resultFailed).Inc()
	r.logger.Warn("Failed to deliver error report", zap.Int("status", res.StatusCode), zap.Error(res.Err))
	r.fail(res.Err)
}

func (r *Reporter) fail(err error) {
	if r.onError != nil {
		r.onError(err)
	}
}

// Enabled reports whether the configured release stage sends reports
func (r *Reporter) Enabled() bool {
	return r.config.shouldNotify()
}
