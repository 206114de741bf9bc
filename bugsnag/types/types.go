package types

// Payload is the top level document posted to the Bugsnag notify endpoint
type Payload struct {
	APIKey   string   `json:"apiKey"`
	Events   []Event  `json:"events"`
	Notifier Notifier `json:"notifier"`
}

// Notifier identifies this client to the collector
type Notifier struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Version string `json:"version"`
}

// Event represents a single reported incident
type Event struct {
	App            App          `json:"app"`
	Breadcrumbs    []Breadcrumb `json:"breadcrumbs"`
	Device         Device       `json:"device"`
	Exceptions     []Exception  `json:"exceptions"`
	MetaData       MetaData     `json:"metaData"`
	PayloadVersion string       `json:"payloadVersion"`
	Request        Request      `json:"request"`
	Severity       string       `json:"severity"`
	Unhandled      bool         `json:"unhandled"`
	User           *User        `json:"user,omitempty"`
}

// Exception contains the error details of an event
type Exception struct {
	ErrorClass string       `json:"errorClass"`
	Message    string       `json:"message"`
	Stacktrace []StackFrame `json:"stacktrace"`
	Type       string       `json:"type"`
}

// StackFrame represents a single frame in a stack trace
type StackFrame struct {
	File         string   `json:"file"`
	Method       string   `json:"method"`
	LineNumber   int      `json:"lineNumber"`
	ColumnNumber int      `json:"columnNumber"`
	Code         []string `json:"code"`
	InProject    bool     `json:"inProject"`
}

// Breadcrumb is an action recorded before the error happened
type Breadcrumb struct {
	MetaData  MetaData `json:"metaData"`
	Name      string   `json:"name"`
	Timestamp string   `json:"timestamp"`
	Type      string   `json:"type"`
}

// Request is a snapshot of the HTTP request that was being handled
type Request struct {
	Body       *string           `json:"body,omitempty"`
	ClientIP   *string           `json:"clientIp,omitempty"`
	Headers    map[string]string `json:"headers"`
	HTTPMethod string            `json:"httpMethod"`
	Referer    string            `json:"referer"`
	URL        string            `json:"url"`
}

// User identifies the user affected by the error
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// App describes the reporting application
type App struct {
	ReleaseStage string `json:"releaseStage"`
	Version      string `json:"version,omitempty"`
}

// Device describes the host the application runs on
type Device struct {
	Hostname        string            `json:"hostname,omitempty"`
	OSName          string            `json:"osName,omitempty"`
	RuntimeVersions map[string]string `json:"runtimeVersions,omitempty"`
}

// MetaData holds free-form diagnostics shown under the "meta" tab
type MetaData struct {
	Meta map[string]string `json:"meta"`
}
