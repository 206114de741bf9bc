package notify

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/sthembisoo/bugsnag-notifier/bugsnag"
	"github.com/sthembisoo/bugsnag-notifier/utils/config"
	"github.com/sthembisoo/bugsnag-notifier/utils/logging"
)

var (
	flagAPIKey     string
	flagEndpoint   string
	flagStage      string
	flagMessage    string
	flagStatus     int
	flagSeverity   string
	flagURL        string
	flagMethod     string
	flagRemoteAddr string
	flagHeaders    []string
	flagBody       string
	flagUserID     string
	flagUserName   string
	flagUserEmail  string
	flagVersion    string
	flagMeta       map[string]string
	flagWait       time.Duration
	flagDev        bool
	flagLogLevel   string
)

func NewCmdNotify() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send an error report to Bugsnag",
		Long: `Send an error report to Bugsnag.

This command will:
1. Load settings from the environment (BUGSNAG_*) and .env
2. Build a request and an error from the flags
3. Report it and wait for the collector to accept it

Examples:
  # Report a generic failure
  bugsnag-notifier notify --api-key YOUR_API_KEY --url https://example.com/checkout

  # Report a 404 with a reason, as a warning
  bugsnag-notifier notify --status 404 --message "Not Found" --severity warning

  # Attach a user and metadata
  bugsnag-notifier notify --user-id 42 --meta order=1234 --meta region=eu`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&flagAPIKey, "api-key", "k", "", "Bugsnag API key (or set BUGSNAG_API_KEY env var)")
	cmd.Flags().StringVar(&flagEndpoint, "endpoint", "", "Notify endpoint (or set BUGSNAG_ENDPOINT env var)")
	cmd.Flags().StringVar(&flagStage, "stage", "", "Release stage (or set BUGSNAG_RELEASE_STAGE env var)")
	cmd.Flags().StringVarP(&flagMessage, "message", "m", "", "Reason of the error; requires --status")
	cmd.Flags().IntVarP(&flagStatus, "status", "s", 0, "HTTP status of the error; 0 reports a generic error")
	cmd.Flags().StringVar(&flagSeverity, "severity", string(bugsnag.SeverityError), "Severity: error, warning or info")
	cmd.Flags().StringVarP(&flagURL, "url", "u", "http://localhost/", "URL of the failed request")
	cmd.Flags().StringVar(&flagMethod, "method", http.MethodGet, "HTTP method of the failed request")
	cmd.Flags().StringVar(&flagRemoteAddr, "remote-addr", "127.0.0.1:0", "Remote address of the failed request")
	cmd.Flags().StringArrayVarP(&flagHeaders, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	cmd.Flags().StringVar(&flagBody, "body", "", "Body of the failed request")
	cmd.Flags().StringVar(&flagUserID, "user-id", "", "ID of the affected user")
	cmd.Flags().StringVar(&flagUserName, "user-name", "", "Name of the affected user")
	cmd.Flags().StringVar(&flagUserEmail, "user-email", "", "Email of the affected user")
	cmd.Flags().StringVar(&flagVersion, "app-version", "", "Version of the reporting application")
	cmd.Flags().StringToStringVar(&flagMeta, "meta", nil, "Metadata as key=value (repeatable)")
	cmd.Flags().DurationVarP(&flagWait, "wait", "w", 15*time.Second, "How long to wait for delivery")
	cmd.Flags().BoolVar(&flagDev, "dev", false, "Human readable logs")
	cmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "Log level")

	return cmd
}

func start(out io.Writer) error {
	logger, err := logging.NewLogger(flagDev, flagLogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	reporterCfg := cfg.Reporter()
	reporterCfg.APIKey = lo.CoalesceOrEmpty(flagAPIKey, reporterCfg.APIKey)
	reporterCfg.Endpoint = lo.CoalesceOrEmpty(flagEndpoint, reporterCfg.Endpoint)
	reporterCfg.ReleaseStage = lo.CoalesceOrEmpty(flagStage, reporterCfg.ReleaseStage)
	if reporterCfg.APIKey == "" {
		return errors.New("bugsnag api key required: use --api-key flag or set BUGSNAG_API_KEY environment variable")
	}

	severity, err := bugsnag.ParseSeverity(flagSeverity)
	if err != nil {
		return err
	}

	req, err := buildRequest()
	if err != nil {
		return err
	}

	failed := make(chan error, 1)
	reporter := bugsnag.New(reporterCfg,
		bugsnag.WithLogger(logger),
		bugsnag.WithErrorHandler(func(err error) { failed <- err }),
	)

	if !reporter.Enabled() {
		fmt.Fprintf(out, "Release stage %q is not in the notify list, nothing sent\n", reporterCfg.ReleaseStage)
		return nil
	}

	delivered := make(chan struct{})
	meta := lo.MapValues(flagMeta, func(v string, _ string) any { return v })
	reporter.Report(buildError(), req,
		bugsnag.WithSeverity(severity),
		bugsnag.WithUser(flagUserID, flagUserName, flagUserEmail),
		bugsnag.WithVersion(flagVersion),
		bugsnag.WithMetadata(meta),
		bugsnag.WithLocation("cmd/notify/notify.go", "notify.start", 0),
		bugsnag.WithCompletion(func() { close(delivered) }),
	)

	select {
	case <-delivered:
		fmt.Fprintln(out, "Report delivered")
		return nil
	case err := <-failed:
		return fmt.Errorf("report not delivered: %w", err)
	case <-time.After(flagWait):
		return fmt.Errorf("no delivery result after %s", flagWait)
	}
}

func buildError() error {
	if flagStatus == 0 {
		return errors.New(lo.CoalesceOrEmpty(flagMessage, "notify: test error"))
	}
	return bugsnag.Abort(flagStatus, flagMessage)
}

func buildRequest() (*bugsnag.Request, error) {
	header := http.Header{}
	for _, h := range flagHeaders {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q: want 'Name: value'", h)
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	return &bugsnag.Request{
		Method:     strings.ToUpper(flagMethod),
		URL:        flagURL,
		Header:     header,
		Body:       []byte(flagBody),
		RemoteAddr: flagRemoteAddr,
	}, nil
}
