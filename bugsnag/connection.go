package bugsnag

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/sthembisoo/bugsnag-notifier/bugsnag/types"
)

// DeliveryResult is the outcome of a single submission
type DeliveryResult struct {
	StatusCode int
	Err        error
}

// Delivered reports whether the collector accepted the payload
func (r DeliveryResult) Delivered() bool {
	return r.Err == nil
}

// ConnectionManager sends payloads to the collector. SubmitPayload must not
// block: it returns a channel that receives exactly one result.
type ConnectionManager interface {
	SubmitPayload(ctx context.Context, payload *types.Payload) <-chan DeliveryResult
}

type connectionManager struct {
	endpoint string
	client   *resty.Client
}

// NewConnectionManager returns a ConnectionManager posting to cfg.Endpoint.
// Requests are never retried.
func NewConnectionManager(cfg Config) ConnectionManager {
	cfg = cfg.withDefaults()

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Bugsnag-Payload-Version", payloadVersion)

	return &connectionManager{
		endpoint: cfg.Endpoint,
		client:   client,
	}
}

func (cm *connectionManager) SubmitPayload(ctx context.Context, payload *types.Payload) <-chan DeliveryResult {
	result := make(chan DeliveryResult, 1)

	if payload == nil {
		result <- DeliveryResult{Err: fmt.Errorf("submit payload: %w", ErrNilPayload)}
		return result
	}

	body, err := json.Marshal(payload)
	if err != nil {
		result <- DeliveryResult{Err: fmt.Errorf("failed to encode payload: %w", err)}
		return result
	}

	// in-flight reports outlive the request that triggered them
	ctx = context.WithoutCancel(ctx)

	go func() {
		result <- cm.post(ctx, body)
	}()

	return result
}

func (cm *connectionManager) post(ctx context.Context, body []byte) DeliveryResult {
	response, err := cm.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(cm.endpoint)
	if err != nil {
		return DeliveryResult{Err: fmt.Errorf("failed to post payload: %w", err)}
	}

	if !response.IsSuccess() {
		return DeliveryResult{
			StatusCode: response.StatusCode(),
			Err:        fmt.Errorf("%w: status %d: %s", ErrRejected, response.StatusCode(), string(response.Body())),
		}
	}

	return DeliveryResult{StatusCode: response.StatusCode()}
}
