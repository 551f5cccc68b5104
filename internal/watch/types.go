// Package watch defines core types shared across subsystems and the
// check/notify control loop for a single monitored product page.
package watch

import (
	"context"
	"time"
)

// Status is the tri-state outcome of inspecting a product page.
type Status string

// Status values derived from the availability markers in the page text.
const (
	StatusInStock    Status = "in_stock"
	StatusOutOfStock Status = "out_of_stock"
	StatusUnknown    Status = "unknown"
)

// StoreCookie is the session cookie encoding the selected retail
// location. Location-specific stock data is only rendered when it is set.
type StoreCookie struct {
	Name  string
	Value string
}

// FetchRequest captures everything needed to fetch the product page.
type FetchRequest struct {
	URL    string
	Cookie StoreCookie
}

// FetchResponse is the rendered page returned by a Fetcher implementation.
type FetchResponse struct {
	URL      string
	Body     string
	Duration time.Duration
}

// CheckResult is the outcome of one check cycle. Err is non-nil when the
// fetch itself failed; a parse that matched neither marker yields
// StatusUnknown with a nil Err. Both count as a failure cycle.
type CheckResult struct {
	Status    Status
	Err       error
	CheckID   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Fetcher retrieves the rendered product page with the store cookie
// applied. Implementations own the fetch resource for the duration of
// the call and must release it on every return path.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// MessageKind classifies outbound notifications.
type MessageKind string

// Message kinds emitted by the watcher.
const (
	KindStarted   MessageKind = "started"
	KindStopped   MessageKind = "stopped"
	KindInStock   MessageKind = "in_stock"
	KindFailure   MessageKind = "failure"
	KindHeartbeat MessageKind = "heartbeat"
)

// Message is a channel-agnostic notification. Title is used by push
// channels, Subject by email; URL is attached when the recipient should
// be able to jump to the product page.
type Message struct {
	Kind    MessageKind
	Title   string
	Subject string
	Body    string
	URL     string
}

// Notifier delivers a message to the configured channels. Delivery is
// best effort: transport failures are handled inside the notifier and
// never surface to the control loop.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Snapshot is the externally visible run state served by the status API.
type Snapshot struct {
	Running             bool      `json:"running"`
	ProductURL          string    `json:"product_url"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	StartedAt           time.Time `json:"started_at"`
	LastHeartbeat       time.Time `json:"last_heartbeat"`
	LastStatus          Status    `json:"last_status,omitempty"`
	LastCheckID         string    `json:"last_check_id,omitempty"`
	LastCheckedAt       time.Time `json:"last_checked_at,omitzero"`
	LastError           string    `json:"last_error,omitempty"`
}
