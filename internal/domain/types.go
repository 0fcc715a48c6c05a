// Package domain holds the core value types shared across the
// orchestrator, queue manager, request builder, and resilience layers.
package domain

import "time"

// Priority orders queue items; lower value dequeues first.
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityNormal   Priority = 3
	PriorityLow      Priority = 4
)

// String renders the priority the way webhook payloads and status
// responses expect it (an uppercase name, not the numeric value).
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityNormal:
		return "NORMAL"
	case PriorityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// Demote returns the priority one step lower (numerically higher),
// capped at PriorityLow, used when an item is requeued after a failure.
func (p Priority) Demote() Priority {
	if p >= PriorityLow {
		return PriorityLow
	}
	return p + 1
}

// Valid reports whether p is one of the four recognized levels.
func (p Priority) Valid() bool {
	return p >= PriorityCritical && p <= PriorityLow
}

// BodyFormat tags how a descriptor's body should be serialized.
type BodyFormat string

const (
	BodyJSON      BodyFormat = "json"
	BodyXML       BodyFormat = "xml"
	BodyForm      BodyFormat = "form"
	BodyMultipart BodyFormat = "multipart"
	BodyYAML      BodyFormat = "yaml"
	BodyText      BodyFormat = "text"
	BodyRaw       BodyFormat = "raw"
)

// AuthType tags the authentication strategy a descriptor requests.
type AuthType string

const (
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "api_key"
	AuthOAuth2 AuthType = "oauth2"
	AuthJWT    AuthType = "jwt"
	AuthCustom AuthType = "custom"
)

// APIKeyPlacement selects where an api_key credential is attached.
type APIKeyPlacement string

const (
	APIKeyInHeader APIKeyPlacement = "header"
	APIKeyInQuery  APIKeyPlacement = "query"
)

// AuthConfig describes the credential material and placement for one
// of the AuthType strategies. Only the fields relevant to Type are
// consulted by the builder.
type AuthConfig struct {
	Type AuthType `json:"type" mapstructure:"type"`

	Username string `json:"username,omitempty" mapstructure:"username"`
	Password string `json:"password,omitempty" mapstructure:"password"`

	Token string `json:"token,omitempty" mapstructure:"token"`

	APIKeyName      string          `json:"api_key_name,omitempty" mapstructure:"api_key_name"`
	APIKeyValue     string          `json:"api_key_value,omitempty" mapstructure:"api_key_value"`
	APIKeyPlacement APIKeyPlacement `json:"api_key_placement,omitempty" mapstructure:"api_key_placement"`

	JWTSecret    string         `json:"jwt_secret,omitempty" mapstructure:"jwt_secret"`
	JWTAlgorithm string         `json:"jwt_algorithm,omitempty" mapstructure:"jwt_algorithm"`
	JWTClaims    map[string]any `json:"jwt_claims,omitempty" mapstructure:"jwt_claims"`

	CustomHandler func(headers map[string]string, creds map[string]any) error `json:"-"`
	CustomCreds   map[string]any                                              `json:"custom_creds,omitempty"`
}

// SignatureAlgorithm selects the HMAC hash used by request signing.
type SignatureAlgorithm string

const (
	SignatureHMACSHA256 SignatureAlgorithm = "sha256"
	SignatureHMACSHA512 SignatureAlgorithm = "sha512"
)

// SignatureConfig requests HMAC signing of the built request.
type SignatureConfig struct {
	Secret      string             `json:"secret" mapstructure:"secret"`
	Algorithm   SignatureAlgorithm `json:"algorithm" mapstructure:"algorithm"`
	IncludeBody bool               `json:"include_body" mapstructure:"include_body"`
}

// RequestDescriptor is the caller-supplied description of an outbound
// HTTP call, before template merge, validation, or auth injection.
type RequestDescriptor struct {
	Method string `json:"method" validate:"required,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
	URL    string `json:"url" validate:"required,url"`

	Headers map[string]string `json:"headers,omitempty"`
	Body    any                `json:"body,omitempty"`

	BodyFormat BodyFormat `json:"body_format,omitempty"`

	URLParams map[string]string   `json:"url_params,omitempty"`
	Params    map[string][]string `json:"params,omitempty"`

	Auth *AuthConfig `json:"auth,omitempty"`

	Template string `json:"template,omitempty"`

	Transformations []string `json:"transformations,omitempty"`

	Signature *SignatureConfig `json:"signature,omitempty"`

	Validators []string `json:"validators,omitempty"`

	// RequiredHeaders is consulted by the required_headers validator;
	// it is independent of Headers so a template can demand a header
	// the descriptor itself does not set.
	RequiredHeaders []string `json:"required_headers,omitempty"`

	Partition string `json:"partition,omitempty"`

	Timeout time.Duration `json:"timeout,omitempty"`
}

// BuiltRequest is the normalized, authenticated, possibly signed
// request handed to the transport. Immutable after construction.
type BuiltRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// Endpoint returns the URL with the query string stripped, the unit
// the circuit breaker registry keys on.
func (b BuiltRequest) Endpoint() string {
	if i := indexByte(b.URL, '?'); i >= 0 {
		return b.URL[:i]
	}
	return b.URL
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// ResultCallback receives the terminal outcome of a queue item. A
// nil callback is valid; the orchestrator simply records metrics.
type ResultCallback func(Result)

// Result is delivered to a caller's callback on terminal outcome,
// success or exhausted-retry failure.
type Result struct {
	ItemID     string
	Success    bool
	StatusCode int
	Data       any
	DataType   string
	Error      string
	Duration   time.Duration
	Metadata   map[string]any
	Priority   Priority
	Timestamp  time.Time
}

// QueueItem is one unit of queued work, owned by the Queue Manager
// while queued and transferred to a worker for the duration of
// in-flight processing.
type QueueItem struct {
	ItemID       string
	Priority     Priority
	Partition    string
	EnqueuedAt   time.Time
	RetryCount   int
	Built        *BuiltRequest
	Descriptor   RequestDescriptor
	Metadata     map[string]any
	Callback     ResultCallback
	BatchID      string

	// seq breaks ties between items enqueued at the identical
	// timestamp, preserving FIFO order within a priority level.
	seq int64
}

// Seq returns the monotonic enqueue sequence used to order items
// sharing a priority level.
func (q *QueueItem) Seq() int64 { return q.seq }

// SetSeq assigns the monotonic enqueue sequence. Called exactly once
// by the Queue Manager at insertion time.
func (q *QueueItem) SetSeq(seq int64) { q.seq = seq }

// DeadLetterEntry records an item that exhausted its retry budget.
type DeadLetterEntry struct {
	Descriptor RequestDescriptor
	ItemID     string
	Reason     string
	AdmittedAt time.Time
	Priority   Priority
	Partition  string
	Metadata   map[string]any
}

// BreakerStatus is the exported state name of a circuit breaker.
type BreakerStatus string

const (
	BreakerClosed   BreakerStatus = "closed"
	BreakerOpen     BreakerStatus = "open"
	BreakerHalfOpen BreakerStatus = "half_open"
)

// CacheEntry is the cached outcome of a previously successful request.
type CacheEntry struct {
	Result    Result
	InsertedAt time.Time
}

// AlertSeverity ranks an alert's operational urgency.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is a single threshold breach record.
type Alert struct {
	ID        string
	Severity  AlertSeverity
	Message   string
	Timestamp time.Time
	Metric    string
	Value     float64
	Threshold float64
	Resolved  bool
}

// HistoryRecord is a durable record of a terminal outcome, written by
// the optional history sink. It never feeds the hot path.
type HistoryRecord struct {
	ItemID    string
	Endpoint  string
	Priority  Priority
	Attempts  int
	Success   bool
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}
