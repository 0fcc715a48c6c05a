// Package builder implements the Request Builder (component 4.C): it
// turns a RequestDescriptor into an immutable BuiltRequest through
// template merge, validation, URL assembly, header/auth/body
// construction, transformation, and optional signing.
package builder

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/reqflux/reqflux/internal/domain"
)

// BuildError is raised for any malformed input, unknown template,
// unknown transformer, unsupported signing algorithm, or failed
// validator. It is always fail-fast: nothing is enqueued.
type BuildError struct {
	Stage   string
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build failed at %s: %s", e.Stage, e.Message)
}

func (e *BuildError) Unwrap() error { return ErrBuildFailed }

// Validator checks a merged descriptor and returns an error if it
// fails a declared constraint named in descriptor.Validators.
type Validator func(domain.RequestDescriptor) error

// Transformer mutates a built request in place, identified by the name
// used in a descriptor's Transformations list.
type Transformer func(req *domain.BuiltRequest, cfg map[string]any) error

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// Builder holds the registered templates, transformers, and named
// validators consulted while building requests. Safe for concurrent
// use; registration and Build may run from different goroutines.
type Builder struct {
	logger *slog.Logger

	mu           sync.RWMutex
	templates    map[string]domain.RequestDescriptor
	transformers map[string]Transformer
	validators   map[string]Validator

	structValidate *validator.Validate
}

// New builds a Builder with the default transformers (encrypt_body,
// add_timestamp, add_request_id) and the default required_headers
// validator installed.
func New(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder{
		logger:         logger,
		templates:      make(map[string]domain.RequestDescriptor),
		transformers:   make(map[string]Transformer),
		validators:     make(map[string]Validator),
		structValidate: validator.New(),
	}
	b.setupDefaultTransformers()
	b.setupDefaultValidators()
	return b
}

// RegisterTransformer adds or replaces a named transformer.
func (b *Builder) RegisterTransformer(name string, t Transformer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transformers[name] = t
}

// RegisterValidator adds or replaces a named validator.
func (b *Builder) RegisterValidator(name string, v Validator) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validators[name] = v
}

// Build runs the full pipeline: template merge, validation, URL
// assembly, headers, auth, body, transformations, signing.
func (b *Builder) Build(d domain.RequestDescriptor) (*domain.BuiltRequest, error) {
	merged, err := b.applyTemplate(d)
	if err != nil {
		return nil, err
	}

	if merged.Method == "" {
		merged.Method = "GET"
	}
	merged.Method = strings.ToUpper(merged.Method)

	if err := b.validate(merged); err != nil {
		return nil, err
	}

	url, err := buildURL(merged)
	if err != nil {
		return nil, &BuildError{Stage: "url", Message: err.Error()}
	}

	headers := buildHeaders(merged)

	timeout := merged.Timeout

	req := &domain.BuiltRequest{
		Method:  merged.Method,
		URL:     url,
		Headers: headers,
		Timeout: timeout,
	}

	if merged.Auth != nil {
		if err := b.addAuthentication(req, merged.Auth); err != nil {
			return nil, err
		}
	}

	if isBodyMethod(merged.Method) && merged.Body != nil {
		body, err := buildBody(merged.Body, merged.BodyFormat)
		if err != nil {
			return nil, &BuildError{Stage: "body", Message: err.Error()}
		}
		req.Body = body
	}

	if len(merged.Transformations) > 0 {
		if err := b.applyTransformations(req, merged.Transformations); err != nil {
			return nil, err
		}
	}

	if merged.Signature != nil {
		if err := signRequest(req, *merged.Signature); err != nil {
			return nil, &BuildError{Stage: "signing", Message: err.Error()}
		}
	}

	return req, nil
}

func isBodyMethod(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	default:
		return false
	}
}

func (b *Builder) validate(d domain.RequestDescriptor) error {
	if d.URL == "" {
		return &BuildError{Stage: "validate", Message: "URL is required"}
	}
	if !hasScheme(d.URL) {
		return &BuildError{Stage: "validate", Message: "URL must include scheme (http/https)"}
	}
	if !validMethods[d.Method] {
		return &BuildError{Stage: "validate", Message: "invalid method: " + d.Method}
	}
	if err := b.structValidate.Struct(d); err != nil {
		return &BuildError{Stage: "validate", Message: err.Error()}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, name := range d.Validators {
		v, ok := b.validators[name]
		if !ok {
			return &BuildError{Stage: "validate", Message: "unknown validator: " + name}
		}
		if err := v(d); err != nil {
			return &BuildError{Stage: "validate", Message: err.Error()}
		}
	}
	return nil
}

func hasScheme(rawURL string) bool {
	i := strings.Index(rawURL, "://")
	if i <= 0 {
		return false
	}
	scheme := strings.ToLower(rawURL[:i])
	return scheme == "http" || scheme == "https"
}

func (b *Builder) applyTransformations(req *domain.BuiltRequest, names []string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, name := range names {
		t, ok := b.transformers[name]
		if !ok {
			return &BuildError{Stage: "transform", Message: "unknown transformation type: " + name}
		}
		if err := t(req, nil); err != nil {
			return &BuildError{Stage: "transform", Message: err.Error()}
		}
	}
	return nil
}

func (b *Builder) setupDefaultValidators() {
	b.validators["required_headers"] = func(d domain.RequestDescriptor) error {
		for _, h := range d.RequiredHeaders {
			if _, ok := d.Headers[h]; !ok {
				return fmt.Errorf("required header missing: %s", h)
			}
		}
		return nil
	}
}
