package builder

import "github.com/reqflux/reqflux/internal/domain"

// Template is a named, partial RequestDescriptor that named
// descriptors can merge into. Mapping-typed fields (Headers,
// URLParams, Params) are deep-merged with the descriptor's own values
// winning on scalar conflict; every other field is shallow-replaced by
// the descriptor when set.
type Template struct {
	Name       string
	Descriptor domain.RequestDescriptor
}

// RegisterTemplate adds or replaces a named template.
func (b *Builder) RegisterTemplate(name string, d domain.RequestDescriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.templates[name] = d
}

// applyTemplate merges d onto the named template, descriptor fields
// winning on conflict, mapping fields deep-merged rather than
// replaced wholesale.
func (b *Builder) applyTemplate(d domain.RequestDescriptor) (domain.RequestDescriptor, error) {
	if d.Template == "" {
		return d, nil
	}

	b.mu.RLock()
	tmpl, ok := b.templates[d.Template]
	b.mu.RUnlock()
	if !ok {
		return d, &BuildError{Stage: "template", Message: "template '" + d.Template + "' not found"}
	}

	merged := tmpl

	if d.Method != "" {
		merged.Method = d.Method
	}
	if d.URL != "" {
		merged.URL = d.URL
	}
	merged.Headers = mergeStringMap(tmpl.Headers, d.Headers)
	if d.Body != nil {
		merged.Body = d.Body
	}
	if d.BodyFormat != "" {
		merged.BodyFormat = d.BodyFormat
	}
	merged.URLParams = mergeStringMap(tmpl.URLParams, d.URLParams)
	merged.Params = mergeStringSliceMap(tmpl.Params, d.Params)
	if d.Auth != nil {
		merged.Auth = d.Auth
	}
	if len(d.Transformations) > 0 {
		merged.Transformations = d.Transformations
	}
	if d.Signature != nil {
		merged.Signature = d.Signature
	}
	if len(d.Validators) > 0 {
		merged.Validators = d.Validators
	}
	if len(d.RequiredHeaders) > 0 {
		merged.RequiredHeaders = d.RequiredHeaders
	}
	if d.Partition != "" {
		merged.Partition = d.Partition
	}
	if d.Timeout != 0 {
		merged.Timeout = d.Timeout
	}
	merged.Template = ""

	return merged, nil
}

// mergeStringMap deep-merges two map[string]string values, override
// winning key-for-key over base.
func mergeStringMap(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func mergeStringSliceMap(base, override map[string][]string) map[string][]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string][]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
