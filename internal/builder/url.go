package builder

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/reqflux/reqflux/internal/domain"
)

// buildURL substitutes {placeholder} tokens from URLParams and merges
// Params into the query string, preserving any query values already
// present on the raw URL under keys Params does not touch.
func buildURL(d domain.RequestDescriptor) (string, error) {
	raw := d.URL
	for key, value := range d.URLParams {
		raw = strings.ReplaceAll(raw, "{"+key+"}", value)
	}

	if len(d.Params) == 0 {
		return raw, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	query := parsed.Query()
	for key, values := range d.Params {
		query[key] = append([]string(nil), values...)
	}
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}
