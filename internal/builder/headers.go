package builder

import "github.com/reqflux/reqflux/internal/domain"

const defaultUserAgent = "NetworkAutomation/1.0"

var contentTypeByFormat = map[domain.BodyFormat]string{
	domain.BodyJSON:      "application/json",
	domain.BodyXML:       "application/xml",
	domain.BodyForm:      "application/x-www-form-urlencoded",
	domain.BodyMultipart: "multipart/form-data",
	domain.BodyYAML:      "application/x-yaml",
	domain.BodyText:      "text/plain",
	domain.BodyRaw:       "application/octet-stream",
}

// buildHeaders assembles the default User-Agent, the descriptor's
// custom headers, and a Content-Type inferred from BodyFormat when the
// descriptor carries a body and hasn't set one explicitly.
func buildHeaders(d domain.RequestDescriptor) map[string]string {
	headers := map[string]string{"User-Agent": defaultUserAgent}
	for k, v := range d.Headers {
		headers[k] = v
	}

	if d.Body != nil {
		if _, ok := headers["Content-Type"]; !ok {
			format := d.BodyFormat
			if format == "" {
				format = domain.BodyJSON
			}
			ct, ok := contentTypeByFormat[format]
			if !ok {
				ct = "application/json"
			}
			headers["Content-Type"] = ct
		}
	}

	return headers
}
