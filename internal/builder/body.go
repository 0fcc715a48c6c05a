package builder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/url"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reqflux/reqflux/internal/domain"
)

// buildBody serializes a descriptor's body according to format,
// defaulting to JSON when format is empty or unrecognized.
func buildBody(body any, format domain.BodyFormat) ([]byte, error) {
	switch format {
	case domain.BodyXML:
		return []byte(dictToXML(body, "root")), nil
	case domain.BodyForm:
		return []byte(valuesFromAny(body).Encode()), nil
	case domain.BodyMultipart:
		return buildMultipart(body)
	case domain.BodyYAML:
		return yaml.Marshal(body)
	case domain.BodyText, domain.BodyRaw:
		return []byte(fmt.Sprintf("%v", body)), nil
	case domain.BodyJSON, "":
		return json.Marshal(body)
	default:
		return json.Marshal(body)
	}
}

func valuesFromAny(body any) url.Values {
	values := url.Values{}
	m, ok := body.(map[string]any)
	if !ok {
		return values
	}
	for k, v := range m {
		values.Set(k, fmt.Sprintf("%v", v))
	}
	return values
}

func buildMultipart(body any) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	m, _ := body.(map[string]any)
	for k, v := range m {
		if err := w.WriteField(k, fmt.Sprintf("%v", v)); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// dictToXML mirrors the recursive map-to-element conversion the
// original builder performs: nested maps become child elements, slices
// repeat the element once per item, and scalars become element text.
func dictToXML(data any, rootName string) string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(rootName)
	sb.WriteString(">")
	writeXMLValue(&sb, data)
	sb.WriteString("</")
	sb.WriteString(rootName)
	sb.WriteString(">")
	return sb.String()
}

func writeXMLValue(sb *strings.Builder, data any) {
	switch v := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeXMLChild(sb, k, v[k])
		}
	default:
		sb.WriteString(escapeXML(fmt.Sprintf("%v", v)))
	}
}

func writeXMLChild(sb *strings.Builder, name string, value any) {
	if list, ok := value.([]any); ok {
		for _, item := range list {
			sb.WriteString("<")
			sb.WriteString(name)
			sb.WriteString(">")
			writeXMLValue(sb, item)
			sb.WriteString("</")
			sb.WriteString(name)
			sb.WriteString(">")
		}
		return
	}
	sb.WriteString("<")
	sb.WriteString(name)
	sb.WriteString(">")
	writeXMLValue(sb, value)
	sb.WriteString("</")
	sb.WriteString(name)
	sb.WriteString(">")
}

func escapeXML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}
