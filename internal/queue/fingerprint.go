package queue

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/reqflux/reqflux/internal/domain"
)

// Fingerprint computes the 16-hex-character item id: SHA-256 over the
// canonical JSON encoding of the descriptor, keys sorted recursively.
// Two descriptors with structurally identical JSON after key sort
// yield the same id (invariant 4 / scenario S6).
func Fingerprint(d domain.RequestDescriptor) string {
	canonical := canonicalize(descriptorToMap(d))
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:16]
}

// descriptorToMap round-trips the descriptor through JSON to obtain a
// plain map[string]any, the same representation canonicalize expects.
func descriptorToMap(d domain.RequestDescriptor) any {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// canonicalize renders v as JSON with map keys sorted recursively at
// every level, matching Python's json.dumps(sort_keys=True).
func canonicalize(v any) []byte {
	return []byte(encodeValue(v))
}

func encodeValue(v any) string {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ","
			}
			kb, _ := json.Marshal(k)
			out += string(kb) + ":" + encodeValue(t[k])
		}
		return out + "}"
	case []any:
		out := "["
		for i, item := range t {
			if i > 0 {
				out += ","
			}
			out += encodeValue(item)
		}
		return out + "]"
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
