package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reqflux/reqflux/internal/domain"
)

func TestFingerprint_IsSixteenHexChars(t *testing.T) {
	id := Fingerprint(domain.RequestDescriptor{Method: "GET", URL: "https://example.com"})
	assert.Len(t, id, 16)
}

func TestFingerprint_DeterministicForIdenticalDescriptors(t *testing.T) {
	d := domain.RequestDescriptor{Method: "POST", URL: "https://example.com", Body: map[string]any{"a": 1, "b": 2}}
	assert.Equal(t, Fingerprint(d), Fingerprint(d))
}

func TestFingerprint_KeyOrderInsensitive(t *testing.T) {
	d1 := domain.RequestDescriptor{Method: "POST", URL: "https://example.com", Body: map[string]any{"a": 1, "b": 2}}
	d2 := domain.RequestDescriptor{Method: "POST", URL: "https://example.com", Body: map[string]any{"b": 2, "a": 1}}
	assert.Equal(t, Fingerprint(d1), Fingerprint(d2))
}

func TestFingerprint_DiffersOnSubstantiveChange(t *testing.T) {
	d1 := domain.RequestDescriptor{Method: "GET", URL: "https://example.com/a"}
	d2 := domain.RequestDescriptor{Method: "GET", URL: "https://example.com/b"}
	assert.NotEqual(t, Fingerprint(d1), Fingerprint(d2))
}

func TestFingerprint_NestedStructuresCanonicalized(t *testing.T) {
	d1 := domain.RequestDescriptor{
		URL:    "https://example.com",
		Params: map[string][]string{"z": {"1"}, "a": {"2"}},
	}
	d2 := domain.RequestDescriptor{
		URL:    "https://example.com",
		Params: map[string][]string{"a": {"2"}, "z": {"1"}},
	}
	assert.Equal(t, Fingerprint(d1), Fingerprint(d2))
}
