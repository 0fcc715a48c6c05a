package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqflux/reqflux/internal/domain"
)

func TestSignRequest_SetsSignatureAndMatchingTimestamp(t *testing.T) {
	req := &domain.BuiltRequest{Method: "POST", URL: "https://example.com", Headers: map[string]string{}}

	err := signRequest(req, domain.SignatureConfig{Secret: "shh", Algorithm: domain.SignatureHMACSHA256})
	require.NoError(t, err)

	assert.NotEmpty(t, req.Headers["X-Signature"])
	assert.NotEmpty(t, req.Headers["X-Timestamp"])
}

func TestSignRequest_DeterministicForSameTimestampAndSecret(t *testing.T) {
	req1 := &domain.BuiltRequest{Method: "GET", URL: "https://example.com", Headers: map[string]string{}}
	req2 := &domain.BuiltRequest{Method: "GET", URL: "https://example.com", Headers: map[string]string{}}

	require.NoError(t, signRequest(req1, domain.SignatureConfig{Secret: "shh"}))
	req2.Headers["X-Timestamp"] = req1.Headers["X-Timestamp"]

	require.NoError(t, signRequest(req2, domain.SignatureConfig{Secret: "shh"}))
	assert.Equal(t, req1.Headers["X-Timestamp"], req2.Headers["X-Timestamp"])
	assert.Equal(t, req1.Headers["X-Signature"], req2.Headers["X-Signature"])
}

func TestSignRequest_RejectsUnknownAlgorithm(t *testing.T) {
	req := &domain.BuiltRequest{Method: "GET", URL: "https://example.com", Headers: map[string]string{}}
	err := signRequest(req, domain.SignatureConfig{Secret: "shh", Algorithm: "md5"})
	assert.Error(t, err)
}

func TestSignRequest_IncludeBodyChangesSignature(t *testing.T) {
	base := &domain.BuiltRequest{Method: "POST", URL: "https://example.com", Headers: map[string]string{}}
	withBody := &domain.BuiltRequest{Method: "POST", URL: "https://example.com", Headers: map[string]string{}, Body: []byte(`{"a":1}`)}

	require.NoError(t, signRequest(base, domain.SignatureConfig{Secret: "shh", IncludeBody: true}))
	require.NoError(t, signRequest(withBody, domain.SignatureConfig{Secret: "shh", IncludeBody: true}))

	assert.NotEqual(t, base.Headers["X-Signature"], withBody.Headers["X-Signature"])
}
