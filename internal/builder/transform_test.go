package builder

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqflux/reqflux/internal/domain"
)

func TestTransformEncryptBody_Base64EncodesAndFlagsHeader(t *testing.T) {
	req := &domain.BuiltRequest{Body: []byte("payload"), Headers: map[string]string{}}

	require.NoError(t, transformEncryptBody(req, nil))

	decoded, err := base64.StdEncoding.DecodeString(string(req.Body))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(decoded))
	assert.Equal(t, "true", req.Headers["X-Encrypted"])
}

func TestTransformEncryptBody_EmptyBodyIsNoop(t *testing.T) {
	req := &domain.BuiltRequest{Headers: map[string]string{}}
	require.NoError(t, transformEncryptBody(req, nil))
	assert.Empty(t, req.Body)
	assert.NotContains(t, req.Headers, "X-Encrypted")
}

func TestTransformAddTimestamp_SetsRFC3339Header(t *testing.T) {
	req := &domain.BuiltRequest{Headers: map[string]string{}}
	require.NoError(t, transformAddTimestamp(req, nil))
	assert.NotEmpty(t, req.Headers["X-Timestamp"])
}

func TestTransformAddRequestID_SetsUniqueIDs(t *testing.T) {
	req1 := &domain.BuiltRequest{Headers: map[string]string{}}
	req2 := &domain.BuiltRequest{Headers: map[string]string{}}

	require.NoError(t, transformAddRequestID(req1, nil))
	require.NoError(t, transformAddRequestID(req2, nil))

	assert.NotEmpty(t, req1.Headers["X-Request-ID"])
	assert.NotEqual(t, req1.Headers["X-Request-ID"], req2.Headers["X-Request-ID"])
}
