package builder

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/reqflux/reqflux/internal/domain"
)

func (b *Builder) setupDefaultTransformers() {
	b.transformers["encrypt_body"] = transformEncryptBody
	b.transformers["add_timestamp"] = transformAddTimestamp
	b.transformers["add_request_id"] = transformAddRequestID
}

// transformEncryptBody base64-encodes the body in place, the same
// placeholder "encryption" the builder this is grounded on uses; real
// encryption is left to a caller-registered transformer.
func transformEncryptBody(req *domain.BuiltRequest, _ map[string]any) error {
	if len(req.Body) == 0 {
		return nil
	}
	encoded := base64.StdEncoding.EncodeToString(req.Body)
	req.Body = []byte(encoded)
	req.Headers["X-Encrypted"] = "true"
	return nil
}

func transformAddTimestamp(req *domain.BuiltRequest, _ map[string]any) error {
	req.Headers["X-Timestamp"] = time.Now().UTC().Format(time.RFC3339)
	return nil
}

func transformAddRequestID(req *domain.BuiltRequest, _ map[string]any) error {
	req.Headers["X-Request-ID"] = uuid.NewString()
	return nil
}
