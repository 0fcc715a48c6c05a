package builder

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"time"

	"github.com/reqflux/reqflux/internal/domain"
)

// signRequest computes an HMAC over "method\nurl\ntimestamp[\nbody]"
// and attaches it as X-Signature alongside the X-Timestamp it was
// computed against, so a verifier can reconstruct the exact base
// string instead of racing a second clock read.
func signRequest(req *domain.BuiltRequest, cfg domain.SignatureConfig) error {
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	base := req.Method + "\n" + req.URL + "\n" + ts
	if cfg.IncludeBody && len(req.Body) > 0 {
		base += "\n" + string(req.Body)
	}

	var mac hash.Hash
	switch cfg.Algorithm {
	case domain.SignatureHMACSHA512:
		mac = hmac.New(sha512.New, []byte(cfg.Secret))
	case domain.SignatureHMACSHA256, "":
		mac = hmac.New(sha256.New, []byte(cfg.Secret))
	default:
		return fmt.Errorf("unsupported signing algorithm: %s", cfg.Algorithm)
	}

	mac.Write([]byte(base))
	req.Headers["X-Signature"] = hex.EncodeToString(mac.Sum(nil))
	req.Headers["X-Timestamp"] = ts
	return nil
}
