package builder

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reqflux/reqflux/internal/domain"
)

// addAuthentication injects credentials into req according to
// auth.Type. Exactly one strategy runs per call; a custom handler runs
// in place of the built-in ones, with direct access to the header map
// and the credentials.
func (b *Builder) addAuthentication(req *domain.BuiltRequest, auth *domain.AuthConfig) error {
	switch auth.Type {
	case domain.AuthBasic:
		creds := base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
		req.Headers["Authorization"] = "Basic " + creds

	case domain.AuthBearer:
		req.Headers["Authorization"] = "Bearer " + auth.Token

	case domain.AuthAPIKey:
		name := auth.APIKeyName
		if name == "" {
			name = "X-API-Key"
		}
		switch auth.APIKeyPlacement {
		case domain.APIKeyInQuery:
			return addQueryParam(req, name, auth.APIKeyValue)
		default:
			req.Headers[name] = auth.APIKeyValue
		}

	case domain.AuthOAuth2:
		req.Headers["Authorization"] = "Bearer " + auth.Token

	case domain.AuthJWT:
		token, err := buildJWT(auth)
		if err != nil {
			return &BuildError{Stage: "auth", Message: err.Error()}
		}
		req.Headers["Authorization"] = "Bearer " + token

	case domain.AuthCustom:
		if auth.CustomHandler != nil {
			if err := auth.CustomHandler(req.Headers, auth.CustomCreds); err != nil {
				return &BuildError{Stage: "auth", Message: err.Error()}
			}
		}

	default:
		return &BuildError{Stage: "auth", Message: "unsupported auth type: " + string(auth.Type)}
	}

	return nil
}

func addQueryParam(req *domain.BuiltRequest, name, value string) error {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return &BuildError{Stage: "auth", Message: err.Error()}
	}
	q := parsed.Query()
	q.Set(name, value)
	parsed.RawQuery = q.Encode()
	req.URL = parsed.String()
	return nil
}

func buildJWT(auth *domain.AuthConfig) (string, error) {
	claims := jwt.MapClaims{}
	for k, v := range auth.JWTClaims {
		claims[k] = v
	}
	now := time.Now()
	if _, ok := claims["iat"]; !ok {
		claims["iat"] = now.Unix()
	}
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = now.Add(time.Hour).Unix()
	}

	method, err := jwtSigningMethod(auth.JWTAlgorithm)
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(method, claims)
	return token.SignedString([]byte(auth.JWTSecret))
}

func jwtSigningMethod(algorithm string) (jwt.SigningMethod, error) {
	switch algorithm {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm: %s", algorithm)
	}
}
