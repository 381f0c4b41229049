package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/facilitydesk/facilitydesk/internal/workers"
	"github.com/facilitydesk/facilitydesk/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSecret = errors.New("jwt secret not configured")

// GenerateAccessToken creates a signed JWT for an authenticated worker. The
// institutionId claim scopes the token to that worker's institution.
func GenerateAccessToken(secret string, id *workers.Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":           id.Username,
		"name":          id.Name,
		"role":          id.Role,
		"institutionId": id.InstitutionID,
		"iat":           now.Unix(),
		"exp":           now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// Verifier checks HS256 tokens issued by GenerateAccessToken.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

type verifiedToken struct {
	claims jwt.MapClaims
}

func (t *verifiedToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = map[string]interface{}(t.claims)
		return nil
	}
	raw, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func (v *Verifier) Verify(_ context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return &verifiedToken{claims: claims}, nil
}
