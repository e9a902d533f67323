package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by access tokens issued to TeamPro users.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string { return c.Subject }

func NewClaims(userID, email, role string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func SignHS256(claims Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func SignRS256(claims Claims, key *rsa.PrivateKey, kid string) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	return tok.SignedString(key)
}

func ParseAndVerifyHS256(token, secret string) (*Claims, error) {
	return (&Verifier{Secret: secret}).Verify(token)
}

func VerifyRS256(token string, pubKey *rsa.PublicKey) (*Claims, error) {
	return (&Verifier{keyFor: func(string) (*rsa.PublicKey, error) { return pubKey, nil }}).Verify(token)
}

// Verifier accepts HS256 tokens signed with Secret and RS256 tokens whose kid
// resolves through JWKS. Either may be left unset.
type Verifier struct {
	Secret string
	JWKS   *JWKSClient
	Leeway time.Duration

	keyFor func(kid string) (*rsa.PublicKey, error)
}

func (v *Verifier) Verify(token string) (*Claims, error) {
	var claims Claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(v.Leeway),
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, v.keyFunc, opts...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	switch t.Method.Alg() {
	case jwt.SigningMethodHS256.Alg():
		if v.Secret == "" {
			return nil, errors.New("hs256 not enabled")
		}
		return []byte(v.Secret), nil
	case jwt.SigningMethodRS256.Alg():
		kid, _ := t.Header["kid"].(string)
		if v.keyFor != nil {
			return v.keyFor(kid)
		}
		if v.JWKS == nil {
			return nil, errors.New("rs256 not enabled")
		}
		return v.JWKS.Get(kid)
	default:
		return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
	}
}
