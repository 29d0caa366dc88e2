package keychain

import (
	"errors"
	"reflect"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/modelyard/modelyard/pkg/domain"
)

var ErrNoKeyFound error = errors.New("no key found")
var ErrInvalidToken error = errors.New("invalid token")

// NewJWS signs for claim and returns a JWS (JSON Web Signature) token string
//
// # Args
//
// - k: key to sign. Its KID is put in the token header.
//
// - claims: Claims to be signed
//
// # Returns
//
// - string: JWT token string
//
// - error: from [jwt.Token.SignedString]
func NewJWS[C jwt.Claims](k domain.SigningKey, claims C) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["kid"] = k.KID
	return tok.SignedString(k.Secret)
}

// VerifyJWS verifies a JWS (JSON Web Signature) token and returns the claims
//
// # Args
//
// - keychain: Keychain to find the key to verify the token
//
// - token: JWT token string
//
// # Returns
//
// - C: Claims. The type C should be a pointer to a struct that implements [jwt.Claims].
//
// - error: can be [ErrNoKeyFound] when the key the token names is not in
// the Keychain, [ErrInvalidToken] when the token is broken, forged or
// expired, or any errors from [jwt.ParseWithClaims]
func VerifyJWS[C jwt.Claims](kc domain.Keychain, token string) (C, error) {
	now := time.Now()

	_c := *new(C)

	{
		rc := reflect.ValueOf(_c)
		if rc.Kind() != reflect.Ptr {
			return *new(C), errors.New("claims type must be a pointer")
		}

		val := reflect.New(rc.Type().Elem()).Interface()
		cp := val.(C)
		_c = cp
	}

	tok, err := jwt.ParseWithClaims(token, _c, func(t *jwt.Token) (interface{}, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok {
			return nil, ErrNoKeyFound
		}
		k, ok := kc.GetKey(kid)
		if !ok || k.Alg != t.Method.Alg() || k.Expired(now) {
			return nil, ErrNoKeyFound
		}
		return k.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return *new(C), errors.Join(ErrInvalidToken, err)
		}
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return *new(C), errors.Join(ErrInvalidToken, err)
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return *new(C), errors.Join(ErrInvalidToken, err)
		}
		return *new(C), err
	}

	claims, ok := tok.Claims.(C)
	if !ok {
		return *new(C), ErrInvalidToken
	}
	return claims, nil
}
