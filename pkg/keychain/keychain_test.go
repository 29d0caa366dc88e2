package keychain_test

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/modelyard/modelyard/pkg/domain"
	"github.com/modelyard/modelyard/pkg/keychain"
	"github.com/modelyard/modelyard/pkg/utils/try"
)

type exampleClaims struct {
	jwt.RegisteredClaims

	Digest string `json:"modelyard/digest"`
}

func TestJWS(t *testing.T) {
	now := time.Now()

	k := try.To(keychain.HS256(1*time.Hour, 2048/8).Issue()).OrFatal(t)
	kc := domain.Keychain{
		Name: "signer-for-test",
		Keys: []domain.SigningKey{k},
	}

	t.Run("it roundtrips claims", func(t *testing.T) {
		claims := &exampleClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "token#1",
				ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
			},
			Digest: "sha256:" + deadbeef64(),
		}

		token := try.To(keychain.NewJWS(k, claims)).OrFatal(t)

		verified := try.To(keychain.VerifyJWS[*exampleClaims](kc, token)).OrFatal(t)
		if verified.Digest != claims.Digest {
			t.Errorf(
				"digest in claims: got %s, want %s",
				verified.Digest, claims.Digest,
			)
		}
		if verified.ID != claims.ID {
			t.Errorf("jti in claims: got %s, want %s", verified.ID, claims.ID)
		}
	})

	t.Run("it rejects tokens signed with a key not in the keychain", func(t *testing.T) {
		stranger := try.To(keychain.HS256(1*time.Hour, 2048/8).Issue()).OrFatal(t)
		token := try.To(keychain.NewJWS(stranger, &exampleClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
			},
		})).OrFatal(t)

		if _, err := keychain.VerifyJWS[*exampleClaims](kc, token); err == nil {
			t.Error("no error for a token signed by an unknown key")
		}
	})

	t.Run("it rejects tokens signed with an expired key", func(t *testing.T) {
		expired := domain.SigningKey{
			KID:      "expired-kid",
			Alg:      "HS256",
			Secret:   []byte("expired-secret-expired-secret-!!"),
			IssuedAt: now.Add(-2 * time.Hour),
			Exp:      now.Add(-1 * time.Hour),
		}
		kcWithExpired := domain.Keychain{
			Name: kc.Name,
			Keys: []domain.SigningKey{k, expired},
		}

		token := try.To(keychain.NewJWS(expired, &exampleClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
			},
		})).OrFatal(t)

		if _, err := keychain.VerifyJWS[*exampleClaims](kcWithExpired, token); err == nil {
			t.Error("no error for a token signed by an expired key")
		}
	})

	t.Run("it rejects expired tokens", func(t *testing.T) {
		token := try.To(keychain.NewJWS(k, &exampleClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			},
		})).OrFatal(t)

		_, err := keychain.VerifyJWS[*exampleClaims](kc, token)
		if !errors.Is(err, keychain.ErrInvalidToken) {
			t.Errorf("error is not ErrInvalidToken: %v", err)
		}
	})

	t.Run("it rejects malformed tokens", func(t *testing.T) {
		_, err := keychain.VerifyJWS[*exampleClaims](kc, "not.a.token")
		if !errors.Is(err, keychain.ErrInvalidToken) {
			t.Errorf("error is not ErrInvalidToken: %v", err)
		}
	})

	t.Run("it rejects tampered tokens", func(t *testing.T) {
		token := try.To(keychain.NewJWS(k, &exampleClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
			},
			Digest: "sha256:" + deadbeef64(),
		})).OrFatal(t)

		tampered := token[:len(token)-2] + "xx"
		if _, err := keychain.VerifyJWS[*exampleClaims](kc, tampered); err == nil {
			t.Error("no error for a tampered token")
		}
	})
}

func TestHS256(t *testing.T) {
	ttl := 3 * time.Hour
	testee := keychain.HS256(ttl, 2048/8)

	before := time.Now()
	k := try.To(testee.Issue()).OrFatal(t)
	after := time.Now()

	if k.Alg != "HS256" {
		t.Errorf("alg: got %s, want HS256", k.Alg)
	}
	if len(k.Secret) != 2048/8 {
		t.Errorf("secret length: got %d, want %d", len(k.Secret), 2048/8)
	}
	if k.KID == "" {
		t.Error("kid is empty")
	}
	if k.Exp.Before(before.Add(ttl)) || k.Exp.After(after.Add(ttl)) {
		t.Errorf(
			"exp %s is out of expected range [%s, %s]",
			k.Exp, before.Add(ttl), after.Add(ttl),
		)
	}

	another := try.To(testee.Issue()).OrFatal(t)
	if another.KID == k.KID {
		t.Error("issued keys share a kid")
	}
	if string(another.Secret) == string(k.Secret) {
		t.Error("issued keys share a secret")
	}
}

func deadbeef64() string {
	d := ""
	for i := 0; i < 8; i++ {
		d += "deadbeef"
	}
	return d
}
