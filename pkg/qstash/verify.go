package qstash

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSignature = errors.New("qstash signature is invalid")

const signatureIssuer = "Upstash"

// Verifier checks the Upstash-Signature header QStash attaches to each
// delivery. Both keys are tried so key rotation does not drop messages.
type Verifier struct {
	currentKey string
	nextKey    string
	leeway     time.Duration
}

type signatureClaims struct {
	Body string `json:"body"`
	jwt.RegisteredClaims
}

func NewVerifier(cfg Config) (*Verifier, error) {
	current := strings.TrimSpace(cfg.CurrentSigningKey)
	next := strings.TrimSpace(cfg.NextSigningKey)
	if current == "" && next == "" {
		return nil, errors.New("qstash signing key is required")
	}
	return &Verifier{currentKey: current, nextKey: next, leeway: 5 * time.Second}, nil
}

// Verify validates signature against body. url is the address the message
// was delivered to; pass "" to skip the subject check.
func (v *Verifier) Verify(signature string, body []byte, url string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return fmt.Errorf("%w: missing signature", ErrInvalidSignature)
	}

	var lastErr error
	for _, key := range []string{v.currentKey, v.nextKey} {
		if key == "" {
			continue
		}
		if err := v.verifyWithKey(signature, body, url, key); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (v *Verifier) verifyWithKey(signature string, body []byte, url string, key string) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(signatureIssuer),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if url != "" {
		opts = append(opts, jwt.WithSubject(url))
	}

	var claims signatureClaims
	_, err := jwt.ParseWithClaims(signature, &claims, func(*jwt.Token) (any, error) {
		return []byte(key), nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	sum := sha256.Sum256(body)
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	if strings.TrimRight(claims.Body, "=") != want {
		return fmt.Errorf("%w: body hash mismatch", ErrInvalidSignature)
	}
	return nil
}
