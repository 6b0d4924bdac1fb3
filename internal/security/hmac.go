package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

// HMACSigner реализует Signer с использованием HMAC-SHA256. Подписанный токен
// имеет вид "<токен>.<подпись>" и передаётся в заголовке Authorization,
// в том числе со схемой Bearer.
type HMACSigner struct {
	key []byte
}

const bearerPrefix = "Bearer "

var ErrIncorrectHMACSignature = errors.New("incorrect signature")

func NewHMACSigner(key string) *HMACSigner {
	return &HMACSigner{key: []byte(key)}
}

func (s *HMACSigner) Sign(token string) string {
	return token + "." + base64.RawURLEncoding.EncodeToString(s.mac(token))
}

func (s *HMACSigner) Parse(signed string) (string, error) {
	if len(signed) > len(bearerPrefix) && strings.EqualFold(signed[:len(bearerPrefix)], bearerPrefix) {
		signed = signed[len(bearerPrefix):]
	}

	token, sign, ok := strings.Cut(signed, ".")
	if !ok || token == "" {
		return "", ErrIncorrectHMACSignature
	}

	mac, err := base64.RawURLEncoding.DecodeString(sign)
	if err != nil {
		return "", ErrIncorrectHMACSignature
	}

	if !hmac.Equal(s.mac(token), mac) {
		return "", ErrIncorrectHMACSignature
	}

	return token, nil
}

func (s *HMACSigner) mac(token string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(token))

	return h.Sum(nil)
}
