package security

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ArgonHasher реализует service.Hasher с использованием Argon2id. Хэш хранится
// в формате PHC вместе с солью и параметрами, с которыми он был получен.
type ArgonHasher struct {
	cfg *HashConfig
}

type HashConfig struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

var errMalformedHash = errors.New("malformed argon2id hash")

func NewArgonHasher(cfg *HashConfig) *ArgonHasher {
	return &ArgonHasher{cfg: cfg}
}

func DefaultHashConfig() *HashConfig {
	return &HashConfig{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
		KeyLen:  32,
		SaltLen: 16,
	}
}

func (h *ArgonHasher) Hash(password string) (string, error) {
	salt, err := RandomBytes(h.cfg.SaltLen)
	if err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, h.cfg.Time, h.cfg.Memory, h.cfg.Threads, h.cfg.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.cfg.Memory,
		h.cfg.Time,
		h.cfg.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Compare сообщает, соответствует ли пароль хэшу. Некорректный хэш
// считается несовпадением.
func (h *ArgonHasher) Compare(password, hash string) bool {
	c, salt, key, err := decodeHash(hash)
	if err != nil {
		return false
	}

	other := argon2.IDKey([]byte(password), salt, c.Time, c.Memory, c.Threads, uint32(len(key)))

	return subtle.ConstantTimeCompare(key, other) == 1
}

func decodeHash(hash string) (*HashConfig, []byte, []byte, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, nil, errMalformedHash
	}

	c := &HashConfig{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &c.Memory, &c.Time, &c.Threads); err != nil {
		return nil, nil, nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, errMalformedHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, nil, errMalformedHash
	}

	return c, salt, key, nil
}
