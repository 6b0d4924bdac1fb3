package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgonHasher(t *testing.T) {
	var (
		password      = "password"
		wrongPassword = "wrongPassword"
		hasher        = NewArgonHasher(DefaultHashConfig())
	)

	hash, err := hasher.Hash(password)
	require.NoError(t, err, "создание хэша")
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"), "формат хэша")

	other, err := hasher.Hash(password)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "у каждого хэша своя соль")

	assert.True(t, hasher.Compare(password, hash), "успешная проверка хэша")
	assert.False(t, hasher.Compare(wrongPassword, hash), "неуспешная проверка хэша")
}

func TestArgonHasher_CompareMalformed(t *testing.T) {
	hasher := NewArgonHasher(DefaultHashConfig())

	tests := []struct {
		name string
		hash string
	}{
		{
			name: "пустой хэш",
			hash: "",
		},
		{
			name: "не хватает частей",
			hash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA",
		},
		{
			name: "другой алгоритм",
			hash: "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$a2V5",
		},
		{
			name: "другая версия",
			hash: "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$a2V5",
		},
		{
			name: "некорректная соль",
			hash: "$argon2id$v=19$m=65536,t=1,p=4$!!!$a2V5",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, hasher.Compare("password", tt.hash))
		})
	}
}
