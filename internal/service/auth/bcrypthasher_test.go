package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func Test_BcryptHasher(t *testing.T) {
	t.Parallel()

	h := BcryptHasher{}

	t.Run("hash password", func(t *testing.T) {
		got, err := h.Hash("password")
		require.NoError(t, err)

		require.Len(t, got, 60, "bcrypt length is 60 letters as far as i know")
		require.Equal(t, "$2a$", got[:4], "bcrypt has should have prefix '$2a$'")
	})

	t.Run("compare password ok", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		err = h.Compare(hash, "password")

		require.NoError(t, err)
	})

	t.Run("fail compare if wrong password", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		err = h.Compare(hash, "wrong")

		require.Error(t, err)
	})

	t.Run("cost is configurable", func(t *testing.T) {
		hash, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash("password")
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		require.Equal(t, bcrypt.MinCost, cost)

		defaultHash, err := h.Hash("password")
		require.NoError(t, err)
		cost, err = bcrypt.Cost([]byte(defaultHash))
		require.NoError(t, err)
		require.Equal(t, bcrypt.DefaultCost, cost, "zero cost means default one")

		require.NoError(t, h.Compare(hash, "password"), "hashes of any cost are compared")
	})

	t.Run("long passwords differ after 72 bytes", func(t *testing.T) {
		long := strings.Repeat("a", 80)
		hash, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash(long + "1")
		require.NoError(t, err)

		require.Error(t, h.Compare(hash, long+"2"))
	})

	t.Run("dummy hash is valid bcrypt hash", func(t *testing.T) {
		cost, err := bcrypt.Cost([]byte(dummyHash))

		require.NoError(t, err)
		require.Equal(t, bcrypt.DefaultCost, cost)
	})
}
