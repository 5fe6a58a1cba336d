package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_run(t *testing.T) {
	t.Run("hex by default", func(t *testing.T) {
		var out bytes.Buffer

		err := run(nil, &out)

		require.NoError(t, err)
		key, err := hex.DecodeString(strings.TrimSpace(out.String()))
		require.NoError(t, err)
		require.Len(t, key, SecretKeyBytesLen)
	})

	t.Run("base64 of given size", func(t *testing.T) {
		var out bytes.Buffer

		err := run([]string{"-n", "48", "--format", "base64"}, &out)

		require.NoError(t, err)
		key, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(out.String()))
		require.NoError(t, err)
		require.Len(t, key, 48)
	})

	t.Run("keys differ", func(t *testing.T) {
		var first, second bytes.Buffer

		require.NoError(t, run(nil, &first))
		require.NoError(t, run(nil, &second))

		require.NotEqual(t, first.String(), second.String())
	})

	t.Run("invalid args", func(t *testing.T) {
		require.Error(t, run([]string{"-n", "8"}, &bytes.Buffer{}), "too short key")
		require.Error(t, run([]string{"--format", "binary"}, &bytes.Buffer{}))
		require.Error(t, run([]string{"--unknown"}, &bytes.Buffer{}))
	})
}
