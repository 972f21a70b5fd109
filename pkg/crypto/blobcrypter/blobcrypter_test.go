/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package blobcrypter

import (
	"encoding/base64"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testMaxAge = 3600 * time.Second

func TestNew(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		crypter, err := New([]byte("0123456789abcdef"))
		require.NoError(t, err)
		require.NotNil(t, crypter)
	})
	t.Run("Failure: master key too short", func(t *testing.T) {
		crypter, err := New([]byte("tooshort"))
		require.EqualError(t, err, "master key must be at least 16 bytes long, got 8")
		require.Nil(t, crypter)
	})
}

func TestNewFromKeyFile(t *testing.T) {
	t.Run("Success: only first line used, whitespace trimmed", func(t *testing.T) {
		keyFilePath := filepath.Join(t.TempDir(), "key.txt")
		err := ioutil.WriteFile(keyFilePath, []byte("uYiqP8AXBnlIHYff0GC2z9RMEMlN6Jq9DQpc1IHjpcI=  \nsecond line is ignored\n"), 0600)
		require.NoError(t, err)

		crypter, err := NewFromKeyFile(keyFilePath)
		require.NoError(t, err)

		blob, err := crypter.Wrap(map[string]string{"o": "owner"})
		require.NoError(t, err)

		fields, err := crypter.Unwrap(blob, testMaxAge)
		require.NoError(t, err)
		require.Equal(t, map[string]string{"o": "owner"}, fields)
	})
	t.Run("Failure: file does not exist", func(t *testing.T) {
		crypter, err := NewFromKeyFile(filepath.Join(t.TempDir(), "nonexistent.txt"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to open master key file")
		require.Nil(t, crypter)
	})
	t.Run("Failure: file is blank", func(t *testing.T) {
		keyFilePath := filepath.Join(t.TempDir(), "key.txt")
		err := ioutil.WriteFile(keyFilePath, []byte("\n"), 0600)
		require.NoError(t, err)

		crypter, err := NewFromKeyFile(keyFilePath)
		require.Error(t, err)
		require.Contains(t, err.Error(), "is empty")
		require.Nil(t, crypter)
	})
	t.Run("Failure: first line too short", func(t *testing.T) {
		keyFilePath := filepath.Join(t.TempDir(), "key.txt")
		err := ioutil.WriteFile(keyFilePath, []byte("short\nuYiqP8AXBnlIHYff0GC2z9RMEMlN6Jq9DQpc1IHjpcI=\n"), 0600)
		require.NoError(t, err)

		crypter, err := NewFromKeyFile(keyFilePath)
		require.Error(t, err)
		require.Contains(t, err.Error(), "at least 16 bytes")
		require.Nil(t, crypter)
	})
}

func TestWrapAndUnwrap(t *testing.T) {
	crypter, err := New([]byte("0123456789abcdef"))
	require.NoError(t, err)

	t.Run("Success: fields survive a round trip unchanged", func(t *testing.T) {
		fields := map[string]string{
			"o": "john.doe:john.doe",
			"v": "jane.doe",
			"g": "http://www.example.com/gadget.xml",
			"i": "1",
			"j": `{"foo":"bar"}`,
		}

		blob, err := crypter.Wrap(fields)
		require.NoError(t, err)

		unwrapped, err := crypter.Unwrap(blob, testMaxAge)
		require.NoError(t, err)
		require.Equal(t, fields, unwrapped)
	})
	t.Run("Success: empty field map round trips", func(t *testing.T) {
		blob, err := crypter.Wrap(map[string]string{})
		require.NoError(t, err)

		unwrapped, err := crypter.Unwrap(blob, testMaxAge)
		require.NoError(t, err)
		require.Empty(t, unwrapped)
	})
	t.Run("Success: two wraps of the same fields produce different blobs", func(t *testing.T) {
		fields := map[string]string{"o": "owner"}

		blob1, err := crypter.Wrap(fields)
		require.NoError(t, err)

		blob2, err := crypter.Wrap(fields)
		require.NoError(t, err)

		require.NotEqual(t, blob1, blob2)
	})
	t.Run("Failure: blob is not valid base64", func(t *testing.T) {
		fields, err := crypter.Unwrap("not-base64!!!", testMaxAge)
		require.ErrorIs(t, err, ErrBlobUndecodable)
		require.Nil(t, fields)
	})
	t.Run("Failure: blob too short to contain a nonce", func(t *testing.T) {
		fields, err := crypter.Unwrap(base64.StdEncoding.EncodeToString([]byte("abc")), testMaxAge)
		require.ErrorIs(t, err, ErrBlobUndecodable)
		require.Nil(t, fields)
	})
	t.Run("Failure: blob encrypted under a different key", func(t *testing.T) {
		otherCrypter, err := New([]byte("fedcba9876543210"))
		require.NoError(t, err)

		blob, err := otherCrypter.Wrap(map[string]string{"o": "owner"})
		require.NoError(t, err)

		fields, err := crypter.Unwrap(blob, testMaxAge)
		require.ErrorIs(t, err, ErrBlobUndecodable)
		require.Nil(t, fields)
	})
}

func TestUnwrapTamperedBlob(t *testing.T) {
	crypter, err := New([]byte("0123456789abcdef"))
	require.NoError(t, err)

	blob, err := crypter.Wrap(map[string]string{"o": "owner", "v": "viewer"})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	// flipping any single bit anywhere in the blob must make it undecodable
	for i := range raw {
		tampered := make([]byte, len(raw))
		copy(tampered, raw)
		tampered[i] ^= 0x01

		fields, err := crypter.Unwrap(base64.StdEncoding.EncodeToString(tampered), testMaxAge)
		require.ErrorIs(t, err, ErrBlobUndecodable, "tampering with byte %d went undetected", i)
		require.Nil(t, fields)
	}
}

func TestUnwrapAge(t *testing.T) {
	crypter, err := New([]byte("0123456789abcdef"))
	require.NoError(t, err)

	wrappedAt := time.Date(2022, time.June, 15, 12, 0, 0, 0, time.UTC)

	crypter.now = func() time.Time { return wrappedAt }

	blob, err := crypter.Wrap(map[string]string{"o": "owner"})
	require.NoError(t, err)

	t.Run("Success: one second before the age limit", func(t *testing.T) {
		crypter.now = func() time.Time { return wrappedAt.Add(testMaxAge - time.Second) }

		fields, err := crypter.Unwrap(blob, testMaxAge)
		require.NoError(t, err)
		require.Equal(t, map[string]string{"o": "owner"}, fields)
	})
	t.Run("Failure: one second past the age limit", func(t *testing.T) {
		crypter.now = func() time.Time { return wrappedAt.Add(testMaxAge + time.Second) }

		fields, err := crypter.Unwrap(blob, testMaxAge)
		require.ErrorIs(t, err, ErrBlobExpired)
		require.NotErrorIs(t, err, ErrBlobUndecodable)
		require.Nil(t, fields)
	})
}
