/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package blobcrypter

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"time"

	"github.com/google/tink/go/subtle/random"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock/local"
	"golang.org/x/crypto/hkdf"
)

const (
	// minMasterKeyLen is the smallest master key accepted. Anything shorter is
	// too weak to derive an encryption key from.
	minMasterKeyLen = 16

	encryptionKeyLen = 32
)

const (
	// ErrBlobExpired is returned by Unwrap when the blob decrypted and verified
	// correctly but was created longer ago than the given maximum age.
	ErrBlobExpired = crypterError("blob is past its maximum allowed age")
	// ErrBlobUndecodable is returned by Unwrap when the blob could not be decoded,
	// decrypted or verified. The specific cause is deliberately not distinguishable.
	ErrBlobUndecodable = crypterError("blob could not be decrypted and verified")
)

type crypterError string

// Error returns the associated crypter error message.
// This satisfies the built-in error interface.
func (e crypterError) Error() string { return string(e) }

// Crypter encrypts and authenticates maps of string fields, embedding the
// creation time so that consumers can enforce a maximum age on decrypt.
type Crypter interface {
	// Wrap encrypts the given fields into an opaque blob.
	Wrap(fields map[string]string) (string, error)
	// Unwrap decrypts a blob produced by Wrap and enforces that it was created
	// no longer than maxAge ago.
	Unwrap(blob string, maxAge time.Duration) (map[string]string, error)
}

// envelope is the plaintext carried inside a blob.
type envelope struct {
	CreatedAt int64             `json:"t"`
	Fields    map[string]string `json:"f"`
}

// Basic is a Crypter backed by AES-256-GCM with the encryption key expanded
// from the master key via HKDF-SHA256.
type Basic struct {
	aead cipher.AEAD
	now  func() time.Time
}

// New instantiates a Basic crypter from raw master key material.
func New(masterKey []byte) (*Basic, error) {
	if len(masterKey) < minMasterKeyLen {
		return nil, fmt.Errorf("master key must be at least %d bytes long, got %d", minMasterKeyLen, len(masterKey))
	}

	// expand an encryption key from the master key
	expander := hkdf.New(sha256.New, masterKey, nil, nil)

	encryptionKey := make([]byte, encryptionKeyLen)

	_, err := io.ReadFull(expander, encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to expand encryption key: %w", err)
	}

	aead, err := createAESCipher(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	return &Basic{
		aead: aead,
		now:  time.Now,
	}, nil
}

// NewFromKeyFile instantiates a Basic crypter from a key file.
// The first line of the file, with surrounding whitespace trimmed, is used
// verbatim as the master key. Suitable files can be created with
// `openssl rand -base64 32 > key.txt`.
func NewFromKeyFile(path string) (*Basic, error) {
	masterKeyReader, err := local.MasterKeyFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open master key file: %w", err)
	}

	masterKeyData, err := ioutil.ReadAll(masterKeyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read master key file: %w", err)
	}

	masterKey := firstLine(masterKeyData)
	if len(masterKey) == 0 {
		return nil, fmt.Errorf("master key file %s is empty", path)
	}

	return New(masterKey)
}

// Wrap encrypts fields into a blob along with the current time. The blob is
// base64 (standard encoding, so not URL-safe) over nonce||ciphertext.
func (c *Basic) Wrap(fields map[string]string) (string, error) {
	plaintext, err := json.Marshal(envelope{CreatedAt: c.now().Unix(), Fields: fields})
	if err != nil {
		return "", fmt.Errorf("failed to marshal blob contents: %w", err)
	}

	nonce := random.GetRandomBytes(uint32(c.aead.NonceSize()))
	ct := c.aead.Seal(nil, nonce, plaintext, nil)
	ct = append(nonce, ct...)

	return base64.StdEncoding.EncodeToString(ct), nil
}

// Unwrap authenticates and decrypts a blob produced by Wrap, then checks that
// it was created no longer than maxAge ago. Failures are reported as
// ErrBlobUndecodable or ErrBlobExpired so that callers can tell a stale blob
// from a corrupted one.
func (c *Basic) Unwrap(blob string, maxAge time.Duration) (map[string]string, error) {
	ct, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64", ErrBlobUndecodable)
	}

	nonceSize := c.aead.NonceSize()

	// the blob must contain more than just the nonce
	if len(ct) <= nonceSize {
		return nil, fmt.Errorf("%w: too short", ErrBlobUndecodable)
	}

	plaintext, err := c.aead.Open(nil, ct[0:nonceSize], ct[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrBlobUndecodable)
	}

	var contents envelope

	err = json.Unmarshal(plaintext, &contents)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed contents", ErrBlobUndecodable)
	}

	createdAt := time.Unix(contents.CreatedAt, 0)
	if age := c.now().Sub(createdAt); age > maxAge {
		return nil, fmt.Errorf("%w: blob is %s old, max age is %s", ErrBlobExpired, age, maxAge)
	}

	if contents.Fields == nil {
		return map[string]string{}, nil
	}

	return contents.Fields, nil
}

func createAESCipher(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

func firstLine(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}

	return bytes.TrimSpace(data)
}
