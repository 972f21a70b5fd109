/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package auth

import (
	"fmt"
	"strings"

	"github.com/trustbloc/edge-core/pkg/log"

	"github.com/fortune/Hello-Shindig/pkg/containerconfig"
	"github.com/fortune/Hello-Shindig/pkg/crypto/blobcrypter"
)

const logModuleName = "auth"

var logger = log.New(logModuleName)

// Parameter names understood by SecurityTokenCodec.CreateToken.
const (
	// SecurityTokenParam carries the wire-format security token.
	SecurityTokenParam = "token"
	// ActiveURLParam carries the URL the token is being used on.
	ActiveURLParam = "activeUrl"
)

// SecurityTokenCodec converts between wire-format token strings and
// SecurityToken values.
type SecurityTokenCodec interface {
	// CreateToken decodes and verifies the token in tokenParameters.
	// An absent or blank token parameter yields an anonymous token, not an error.
	CreateToken(tokenParameters map[string]string) (SecurityToken, error)
	// EncodeToken serializes a token into its wire form.
	EncodeToken(token SecurityToken) (string, error)
}

// containerKeys holds the per-container state needed to decode tokens.
type containerKeys struct {
	crypter           blobcrypter.Crypter
	signedFetchDomain string
}

// BlobTokenCodec is a SecurityTokenCodec for blob crypter tokens.
// Each configured container gets its own crypter, loaded from that
// container's key file at construction time.
type BlobTokenCodec struct {
	containers map[string]containerKeys
}

// NewBlobTokenCodec instantiates a BlobTokenCodec from container configuration.
// A container whose key file cannot be loaded fails construction outright:
// someone configured a key file, so not being able to use it merits refusing
// to start. Containers without a key file are skipped, they cannot host blob
// tokens.
func NewBlobTokenCodec(containers map[string]containerconfig.Container) (*BlobTokenCodec, error) {
	codec := &BlobTokenCodec{containers: make(map[string]containerKeys)}

	for containerID, container := range containers {
		if container.SecurityTokenKeyFile == "" {
			logger.Debugf("container %s has no security token key file, skipping", containerID)
			continue
		}

		crypter, err := blobcrypter.NewFromKeyFile(container.SecurityTokenKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load security token key for container %s: %w",
				containerID, err)
		}

		codec.containers[containerID] = containerKeys{
			crypter:           crypter,
			signedFetchDomain: container.SignedFetchDomain,
		}

		logger.Debugf("registered security token crypter for container %s", containerID)
	}

	return codec, nil
}

// CreateToken decodes and verifies a wire-format token.
// An absent or blank token parameter yields an anonymous token. A decoded
// token gets the activeUrl parameter attached.
func (c *BlobTokenCodec) CreateToken(tokenParameters map[string]string) (SecurityToken, error) {
	token := tokenParameters[SecurityTokenParam]
	if strings.TrimSpace(token) == "" {
		// no token is present, assume anonymous access
		return NewAnonymousToken(), nil
	}

	fields := strings.Split(token, wireFormSeparator)
	if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
		return nil, fmt.Errorf("%w: %s", ErrTokenMalformed, token)
	}

	container := fields[0]

	keys, ok := c.containers[container]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContainer, container)
	}

	decodedToken, err := decryptBlobCrypterToken(keys.crypter, container, keys.signedFetchDomain,
		fields[1], tokenParameters[ActiveURLParam])
	if err != nil {
		logger.Debugf("failed to decode security token for container %s: %s", container, err)

		return nil, err
	}

	return decodedToken, nil
}

// EncodeToken serializes a token into its wire form. Only blob crypter tokens
// can be encoded.
func (c *BlobTokenCodec) EncodeToken(token SecurityToken) (string, error) {
	switch t := token.(type) {
	case *BlobCrypterToken:
		return t.Encrypt()
	default:
		return "", fmt.Errorf("%w: %T", ErrTokenTypeMismatch, token)
	}
}
