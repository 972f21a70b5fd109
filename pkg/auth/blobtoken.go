/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fortune/Hello-Shindig/pkg/crypto/blobcrypter"
)

// maxTokenLifetime is how long a blob token stays valid after minting.
// Deliberately not configurable.
const maxTokenLifetime = 3600 * time.Second

// Field keys used inside the encrypted blob. Single characters keep the
// wire form short.
const (
	ownerKey          = "o"
	viewerKey         = "v"
	appURLKey         = "g"
	moduleIDKey       = "i"
	trustedJSONKey    = "j"
	expiresKey        = "x"
	wireFormSeparator = ":"
)

// TokenData holds the identity attributes carried by a blob token.
// Zero values are treated as absent and are left out of the wire form.
type TokenData struct {
	OwnerID     string
	ViewerID    string
	AppURL      string
	ModuleID    int64
	ExpiresAt   time.Time
	TrustedJSON string
}

// BlobCrypterToken is a security token serialized through a blob crypter.
// Wire format is "<container>:<encrypted blob>". The container prefix lets
// different containers use different keys.
type BlobCrypterToken struct {
	crypter   blobcrypter.Crypter
	container string
	domain    string

	ownerID     string
	viewerID    string
	appURL      string
	moduleID    int64
	expiresAt   time.Time
	trustedJSON string

	activeURL string
}

// NewBlobCrypterToken instantiates a token for encryption.
// domain is the signed fetch domain of the minting container.
func NewBlobCrypterToken(crypter blobcrypter.Crypter, container, domain string,
	data TokenData) *BlobCrypterToken {
	return &BlobCrypterToken{
		crypter:     crypter,
		container:   container,
		domain:      domain,
		ownerID:     data.OwnerID,
		viewerID:    data.ViewerID,
		appURL:      data.AppURL,
		moduleID:    data.ModuleID,
		expiresAt:   data.ExpiresAt,
		trustedJSON: data.TrustedJSON,
	}
}

// decryptBlobCrypterToken decrypts and verifies the blob portion of a wire
// token. Not public, use a codec instead. activeURL is attached out of band
// and is never part of the blob.
func decryptBlobCrypterToken(crypter blobcrypter.Crypter, container, domain, blob,
	activeURL string) (*BlobCrypterToken, error) {
	values, err := crypter.Unwrap(blob, maxTokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt security token: %w", err)
	}

	token := &BlobCrypterToken{
		crypter:     crypter,
		container:   container,
		domain:      domain,
		ownerID:     values[ownerKey],
		viewerID:    values[viewerKey],
		appURL:      values[appURLKey],
		trustedJSON: values[trustedJSONKey],
		activeURL:   activeURL,
	}

	if moduleID := values[moduleIDKey]; moduleID != "" {
		token.moduleID, err = strconv.ParseInt(moduleID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid module ID %q", ErrTokenMalformed, moduleID)
		}
	}

	if expiresAt := values[expiresKey]; expiresAt != "" {
		expiresAtSecs, err := strconv.ParseInt(expiresAt, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid expiry %q", ErrTokenMalformed, expiresAt)
		}

		token.expiresAt = time.Unix(expiresAtSecs, 0)
	}

	return token, nil
}

// Encrypt serializes the token into its wire form. The blob portion is *not*
// web safe and must be URL encoded before use as a form parameter.
func (t *BlobCrypterToken) Encrypt() (string, error) {
	blob, err := t.crypter.Wrap(t.buildValues())
	if err != nil {
		return "", fmt.Errorf("failed to encrypt security token: %w", err)
	}

	return t.container + wireFormSeparator + blob, nil
}

// buildValues maps the present attributes to their wire field keys.
// Absent attributes are left out entirely.
func (t *BlobCrypterToken) buildValues() map[string]string {
	values := make(map[string]string)

	if t.ownerID != "" {
		values[ownerKey] = t.ownerID
	}

	if t.viewerID != "" {
		values[viewerKey] = t.viewerID
	}

	if t.appURL != "" {
		values[appURLKey] = t.appURL
	}

	if t.moduleID != 0 {
		values[moduleIDKey] = strconv.FormatInt(t.moduleID, 10)
	}

	if !t.expiresAt.IsZero() {
		values[expiresKey] = strconv.FormatInt(t.expiresAt.Unix(), 10)
	}

	if t.trustedJSON != "" {
		values[trustedJSONKey] = t.trustedJSON
	}

	return values
}

// OwnerID returns the owner of the page the token was minted for.
func (t *BlobCrypterToken) OwnerID() string {
	return t.ownerID
}

// ViewerID returns the viewer the token was minted for.
func (t *BlobCrypterToken) ViewerID() string {
	return t.viewerID
}

// AppID returns the application URL. Legacy alias used for signed fetch.
func (t *BlobCrypterToken) AppID() string {
	return t.appURL
}

// AppURL returns the application URL.
func (t *BlobCrypterToken) AppURL() string {
	return t.appURL
}

// Domain returns the signed fetch domain of the minting container.
func (t *BlobCrypterToken) Domain() string {
	return t.domain
}

// Container returns the container that minted the token.
func (t *BlobCrypterToken) Container() string {
	return t.container
}

// ModuleID returns the module instance, or 0 when unknown.
func (t *BlobCrypterToken) ModuleID() int64 {
	return t.moduleID
}

// ExpiresAt returns the expiry carried in the token. The zero time means none
// was set; the blob age limit still applies regardless.
func (t *BlobCrypterToken) ExpiresAt() time.Time {
	return t.expiresAt
}

// IsExpired reports whether the token is past its expiry time.
func (t *BlobCrypterToken) IsExpired() bool {
	if t.expiresAt.IsZero() {
		return false
	}

	return time.Now().After(t.expiresAt)
}

// TrustedJSON returns the opaque container-trusted state, if any.
func (t *BlobCrypterToken) TrustedJSON() string {
	return t.trustedJSON
}

// ActiveURL returns the URL the token arrived on.
// It fails with ErrNoActiveURL when the codec had none to attach.
func (t *BlobCrypterToken) ActiveURL() (string, error) {
	if t.activeURL == "" {
		return "", ErrNoActiveURL
	}

	return t.activeURL, nil
}

// AuthenticationMode returns ModeSecurityTokenURLParameter.
func (t *BlobCrypterToken) AuthenticationMode() string {
	return ModeSecurityTokenURLParameter
}

// IsAnonymous always returns false.
func (t *BlobCrypterToken) IsAnonymous() bool {
	return false
}
