/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package auth

import (
	"time"
)

// OAuthToken is a security token issued for a verified OAuth request.
// The store resolving the request supplies the identity attributes.
type OAuthToken struct {
	userID    string
	appURL    string
	appID     string
	domain    string
	container string
	expiresAt time.Time
	mode      string
}

// NewOAuthToken instantiates an OAuthToken. The owner and viewer are both the
// given user. mode is ModeOAuth for three-legged requests and
// ModeOAuthConsumerRequest for two-legged ones.
func NewOAuthToken(userID, appURL, appID, domain, container string, expiresAt time.Time,
	mode string) *OAuthToken {
	return &OAuthToken{
		userID:    userID,
		appURL:    appURL,
		appID:     appID,
		domain:    domain,
		container: container,
		expiresAt: expiresAt,
		mode:      mode,
	}
}

// OwnerID returns the user the token was issued for.
func (t *OAuthToken) OwnerID() string {
	return t.userID
}

// ViewerID returns the user the token was issued for.
func (t *OAuthToken) ViewerID() string {
	return t.userID
}

// AppID returns the application ID.
func (t *OAuthToken) AppID() string {
	return t.appID
}

// AppURL returns the application URL.
func (t *OAuthToken) AppURL() string {
	return t.appURL
}

// Domain returns the signed fetch domain.
func (t *OAuthToken) Domain() string {
	return t.domain
}

// Container returns the container.
func (t *OAuthToken) Container() string {
	return t.container
}

// ModuleID returns 0. OAuth requests are not tied to a module instance.
func (t *OAuthToken) ModuleID() int64 {
	return 0
}

// ExpiresAt returns the token expiry time. The zero time means it never expires.
func (t *OAuthToken) ExpiresAt() time.Time {
	return t.expiresAt
}

// IsExpired reports whether the token is past its expiry time.
func (t *OAuthToken) IsExpired() bool {
	if t.expiresAt.IsZero() {
		return false
	}

	return time.Now().After(t.expiresAt)
}

// TrustedJSON returns an empty string.
func (t *OAuthToken) TrustedJSON() string {
	return ""
}

// ActiveURL fails with ErrNoActiveURL. OAuth tokens never carry one.
func (t *OAuthToken) ActiveURL() (string, error) {
	return "", ErrNoActiveURL
}

// AuthenticationMode returns the mode the token was created with.
func (t *OAuthToken) AuthenticationMode() string {
	return t.mode
}

// IsAnonymous always returns false.
func (t *OAuthToken) IsAnonymous() bool {
	return false
}
