/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package auth

import (
	"time"

	"github.com/fortune/Hello-Shindig/pkg/containerconfig"
)

// anonymousID is the owner/viewer ID reported for unauthenticated requests.
const anonymousID = "-1"

// AnonymousToken is the security token attached to requests that carry no
// credentials. It never expires and carries no identity beyond the anonymous ID.
type AnonymousToken struct{}

// NewAnonymousToken instantiates an AnonymousToken.
func NewAnonymousToken() *AnonymousToken {
	return &AnonymousToken{}
}

// OwnerID returns the anonymous ID.
func (t *AnonymousToken) OwnerID() string {
	return anonymousID
}

// ViewerID returns the anonymous ID.
func (t *AnonymousToken) ViewerID() string {
	return anonymousID
}

// AppID returns an empty string.
func (t *AnonymousToken) AppID() string {
	return ""
}

// AppURL returns an empty string.
func (t *AnonymousToken) AppURL() string {
	return ""
}

// Domain returns an empty string.
func (t *AnonymousToken) Domain() string {
	return ""
}

// Container returns the default container.
func (t *AnonymousToken) Container() string {
	return containerconfig.DefaultContainer
}

// ModuleID returns 0.
func (t *AnonymousToken) ModuleID() int64 {
	return 0
}

// ExpiresAt returns the zero time. Anonymous tokens never expire.
func (t *AnonymousToken) ExpiresAt() time.Time {
	return time.Time{}
}

// IsExpired always returns false.
func (t *AnonymousToken) IsExpired() bool {
	return false
}

// TrustedJSON returns an empty string.
func (t *AnonymousToken) TrustedJSON() string {
	return ""
}

// ActiveURL fails with ErrNoActiveURL. Anonymous tokens never carry one.
func (t *AnonymousToken) ActiveURL() (string, error) {
	return "", ErrNoActiveURL
}

// AuthenticationMode returns ModeUnauthenticated.
func (t *AnonymousToken) AuthenticationMode() string {
	return ModeUnauthenticated
}

// IsAnonymous always returns true.
func (t *AnonymousToken) IsAnonymous() bool {
	return true
}
