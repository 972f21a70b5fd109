/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package auth

import (
	"time"
)

// Authentication modes reported by SecurityToken.AuthenticationMode.
const (
	// ModeUnauthenticated is reported by tokens for requests that carried no credentials.
	ModeUnauthenticated = "UNAUTHENTICATED"
	// ModeSecurityTokenURLParameter is reported by tokens decoded from an encrypted blob parameter.
	ModeSecurityTokenURLParameter = "SECURITY_TOKEN_URL_PARAMETER"
	// ModeOAuth is reported by tokens produced from verified three-legged OAuth requests.
	ModeOAuth = "OAUTH"
	// ModeOAuthConsumerRequest is reported by tokens produced from verified two-legged OAuth requests.
	ModeOAuthConsumerRequest = "OAUTH_CONSUMER_REQUEST"
)

const (
	// ErrTokenMalformed is returned when a security token string does not have the expected shape.
	ErrTokenMalformed = authError("security token is malformed")
	// ErrUnknownContainer is returned when a security token names a container with no registered key.
	ErrUnknownContainer = authError("unknown container for security token")
	// ErrTokenTypeMismatch is returned by EncodeToken when given a token kind it cannot encode.
	ErrTokenTypeMismatch = authError("security token type cannot be encoded")
	// ErrNoActiveURL is returned by ActiveURL when no active URL was attached to the token.
	ErrNoActiveURL = authError("no active URL available")
)

type authError string

// Error returns the associated auth error message.
// This satisfies the built-in error interface.
func (e authError) Error() string { return string(e) }

// SecurityToken is an abstract representation of signed identity data attached
// to a request. The set of implementations is closed: BlobCrypterToken,
// AnonymousToken and OAuthToken.
type SecurityToken interface {
	// OwnerID identifies the owner of the page the request originates from.
	OwnerID() string
	// ViewerID identifies the user the request is made on behalf of.
	ViewerID() string
	// AppID identifies the application.
	AppID() string
	// AppURL is the URL of the application spec.
	AppURL() string
	// Domain is the domain used for signed fetch with the default key.
	Domain() string
	// Container identifies the container that minted the token.
	Container() string
	// ModuleID identifies the specific module instance on the owner's page. 0 means unknown.
	ModuleID() int64
	// ExpiresAt is the time at which the token stops validating. The zero time means it never expires.
	ExpiresAt() time.Time
	// IsExpired reports whether the token is past its expiry time.
	IsExpired() bool
	// TrustedJSON is opaque container-trusted state carried by the token. Never parsed here.
	TrustedJSON() string
	// ActiveURL is the URL the token is being used on, attached out of band.
	// It fails with ErrNoActiveURL when none was attached.
	ActiveURL() (string, error)
	// AuthenticationMode reports how the request carrying this token was authenticated.
	AuthenticationMode() string
	// IsAnonymous reports whether the token carries no authenticated identity.
	IsAnonymous() bool
}
