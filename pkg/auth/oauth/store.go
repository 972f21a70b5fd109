/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oauth

import (
	"time"

	"github.com/fortune/Hello-Shindig/pkg/auth"
)

// EntryType is the lifecycle state of a token entry.
type EntryType string

// Token entry lifecycle states.
const (
	// TypeRequest marks a request token awaiting authorization. Not usable here.
	TypeRequest EntryType = "REQUEST"
	// TypeAccess marks an access token. Only these verify.
	TypeAccess EntryType = "ACCESS"
	// TypeDisabled marks a revoked or invalidated token.
	TypeDisabled EntryType = "DISABLED"
)

// Consumer holds the credentials and identity of a registered consumer.
// AppID, Domain and Container feed the security tokens minted for verified
// two-legged requests made with this consumer's key.
type Consumer struct {
	Key       string `json:"key"`
	Secret    string `json:"secret"`
	Name      string `json:"name,omitempty"`
	AppID     string `json:"appId,omitempty"`
	Domain    string `json:"domain,omitempty"`
	Container string `json:"container,omitempty"`
}

// Entry is a stored OAuth token with the attributes needed to build a
// security token for verified three-legged requests.
type Entry struct {
	Token       string    `json:"token"`
	TokenSecret string    `json:"tokenSecret"`
	Type        EntryType `json:"type"`
	UserID      string    `json:"userId"`
	AppID       string    `json:"appId,omitempty"`
	Domain      string    `json:"domain,omitempty"`
	Container   string    `json:"container,omitempty"`
	CallbackURL string    `json:"callbackUrl,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
}

// IsExpired reports whether the entry is past its expiry time.
// An entry without one never expires.
func (e *Entry) IsExpired() bool {
	if e.ExpiresAt.IsZero() {
		return false
	}

	return time.Now().After(e.ExpiresAt)
}

// Store resolves consumers and tokens during request verification.
// Implementations are expected to be remote or persistent; this package
// never caches or retries on their behalf.
type Store interface {
	// GetConsumer returns the consumer registered under the given key, or an
	// error wrapping ErrNotFound when there is none.
	GetConsumer(consumerKey string) (*Consumer, error)
	// GetEntry returns the token entry for the given token value, or an error
	// wrapping ErrNotFound when there is none.
	GetEntry(token string) (*Entry, error)
	// GetSecurityTokenForConsumerRequest authorizes a verified two-legged
	// request made with consumerKey on behalf of userID. The store decides
	// whether that user has authorized the consumer's application and fails
	// with a permission_denied ProblemError when not.
	GetSecurityTokenForConsumerRequest(consumerKey, userID string) (auth.SecurityToken, error)
}
