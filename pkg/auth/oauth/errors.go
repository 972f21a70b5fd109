/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oauth

// Problem codes carried by rejected requests. The names follow the OAuth
// problem reporting extension so they can be relayed to clients as-is.
const (
	// ProblemTokenRejected means the oauth_token was not acceptable.
	ProblemTokenRejected = "token_rejected"
	// ProblemTokenExpired means the oauth_token has expired.
	ProblemTokenExpired = "token_expired"
	// ProblemConsumerKeyUnknown means the oauth_consumer_key is not known to the store.
	ProblemConsumerKeyUnknown = "consumer_key_unknown"
	// ProblemSignatureInvalid means the oauth_signature could not be validated.
	ProblemSignatureInvalid = "signature_invalid"
	// ProblemInvalidAuth means the request misused the protocol, for example a
	// bad or misplaced oauth_body_hash.
	ProblemInvalidAuth = "invalid_auth"
	// ProblemPermissionDenied means the store refused to authorize a
	// two-legged request for the named user.
	ProblemPermissionDenied = "permission_denied"
)

// ErrNotFound is returned by Store implementations when no record matches.
const ErrNotFound = oauthError("no matching record in the OAuth store")

type oauthError string

// Error returns the associated OAuth error message.
// This satisfies the built-in error interface.
func (e oauthError) Error() string { return string(e) }

// ProblemError is the single error shape for requests that failed OAuth
// verification. Code tells the kinds apart; Advice carries detail safe to
// relay to the client.
type ProblemError struct {
	Code   string
	Advice string
	Cause  error
}

// Error returns the formatted authentication failure message.
func (e *ProblemError) Error() string {
	msg := "oauth authentication failure: " + e.Code

	if e.Advice != "" {
		msg += ": " + e.Advice
	}

	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *ProblemError) Unwrap() error {
	return e.Cause
}
