/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oauth

import (
	"crypto/hmac"
	"crypto/sha1" //nolint: gosec // mandated by the OAuth body hash computation
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/trustbloc/edge-core/pkg/log"

	"github.com/fortune/Hello-Shindig/pkg/auth"
)

const (
	// RequestorIDParam names the user a signed consumer request is made on
	// behalf of.
	RequestorIDParam = "xoauth_requestor_id"

	oauthTokenParam           = "oauth_token"
	oauthConsumerKeyParam     = "oauth_consumer_key"
	oauthSignatureParam       = "oauth_signature"
	oauthSignatureMethodParam = "oauth_signature_method"
	oauthBodyHashParam        = "oauth_body_hash"
)

const logModuleName = "oauth-auth"

var logger = log.New(logModuleName)

// Handler authenticates requests signed with OAuth 1.0a. It covers both
// three-legged requests carrying an access token and signed consumer requests
// identifying their user through xoauth_requestor_id.
type Handler struct {
	store Store
}

// NewHandler returns a Handler that verifies requests against the given store.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Name returns the name of the authentication scheme this handler implements.
func (h *Handler) Name() string {
	return "OAuth"
}

// SecurityTokenFromRequest authenticates req. A request without an
// oauth_signature parameter is not an OAuth request and yields (nil, nil) so
// other handlers can have a go at it. Verification itself has no side
// effects, so re-verifying the same request gives the same result.
func (h *Handler) SecurityTokenFromRequest(req *http.Request) (auth.SecurityToken, error) {
	msg, err := parseMessage(req)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OAuth parameters: %w", err)
	}

	if msg.parameter(oauthSignatureParam) == "" {
		// not an OAuth request
		return nil, nil
	}

	if bodyHash := msg.parameter(oauthBodyHashParam); bodyHash != "" {
		if err := h.verifyBodyHash(req, bodyHash); err != nil {
			logger.Debugf("rejecting OAuth request: %s", err)

			return nil, err
		}
	}

	token, err := h.verifyMessage(msg)
	if err != nil {
		logger.Debugf("rejecting OAuth request: %s", err)

		return nil, err
	}

	return token, nil
}

// WWWAuthenticateHeader returns the challenge to send when this handler
// rejects a request.
func (h *Handler) WWWAuthenticateHeader(realm string) string {
	return fmt.Sprintf("OAuth realm=%q", realm)
}

// verifyMessage resolves the token entry and consumer named by msg, checks
// the signature against their secrets and maps the verified request to a
// security token.
func (h *Handler) verifyMessage(msg *message) (auth.SecurityToken, error) {
	entry, err := h.oauthEntry(msg)
	if err != nil {
		return nil, err
	}

	consumer, err := h.consumer(msg)
	if err != nil {
		return nil, err
	}

	tokenSecret := ""
	if entry != nil {
		tokenSecret = entry.TokenSecret
	}

	if err := validateSignature(msg, consumer, tokenSecret); err != nil {
		return nil, &ProblemError{Code: ProblemSignatureInvalid, Advice: err.Error(), Cause: err}
	}

	return h.tokenFromVerifiedRequest(msg, entry, consumer)
}

// oauthEntry looks up the access token entry named by msg. A request without
// an oauth_token parameter is a signed consumer request and has no entry.
func (h *Handler) oauthEntry(msg *message) (*Entry, error) {
	token := msg.parameter(oauthTokenParam)
	if token == "" {
		return nil, nil
	}

	entry, err := h.store.GetEntry(token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &ProblemError{Code: ProblemTokenRejected, Advice: "cannot find token", Cause: err}
		}

		return nil, fmt.Errorf("failed to look up OAuth token: %w", err)
	}

	if entry.Type != TypeAccess {
		return nil, &ProblemError{Code: ProblemTokenRejected, Advice: "token is not an access token"}
	}

	if entry.IsExpired() {
		return nil, &ProblemError{Code: ProblemTokenExpired}
	}

	return entry, nil
}

func (h *Handler) consumer(msg *message) (*Consumer, error) {
	consumer, err := h.store.GetConsumer(msg.parameter(oauthConsumerKeyParam))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &ProblemError{Code: ProblemConsumerKeyUnknown, Cause: err}
		}

		return nil, fmt.Errorf("failed to look up OAuth consumer: %w", err)
	}

	return consumer, nil
}

// tokenFromVerifiedRequest maps a request that passed signature verification
// to a security token. Three-legged requests take their identity from the
// token entry while signed consumer requests delegate to the store.
func (h *Handler) tokenFromVerifiedRequest(msg *message, entry *Entry,
	consumer *Consumer) (auth.SecurityToken, error) {
	if entry != nil {
		return auth.NewOAuthToken(entry.UserID, entry.CallbackURL, entry.AppID,
			entry.Domain, entry.Container, entry.ExpiresAt, auth.ModeOAuth), nil
	}

	return h.store.GetSecurityTokenForConsumerRequest(consumer.Key, msg.parameter(RequestorIDParam))
}

// verifyBodyHash checks the oauth_body_hash parameter against the request
// body. Body hashing never applies to form-encoded content since such a body
// already takes part in the signature itself.
func (h *Handler) verifyBodyHash(req *http.Request, bodyHash string) error {
	if isFormEncoded(req.Header.Get("Content-Type")) {
		return &ProblemError{
			Code:   ProblemInvalidAuth,
			Advice: "cannot use oauth_body_hash with form-urlencoded content",
		}
	}

	rawBody, err := readBody(req)
	if err != nil {
		return &ProblemError{
			Code:   ProblemInvalidAuth,
			Advice: "unable to read content body for oauth_body_hash verification",
			Cause:  err,
		}
	}

	received, err := base64.StdEncoding.DecodeString(bodyHash)
	if err != nil {
		return &ProblemError{Code: ProblemInvalidAuth, Advice: "oauth_body_hash failed verification", Cause: err}
	}

	expected := sha1.Sum(rawBody) //nolint: gosec // mandated by the OAuth body hash computation

	if !hmac.Equal(received, expected[:]) {
		return &ProblemError{Code: ProblemInvalidAuth, Advice: "oauth_body_hash failed verification"}
	}

	return nil
}
