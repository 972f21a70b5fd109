/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package auth

import (
	"fmt"
	"net/http"
)

// securityTokenURLParam is the request parameter the wire-format token
// travels in.
const securityTokenURLParam = "st"

// Handler attempts to authenticate incoming requests using one mechanism.
// Handlers are meant to be tried in order: a (nil, nil) return means the
// request carries nothing this handler understands and the next one should
// get a chance.
type Handler interface {
	// Name identifies the mechanism.
	Name() string
	// SecurityTokenFromRequest returns the token asserted by the request, a
	// (nil, nil) pair when the request is not for this mechanism, or an error
	// when the request asserted credentials that failed to verify.
	SecurityTokenFromRequest(req *http.Request) (SecurityToken, error)
	// WWWAuthenticateHeader returns the challenge to send with a 401, or ""
	// when the mechanism has none.
	WWWAuthenticateHeader(realm string) string
}

// URLParameterHandler authenticates requests carrying a wire-format security
// token in the "st" parameter (query or form).
type URLParameterHandler struct {
	codec SecurityTokenCodec
}

// NewURLParameterHandler instantiates a URLParameterHandler around the given codec.
func NewURLParameterHandler(codec SecurityTokenCodec) *URLParameterHandler {
	return &URLParameterHandler{codec: codec}
}

// Name returns "UrlParameter".
func (h *URLParameterHandler) Name() string {
	return "UrlParameter"
}

// SecurityTokenFromRequest decodes the token in the "st" parameter.
// Requests without one are passed over with (nil, nil).
func (h *URLParameterHandler) SecurityTokenFromRequest(req *http.Request) (SecurityToken, error) {
	token := req.FormValue(securityTokenURLParam)
	if token == "" {
		return nil, nil
	}

	securityToken, err := h.codec.CreateToken(map[string]string{
		SecurityTokenParam: token,
		ActiveURLParam:     activeURL(req),
	})
	if err != nil {
		return nil, fmt.Errorf("malformed security token: %w", err)
	}

	return securityToken, nil
}

// WWWAuthenticateHeader returns a Token challenge for the given realm.
func (h *URLParameterHandler) WWWAuthenticateHeader(realm string) string {
	return fmt.Sprintf("Token realm=%q", realm)
}

// AnonymousHandler is the terminal element of a handler chain. When
// unauthenticated access is allowed it accepts any request as anonymous.
type AnonymousHandler struct {
	allowUnauthenticated bool
}

// NewAnonymousHandler instantiates an AnonymousHandler.
func NewAnonymousHandler(allowUnauthenticated bool) *AnonymousHandler {
	return &AnonymousHandler{allowUnauthenticated: allowUnauthenticated}
}

// Name returns "anonymous".
func (h *AnonymousHandler) Name() string {
	return "anonymous"
}

// SecurityTokenFromRequest returns an anonymous token when unauthenticated
// access is allowed, and (nil, nil) otherwise.
func (h *AnonymousHandler) SecurityTokenFromRequest(req *http.Request) (SecurityToken, error) {
	if h.allowUnauthenticated {
		return NewAnonymousToken(), nil
	}

	return nil, nil
}

// WWWAuthenticateHeader returns "". Anonymous access has no challenge.
func (h *AnonymousHandler) WWWAuthenticateHeader(realm string) string {
	return ""
}

// activeURL reconstructs the URL the request was made to, without the query
// string, the way it is attached to decoded tokens.
func activeURL(req *http.Request) string {
	u := *req.URL
	u.Host = req.Host
	u.RawQuery = ""
	u.Fragment = ""

	u.Scheme = "http"
	if req.TLS != nil {
		u.Scheme = "https"
	}

	return u.String()
}
