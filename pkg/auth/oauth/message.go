/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oauth

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
)

const (
	oauthAuthScheme        = "OAuth"
	formEncodedContentType = "application/x-www-form-urlencoded"
)

// message is the OAuth view of an HTTP request: the method, the URL it was
// made to and every parameter relevant to signing, merged from the
// Authorization header, the query string and a form-encoded body.
type message struct {
	method     string
	requestURL *url.URL
	params     url.Values
}

// parseMessage builds a message from an incoming request. Reading a
// form-encoded body goes through readBody so the request stays re-readable.
func parseMessage(req *http.Request) (*message, error) {
	params := url.Values{}

	if query, err := url.ParseQuery(req.URL.RawQuery); err == nil {
		mergeValues(params, query)
	}

	mergeValues(params, parseAuthorizationHeader(req.Header.Get("Authorization")))

	if isFormEncoded(req.Header.Get("Content-Type")) {
		rawBody, err := readBody(req)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}

		if form, err := url.ParseQuery(string(rawBody)); err == nil {
			mergeValues(params, form)
		}
	}

	return &message{method: req.Method, requestURL: requestURL(req), params: params}, nil
}

// parameter returns the first value of the named parameter with surrounding
// whitespace trimmed. Signing uses the raw values; trimming is only for
// parameter access.
func (m *message) parameter(name string) string {
	return strings.TrimSpace(m.params.Get(name))
}

// parseAuthorizationHeader extracts the parameters of an "OAuth" scheme
// Authorization header. Values are percent-decoded; realm is skipped since it
// never takes part in signing. Anything else returns no parameters.
func parseAuthorizationHeader(header string) url.Values {
	params := url.Values{}

	trimmed := strings.TrimSpace(header)
	if len(trimmed) < len(oauthAuthScheme) ||
		!strings.EqualFold(trimmed[:len(oauthAuthScheme)], oauthAuthScheme) {
		return params
	}

	rest := trimmed[len(oauthAuthScheme):]
	if rest != "" && rest[0] != ' ' {
		return params
	}

	for _, part := range strings.Split(rest, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 || pair[0] == "" || strings.EqualFold(pair[0], "realm") {
			continue
		}

		// header parameters use strict percent encoding, so "+" stays literal
		key, err := url.PathUnescape(pair[0])
		if err != nil {
			continue
		}

		value, err := url.PathUnescape(strings.Trim(pair[1], `"`))
		if err != nil {
			continue
		}

		params.Add(key, value)
	}

	return params
}

// readBody returns the raw request body, re-attaching it to the request so
// that later consumers, this package included, can read it again.
func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}

	rawBody, err := ioutil.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}

	req.Body = ioutil.NopCloser(bytes.NewReader(rawBody))

	return rawBody, nil
}

func mergeValues(dst, src url.Values) {
	for name, values := range src {
		dst[name] = append(dst[name], values...)
	}
}

func isFormEncoded(contentType string) bool {
	return strings.Contains(contentType, formEncodedContentType)
}

// requestURL reconstructs the absolute URL the request was made to.
func requestURL(req *http.Request) *url.URL {
	u := *req.URL
	u.Host = req.Host

	u.Scheme = "http"
	if req.TLS != nil {
		u.Scheme = "https"
	}

	return &u
}
