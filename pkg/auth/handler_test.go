/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fortune/Hello-Shindig/pkg/containerconfig"
)

func TestURLParameterHandler(t *testing.T) {
	keyFilePath := writeTestKeyFile(t)

	codec, err := NewBlobTokenCodec(map[string]containerconfig.Container{
		"sn": {SecurityTokenKeyFile: keyFilePath, SignedFetchDomain: "example.com"},
	})
	require.NoError(t, err)

	handler := NewURLParameterHandler(codec)

	t.Run("name and challenge", func(t *testing.T) {
		require.Equal(t, "UrlParameter", handler.Name())
		require.Equal(t, `Token realm="example.com"`, handler.WWWAuthenticateHeader("example.com"))
	})
	t.Run("Success: token in the query string", func(t *testing.T) {
		wireForm := mintTestToken(t, codec, keyFilePath)

		req := httptest.NewRequest(http.MethodGet,
			"http://www.example.com/gadgets/ifr?st="+url.QueryEscape(wireForm), nil)

		token, err := handler.SecurityTokenFromRequest(req)
		require.NoError(t, err)
		require.Equal(t, "john.doe", token.OwnerID())
		require.Equal(t, ModeSecurityTokenURLParameter, token.AuthenticationMode())

		activeURL, err := token.ActiveURL()
		require.NoError(t, err)
		require.Equal(t, "http://www.example.com/gadgets/ifr", activeURL)
	})
	t.Run("Success: token in a form body", func(t *testing.T) {
		wireForm := mintTestToken(t, codec, keyFilePath)

		form := url.Values{}
		form.Set("st", wireForm)

		req := httptest.NewRequest(http.MethodPost, "http://www.example.com/social/rest",
			strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		token, err := handler.SecurityTokenFromRequest(req)
		require.NoError(t, err)
		require.Equal(t, "john.doe", token.OwnerID())
	})
	t.Run("Success: request without a token parameter is passed over", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://www.example.com/gadgets/ifr", nil)

		token, err := handler.SecurityTokenFromRequest(req)
		require.NoError(t, err)
		require.Nil(t, token)
	})
	t.Run("Failure: malformed token parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://www.example.com/gadgets/ifr?st=junk", nil)

		token, err := handler.SecurityTokenFromRequest(req)
		require.ErrorIs(t, err, ErrTokenMalformed)
		require.Contains(t, err.Error(), "malformed security token")
		require.Nil(t, token)
	})
}

func TestAnonymousHandler(t *testing.T) {
	t.Run("Success: unauthenticated access allowed", func(t *testing.T) {
		handler := NewAnonymousHandler(true)
		require.Equal(t, "anonymous", handler.Name())
		require.Empty(t, handler.WWWAuthenticateHeader("example.com"))

		req := httptest.NewRequest(http.MethodGet, "http://www.example.com/gadgets/ifr", nil)

		token, err := handler.SecurityTokenFromRequest(req)
		require.NoError(t, err)
		require.True(t, token.IsAnonymous())
	})
	t.Run("Success: unauthenticated access disallowed is passed over", func(t *testing.T) {
		handler := NewAnonymousHandler(false)

		req := httptest.NewRequest(http.MethodGet, "http://www.example.com/gadgets/ifr", nil)

		token, err := handler.SecurityTokenFromRequest(req)
		require.NoError(t, err)
		require.Nil(t, token)
	})
}
