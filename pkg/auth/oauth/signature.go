/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oauth

import (
	"crypto/hmac"
	"crypto/sha1" //nolint: gosec // mandated by the OAuth 1.0a signature methods
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

const (
	signatureMethodHMACSHA1  = "HMAC-SHA1"
	signatureMethodPlaintext = "PLAINTEXT"
)

// validateSignature checks the oauth_signature of msg against the consumer
// secret and token secret. The signature method is taken from the message
// itself; unsupported methods are rejected.
func validateSignature(msg *message, consumer *Consumer, tokenSecret string) error {
	signature := msg.parameter(oauthSignatureParam)
	if signature == "" {
		return fmt.Errorf("request has no %s parameter", oauthSignatureParam)
	}

	method := strings.ToUpper(msg.parameter(oauthSignatureMethodParam))

	switch method {
	case signatureMethodHMACSHA1:
		return validateHMACSHA1(msg, signature, consumer.Secret, tokenSecret)
	case signatureMethodPlaintext:
		return validatePlaintext(signature, consumer.Secret, tokenSecret)
	case "":
		return fmt.Errorf("request has no %s parameter", oauthSignatureMethodParam)
	default:
		return fmt.Errorf("unsupported signature method %s", method)
	}
}

func validateHMACSHA1(msg *message, signature, consumerSecret, tokenSecret string) error {
	mac := hmac.New(sha1.New, []byte(signingKey(consumerSecret, tokenSecret)))
	_, _ = mac.Write([]byte(signatureBaseString(msg))) //nolint: errcheck // HMAC writes never fail

	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%s signature does not match", signatureMethodHMACSHA1)
	}

	return nil
}

func validatePlaintext(signature, consumerSecret, tokenSecret string) error {
	if !hmac.Equal([]byte(signingKey(consumerSecret, tokenSecret)), []byte(signature)) {
		return fmt.Errorf("%s signature does not match", signatureMethodPlaintext)
	}

	return nil
}

func signingKey(consumerSecret, tokenSecret string) string {
	return percentEncode(consumerSecret) + "&" + percentEncode(tokenSecret)
}

// signatureBaseString builds the RFC 5849 section 3.4.1 base string for msg:
// the uppercased method, the normalized URL and the normalized parameters,
// each percent encoded and joined with "&".
func signatureBaseString(msg *message) string {
	return strings.ToUpper(msg.method) + "&" +
		percentEncode(normalizeURL(msg.requestURL)) + "&" +
		percentEncode(normalizeParameters(msg.params))
}

// normalizeURL lowercases the scheme and host, drops the default port for the
// scheme and strips the query and fragment. An empty path becomes "/".
func normalizeURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)

	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	return scheme + "://" + host + path
}

// normalizeParameters encodes every parameter except oauth_signature, sorts
// the resulting pairs by encoded name and then encoded value, and joins them
// with "=" and "&" per RFC 5849 section 3.4.1.3.2.
func normalizeParameters(params url.Values) string {
	type pair struct {
		key, value string
	}

	pairs := make([]pair, 0, len(params))

	for name, values := range params {
		if name == oauthSignatureParam {
			continue
		}

		for _, value := range values {
			pairs = append(pairs, pair{key: percentEncode(name), value: percentEncode(value)})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}

		return pairs[i].value < pairs[j].value
	})

	encoded := make([]string, len(pairs))
	for i, p := range pairs {
		encoded[i] = p.key + "=" + p.value
	}

	return strings.Join(encoded, "&")
}

// percentEncode applies the RFC 3986 section 2.1 encoding required by OAuth:
// unreserved characters stay as they are and every other byte becomes %XX.
func percentEncode(s string) string {
	var encoded strings.Builder

	for i := 0; i < len(s); i++ {
		b := s[i]

		if isUnreserved(b) {
			encoded.WriteByte(b)
			continue
		}

		encoded.WriteString(fmt.Sprintf("%%%02X", b))
	}

	return encoded.String()
}

func isUnreserved(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9' ||
		b == '-' || b == '.' || b == '_' || b == '~'
}
