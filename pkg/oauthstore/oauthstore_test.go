/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oauthstore

import (
	"errors"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mock"
	"github.com/stretchr/testify/require"

	"github.com/fortune/Hello-Shindig/pkg/auth"
	"github.com/fortune/Hello-Shindig/pkg/auth/oauth"
)

const (
	testConsumerKey = "org.example.gadget"
	testUserID      = "john.doe@example.com"
	testToken       = "access-token-value"
)

func TestNew(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store, err := New(mem.NewProvider())
		require.NoError(t, err)
		require.NotNil(t, store)
		require.Implements(t, (*oauth.Store)(nil), store)
	})

	t.Run("Failure: cannot open store", func(t *testing.T) {
		store, err := New(&mock.Provider{ErrOpenStore: errors.New("open store failure")})
		require.EqualError(t, err, "failed to open consumer store: open store failure")
		require.Nil(t, store)
	})
}

func TestPutAndGetConsumer(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.PutConsumer(testConsumer()))

		consumer, err := store.GetConsumer(testConsumerKey)
		require.NoError(t, err)
		require.Equal(t, testConsumer(), consumer)
	})

	t.Run("Failure: blank consumer key", func(t *testing.T) {
		store := newTestStore(t)

		require.EqualError(t, store.PutConsumer(&oauth.Consumer{}), "consumer key cannot be blank")
	})

	t.Run("Failure: unknown consumer key", func(t *testing.T) {
		store := newTestStore(t)

		consumer, err := store.GetConsumer("org.example.unknown")
		require.ErrorIs(t, err, oauth.ErrNotFound)
		require.Nil(t, consumer)
	})

	t.Run("Failure: consumer store get error", func(t *testing.T) {
		store := newTestStore(t)
		store.consumers = &mock.Store{ErrGet: errors.New("get failure")}

		consumer, err := store.GetConsumer(testConsumerKey)
		require.EqualError(t, err, "failed to get consumer "+testConsumerKey+": get failure")
		require.Nil(t, consumer)
	})

	t.Run("Failure: stored consumer record is not JSON", func(t *testing.T) {
		store := newTestStore(t)
		store.consumers = &mock.Store{GetReturn: []byte("not JSON")}

		consumer, err := store.GetConsumer(testConsumerKey)
		require.Contains(t, err.Error(), "failed to unmarshal consumer "+testConsumerKey)
		require.Nil(t, consumer)
	})

	t.Run("Failure: consumer store put error", func(t *testing.T) {
		store := newTestStore(t)
		store.consumers = &mock.Store{ErrPut: errors.New("put failure")}

		require.EqualError(t, store.PutConsumer(testConsumer()),
			"failed to store consumer "+testConsumerKey+": put failure")
	})
}

func TestPutAndGetEntry(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store := newTestStore(t)

		stored := testEntry()

		require.NoError(t, store.PutEntry(stored))

		entry, err := store.GetEntry(testToken)
		require.NoError(t, err)
		require.Equal(t, stored, entry)
		require.False(t, entry.IsExpired())
	})

	t.Run("Failure: blank token", func(t *testing.T) {
		store := newTestStore(t)

		require.EqualError(t, store.PutEntry(&oauth.Entry{}), "entry token cannot be blank")
	})

	t.Run("Failure: unknown token", func(t *testing.T) {
		store := newTestStore(t)

		entry, err := store.GetEntry("unknown-token")
		require.ErrorIs(t, err, oauth.ErrNotFound)
		require.Nil(t, entry)
	})

	t.Run("Failure: stored entry record is not JSON", func(t *testing.T) {
		store := newTestStore(t)
		store.entries = &mock.Store{GetReturn: []byte("not JSON")}

		entry, err := store.GetEntry(testToken)
		require.Contains(t, err.Error(), "failed to unmarshal entry "+testToken)
		require.Nil(t, entry)
	})
}

func TestAuthorizeAndRevoke(t *testing.T) {
	t.Run("Success: authorization gates two-legged tokens", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.PutConsumer(testConsumer()))

		_, err := store.GetSecurityTokenForConsumerRequest(testConsumerKey, testUserID)
		requireProblem(t, err, oauth.ProblemPermissionDenied)

		require.NoError(t, store.Authorize(testConsumerKey, testUserID))

		token, err := store.GetSecurityTokenForConsumerRequest(testConsumerKey, testUserID)
		require.NoError(t, err)
		require.NotNil(t, token)

		require.NoError(t, store.Revoke(testConsumerKey, testUserID))

		_, err = store.GetSecurityTokenForConsumerRequest(testConsumerKey, testUserID)
		requireProblem(t, err, oauth.ProblemPermissionDenied)
	})

	t.Run("Success: revoking an authorization that was never granted", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.Revoke(testConsumerKey, testUserID))
	})

	t.Run("Failure: blank arguments", func(t *testing.T) {
		store := newTestStore(t)

		require.EqualError(t, store.Authorize("", testUserID),
			"consumer key and user id cannot be blank")
		require.EqualError(t, store.Authorize(testConsumerKey, ""),
			"consumer key and user id cannot be blank")
	})

	t.Run("Failure: authorization store put error", func(t *testing.T) {
		store := newTestStore(t)
		store.authorizations = &mock.Store{ErrPut: errors.New("put failure")}

		require.EqualError(t, store.Authorize(testConsumerKey, testUserID),
			"failed to store authorization for user "+testUserID+": put failure")
	})
}

func TestGetSecurityTokenForConsumerRequest(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.PutConsumer(testConsumer()))
		require.NoError(t, store.Authorize(testConsumerKey, testUserID))

		token, err := store.GetSecurityTokenForConsumerRequest(testConsumerKey, testUserID)
		require.NoError(t, err)
		require.Equal(t, testUserID, token.OwnerID())
		require.Equal(t, testUserID, token.ViewerID())
		require.Equal(t, "http://www.example.com/gadget.xml", token.AppID())
		require.Empty(t, token.AppURL())
		require.Equal(t, "example.com", token.Domain())
		require.Equal(t, "default", token.Container())
		require.True(t, token.ExpiresAt().IsZero())
		require.False(t, token.IsExpired())
		require.Equal(t, auth.ModeOAuthConsumerRequest, token.AuthenticationMode())
		require.False(t, token.IsAnonymous())
	})

	t.Run("Failure: no requestor id", func(t *testing.T) {
		store := newTestStore(t)

		token, err := store.GetSecurityTokenForConsumerRequest(testConsumerKey, "")
		require.Nil(t, token)
		requireProblem(t, err, oauth.ProblemPermissionDenied)
		require.Contains(t, err.Error(), "no requestor id supplied")
	})

	t.Run("Failure: unknown consumer", func(t *testing.T) {
		store := newTestStore(t)

		token, err := store.GetSecurityTokenForConsumerRequest("org.example.unknown", testUserID)
		require.Nil(t, token)
		require.ErrorIs(t, err, oauth.ErrNotFound)
	})

	t.Run("Failure: user has not authorized the consumer", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.PutConsumer(testConsumer()))

		token, err := store.GetSecurityTokenForConsumerRequest(testConsumerKey, testUserID)
		require.Nil(t, token)
		requireProblem(t, err, oauth.ProblemPermissionDenied)
		require.Contains(t, err.Error(), "has not authorized consumer")
	})

	t.Run("Failure: authorization store get error", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.PutConsumer(testConsumer()))

		store.authorizations = &mock.Store{ErrGet: errors.New("get failure")}

		token, err := store.GetSecurityTokenForConsumerRequest(testConsumerKey, testUserID)
		require.Nil(t, token)
		require.EqualError(t, err, "failed to get authorization for user "+testUserID+": get failure")
	})
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(mem.NewProvider())
	require.NoError(t, err)

	return store
}

func testConsumer() *oauth.Consumer {
	return &oauth.Consumer{
		Key:       testConsumerKey,
		Secret:    "consumer-secret",
		Name:      "Example Gadget",
		AppID:     "http://www.example.com/gadget.xml",
		Domain:    "example.com",
		Container: "default",
	}
}

func testEntry() *oauth.Entry {
	return &oauth.Entry{
		Token:       testToken,
		TokenSecret: "token-secret",
		Type:        oauth.TypeAccess,
		UserID:      "jane.doe",
		AppID:       "http://www.example.com/gadget.xml",
		Domain:      "example.com",
		Container:   "default",
		CallbackURL: "http://www.example.com/callback",
		ExpiresAt:   time.Now().UTC().Truncate(time.Second).Add(time.Hour),
	}
}

func requireProblem(t *testing.T, err error, code string) {
	t.Helper()

	problem := &oauth.ProblemError{}
	require.True(t, errors.As(err, &problem))
	require.Equal(t, code, problem.Code)
}
