/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oauthstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/trustbloc/edge-core/pkg/log"

	"github.com/fortune/Hello-Shindig/pkg/auth"
	"github.com/fortune/Hello-Shindig/pkg/auth/oauth"
)

const (
	consumerStoreName      = "oauthconsumer"
	entryStoreName         = "oauthentry"
	authorizationStoreName = "oauthauthorization"
)

const logModuleName = "oauth-store"

var logger = log.New(logModuleName)

// Store is an oauth.Store backed by an Aries storage provider. Consumers,
// token entries and two-legged authorizations each live in their own named
// store, keyed by their natural keys.
type Store struct {
	consumers      storage.Store
	entries        storage.Store
	authorizations storage.Store
}

// New instantiates a Store on top of the given provider.
func New(provider storage.Provider) (*Store, error) {
	consumers, err := provider.OpenStore(consumerStoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to open consumer store: %w", err)
	}

	entries, err := provider.OpenStore(entryStoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to open entry store: %w", err)
	}

	authorizations, err := provider.OpenStore(authorizationStoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to open authorization store: %w", err)
	}

	return &Store{consumers: consumers, entries: entries, authorizations: authorizations}, nil
}

// PutConsumer stores a consumer record under its key, overwriting any
// previous record with that key.
func (s *Store) PutConsumer(consumer *oauth.Consumer) error {
	if consumer.Key == "" {
		return errors.New("consumer key cannot be blank")
	}

	consumerBytes, err := json.Marshal(consumer)
	if err != nil {
		return fmt.Errorf("failed to marshal consumer %s: %w", consumer.Key, err)
	}

	err = s.consumers.Put(consumer.Key, consumerBytes)
	if err != nil {
		return fmt.Errorf("failed to store consumer %s: %w", consumer.Key, err)
	}

	return nil
}

// GetConsumer returns the consumer registered under consumerKey.
func (s *Store) GetConsumer(consumerKey string) (*oauth.Consumer, error) {
	consumerBytes, err := s.consumers.Get(consumerKey)
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, fmt.Errorf("consumer %s: %w", consumerKey, oauth.ErrNotFound)
		}

		return nil, fmt.Errorf("failed to get consumer %s: %w", consumerKey, err)
	}

	consumer := &oauth.Consumer{}

	err = json.Unmarshal(consumerBytes, consumer)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal consumer %s: %w", consumerKey, err)
	}

	return consumer, nil
}

// PutEntry stores a token entry under its token value, overwriting any
// previous entry with that token.
func (s *Store) PutEntry(entry *oauth.Entry) error {
	if entry.Token == "" {
		return errors.New("entry token cannot be blank")
	}

	entryBytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry %s: %w", entry.Token, err)
	}

	err = s.entries.Put(entry.Token, entryBytes)
	if err != nil {
		return fmt.Errorf("failed to store entry %s: %w", entry.Token, err)
	}

	return nil
}

// GetEntry returns the token entry stored under the given token value.
func (s *Store) GetEntry(token string) (*oauth.Entry, error) {
	entryBytes, err := s.entries.Get(token)
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, fmt.Errorf("token entry %s: %w", token, oauth.ErrNotFound)
		}

		return nil, fmt.Errorf("failed to get entry %s: %w", token, err)
	}

	entry := &oauth.Entry{}

	err = json.Unmarshal(entryBytes, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry %s: %w", token, err)
	}

	return entry, nil
}

// authorization records that a user has authorized a consumer's application
// to make two-legged requests on their behalf.
type authorization struct {
	ConsumerKey string `json:"consumerKey"`
	UserID      string `json:"userId"`
}

// Authorize records that userID has authorized the application registered
// under consumerKey.
func (s *Store) Authorize(consumerKey, userID string) error {
	if consumerKey == "" || userID == "" {
		return errors.New("consumer key and user id cannot be blank")
	}

	authorizationBytes, err := json.Marshal(authorization{ConsumerKey: consumerKey, UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to marshal authorization: %w", err)
	}

	err = s.authorizations.Put(authorizationKey(consumerKey, userID), authorizationBytes)
	if err != nil {
		return fmt.Errorf("failed to store authorization for user %s: %w", userID, err)
	}

	logger.Debugf("authorized user %s for consumer %s", userID, consumerKey)

	return nil
}

// Revoke removes a previously recorded authorization. Revoking an
// authorization that was never granted is not an error.
func (s *Store) Revoke(consumerKey, userID string) error {
	err := s.authorizations.Delete(authorizationKey(consumerKey, userID))
	if err != nil {
		return fmt.Errorf("failed to delete authorization for user %s: %w", userID, err)
	}

	logger.Debugf("revoked authorization of user %s for consumer %s", userID, consumerKey)

	return nil
}

// GetSecurityTokenForConsumerRequest authorizes a verified two-legged request
// made with consumerKey on behalf of userID. The request is refused unless
// userID has an authorization record for the consumer's application.
func (s *Store) GetSecurityTokenForConsumerRequest(consumerKey,
	userID string) (auth.SecurityToken, error) {
	if userID == "" {
		return nil, &oauth.ProblemError{
			Code:   oauth.ProblemPermissionDenied,
			Advice: "no requestor id supplied",
		}
	}

	consumer, err := s.GetConsumer(consumerKey)
	if err != nil {
		return nil, err
	}

	_, err = s.authorizations.Get(authorizationKey(consumerKey, userID))
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, &oauth.ProblemError{
				Code:   oauth.ProblemPermissionDenied,
				Advice: fmt.Sprintf("user %s has not authorized consumer %s", userID, consumerKey),
			}
		}

		return nil, fmt.Errorf("failed to get authorization for user %s: %w", userID, err)
	}

	return auth.NewOAuthToken(userID, "", consumer.AppID, consumer.Domain, consumer.Container,
		time.Time{}, auth.ModeOAuthConsumerRequest), nil
}

func authorizationKey(consumerKey, userID string) string {
	return consumerKey + "_" + userID
}
