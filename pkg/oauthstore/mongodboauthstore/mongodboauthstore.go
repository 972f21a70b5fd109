/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mongodboauthstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/trustbloc/edge-core/pkg/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fortune/Hello-Shindig/pkg/auth"
	"github.com/fortune/Hello-Shindig/pkg/auth/oauth"
)

const (
	databaseName                = "oauth"
	consumerCollectionName      = "consumer"
	entryCollectionName         = "entry"
	authorizationCollectionName = "authorization"

	defaultTimeout  = 10 * time.Second
	maxPingAttempts = 10
)

const logModuleName = "oauth-store-mongodb"

var logger = log.New(logModuleName)

// Option configures a Store.
type Option func(s *Store)

// WithTimeout sets the timeout for MongoDB operations, the startup connection
// check included. Defaults to 10 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.timeout = timeout
	}
}

// WithDBPrefix sets a prefix for the database name so that several
// deployments can share one MongoDB instance.
func WithDBPrefix(prefix string) Option {
	return func(s *Store) {
		s.dbPrefix = prefix
	}
}

// Store is an oauth.Store backed by MongoDB. Consumers, token entries and
// two-legged authorizations each live in their own collection with their
// natural key as the document id.
type Store struct {
	client   *mongo.Client
	timeout  time.Duration
	dbPrefix string
}

// New connects to MongoDB at connString and returns a Store. The connection
// is verified with a ping retried on a constant backoff, so a database that
// is still coming up does not immediately fail construction.
func New(connString string, opts ...Option) (*Store, error) {
	client, err := mongo.NewClient(options.Client().ApplyURI(connString))
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	store := &Store{client: client, timeout: defaultTimeout}

	for _, opt := range opts {
		opt(store)
	}

	connectCtx, connectCancel := store.operationContext()
	defer connectCancel()

	err = client.Connect(connectCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	err = backoff.Retry(func() error {
		pingCtx, pingCancel := store.operationContext()
		defer pingCancel()

		return client.Ping(pingCtx, nil)
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), maxPingAttempts))
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Debugf("connected to MongoDB")

	return store, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close() error {
	ctx, cancel := s.operationContext()
	defer cancel()

	err := s.client.Disconnect(ctx)
	if err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	return nil
}

type consumerRecord struct {
	Key       string `bson:"_id"`
	Secret    string `bson:"secret"`
	Name      string `bson:"name,omitempty"`
	AppID     string `bson:"appId,omitempty"`
	Domain    string `bson:"domain,omitempty"`
	Container string `bson:"container,omitempty"`
}

type entryRecord struct {
	Token       string          `bson:"_id"`
	TokenSecret string          `bson:"tokenSecret"`
	Type        oauth.EntryType `bson:"type"`
	UserID      string          `bson:"userId"`
	AppID       string          `bson:"appId,omitempty"`
	Domain      string          `bson:"domain,omitempty"`
	Container   string          `bson:"container,omitempty"`
	CallbackURL string          `bson:"callbackUrl,omitempty"`
	ExpiresAt   time.Time       `bson:"expiresAt,omitempty"`
}

type authorizationRecord struct {
	ID          string `bson:"_id"`
	ConsumerKey string `bson:"consumerKey"`
	UserID      string `bson:"userId"`
}

// PutConsumer upserts a consumer record under its consumer key.
func (s *Store) PutConsumer(consumer *oauth.Consumer) error {
	if consumer.Key == "" {
		return errors.New("consumer key cannot be blank")
	}

	ctx, cancel := s.operationContext()
	defer cancel()

	record := consumerRecord{
		Key:       consumer.Key,
		Secret:    consumer.Secret,
		Name:      consumer.Name,
		AppID:     consumer.AppID,
		Domain:    consumer.Domain,
		Container: consumer.Container,
	}

	_, err := s.consumers().ReplaceOne(ctx, bson.M{"_id": consumer.Key}, record,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store consumer %s: %w", consumer.Key, err)
	}

	return nil
}

// GetConsumer returns the consumer registered under consumerKey.
func (s *Store) GetConsumer(consumerKey string) (*oauth.Consumer, error) {
	ctx, cancel := s.operationContext()
	defer cancel()

	record := consumerRecord{}

	err := s.consumers().FindOne(ctx, bson.M{"_id": consumerKey}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("consumer %s: %w", consumerKey, oauth.ErrNotFound)
		}

		return nil, fmt.Errorf("failed to get consumer %s: %w", consumerKey, err)
	}

	return &oauth.Consumer{
		Key:       record.Key,
		Secret:    record.Secret,
		Name:      record.Name,
		AppID:     record.AppID,
		Domain:    record.Domain,
		Container: record.Container,
	}, nil
}

// PutEntry upserts a token entry under its token value.
func (s *Store) PutEntry(entry *oauth.Entry) error {
	if entry.Token == "" {
		return errors.New("entry token cannot be blank")
	}

	ctx, cancel := s.operationContext()
	defer cancel()

	record := entryRecord{
		Token:       entry.Token,
		TokenSecret: entry.TokenSecret,
		Type:        entry.Type,
		UserID:      entry.UserID,
		AppID:       entry.AppID,
		Domain:      entry.Domain,
		Container:   entry.Container,
		CallbackURL: entry.CallbackURL,
		ExpiresAt:   entry.ExpiresAt,
	}

	_, err := s.entries().ReplaceOne(ctx, bson.M{"_id": entry.Token}, record,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store entry %s: %w", entry.Token, err)
	}

	return nil
}

// GetEntry returns the token entry stored under the given token value.
func (s *Store) GetEntry(token string) (*oauth.Entry, error) {
	ctx, cancel := s.operationContext()
	defer cancel()

	record := entryRecord{}

	err := s.entries().FindOne(ctx, bson.M{"_id": token}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("token entry %s: %w", token, oauth.ErrNotFound)
		}

		return nil, fmt.Errorf("failed to get entry %s: %w", token, err)
	}

	return &oauth.Entry{
		Token:       record.Token,
		TokenSecret: record.TokenSecret,
		Type:        record.Type,
		UserID:      record.UserID,
		AppID:       record.AppID,
		Domain:      record.Domain,
		Container:   record.Container,
		CallbackURL: record.CallbackURL,
		ExpiresAt:   record.ExpiresAt,
	}, nil
}

// Authorize records that userID has authorized the application registered
// under consumerKey.
func (s *Store) Authorize(consumerKey, userID string) error {
	if consumerKey == "" || userID == "" {
		return errors.New("consumer key and user id cannot be blank")
	}

	ctx, cancel := s.operationContext()
	defer cancel()

	record := authorizationRecord{
		ID:          authorizationID(consumerKey, userID),
		ConsumerKey: consumerKey,
		UserID:      userID,
	}

	_, err := s.authorizations().ReplaceOne(ctx, bson.M{"_id": record.ID}, record,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store authorization for user %s: %w", userID, err)
	}

	logger.Debugf("authorized user %s for consumer %s", userID, consumerKey)

	return nil
}

// Revoke removes a previously recorded authorization. Revoking an
// authorization that was never granted is not an error.
func (s *Store) Revoke(consumerKey, userID string) error {
	ctx, cancel := s.operationContext()
	defer cancel()

	_, err := s.authorizations().DeleteOne(ctx, bson.M{"_id": authorizationID(consumerKey, userID)})
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

	ctx, cancel := s.operationContext()
	defer cancel()

	record := authorizationRecord{}

	err = s.authorizations().FindOne(ctx,
		bson.M{"_id": authorizationID(consumerKey, userID)}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
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

func (s *Store) consumers() *mongo.Collection {
	return s.collection(consumerCollectionName)
}

func (s *Store) entries() *mongo.Collection {
	return s.collection(entryCollectionName)
}

func (s *Store) authorizations() *mongo.Collection {
	return s.collection(authorizationCollectionName)
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.client.Database(s.dbPrefix + databaseName).Collection(name)
}

func (s *Store) operationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func authorizationID(consumerKey, userID string) string {
	return consumerKey + "_" + userID
}
