package services

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"mapkit/models"
	"mapkit/utils/errors"
)

const (
	keyPrefix = "mk_"

	// verifyCacheTTL bounds how long a verification verdict is served
	// from Redis before Mongo is consulted again.
	verifyCacheTTL = 5 * time.Minute
)

// KeyStore provisions and verifies SDK API keys for the dev server. Keys
// have the form mk_<id>.<secret>; only the bcrypt hash of the secret is
// stored, and verification verdicts are cached in Redis.
type KeyStore struct {
	collection  *mongo.Collection
	redisClient *redis.Client
	logger      zerolog.Logger
}

func NewKeyStore(collection *mongo.Collection, redisClient *redis.Client) *KeyStore {
	return &KeyStore{
		collection:  collection,
		redisClient: redisClient,
		logger:      zerolog.New(os.Stderr).With().Timestamp().Str("component", "keystore").Logger(),
	}
}

// Issue creates a new active key and returns its plaintext form. The
// plaintext is only available at issue time.
func (s *KeyStore) Issue(ctx context.Context, label string) (string, models.APIKey, error) {
	id := uuid.New().String()
	secret := uuid.New().String()

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", models.APIKey{}, errors.Wrap(err, "HASH_ERROR", "failed to hash key secret", http.StatusInternalServerError)
	}

	key := models.APIKey{
		ID:         id,
		SecretHash: string(hash),
		Label:      label,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.collection.InsertOne(ctx, key); err != nil {
		return "", models.APIKey{}, errors.Wrap(err, "DB_ERROR", "failed to store API key", http.StatusInternalServerError)
	}

	s.logger.Info().Str("key_id", id).Str("label", label).Msg("issued API key")
	return keyPrefix + id + "." + secret, key, nil
}

// Verify reports whether a plaintext key is known and active. Any parse,
// lookup or comparison failure reads as invalid.
func (s *KeyStore) Verify(ctx context.Context, plaintext string) bool {
	id, secret, ok := splitKey(plaintext)
	if !ok {
		return false
	}

	cacheKey := "apikey:" + id
	if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
		return cached == "1"
	}

	valid := s.verifyAgainstMongo(ctx, id, secret)

	verdict := "0"
	if valid {
		verdict = "1"
	}
	if err := s.redisClient.Set(ctx, cacheKey, verdict, verifyCacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache key verdict")
	}
	return valid
}

// Revoke deactivates a key and drops its cached verdict.
func (s *KeyStore) Revoke(ctx context.Context, id string) error {
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"active": false}})
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "failed to revoke API key", http.StatusInternalServerError)
	}
	if res.MatchedCount == 0 {
		return errors.ErrNotFound
	}
	if err := s.redisClient.Del(ctx, "apikey:"+id).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key_id", id).Msg("failed to drop cached verdict")
	}
	return nil
}

func (s *KeyStore) verifyAgainstMongo(ctx context.Context, id, secret string) bool {
	var key models.APIKey
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&key); err != nil {
		return false
	}
	if !key.Active {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(key.SecretHash), []byte(secret)) == nil
}

func splitKey(plaintext string) (id, secret string, ok bool) {
	if !strings.HasPrefix(plaintext, keyPrefix) {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(plaintext, keyPrefix), ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
