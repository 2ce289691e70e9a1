package services

import (
	"context"
	"net/http"
	"os"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"mapkit/models"
	"mapkit/utils/errors"
)

const poiGeoKey = "pois:geo"

// POIStore backs the dev server's /search endpoint: POIs persist in Mongo
// and are mirrored into a Redis geo set for proximity queries.
type POIStore struct {
	collection  *mongo.Collection
	redisClient *redis.Client
	logger      zerolog.Logger
}

func NewPOIStore(collection *mongo.Collection, redisClient *redis.Client) *POIStore {
	return &POIStore{
		collection:  collection,
		redisClient: redisClient,
		logger:      zerolog.New(os.Stderr).With().Timestamp().Str("component", "poistore").Logger(),
	}
}

// SeedFromFile loads a JSON array of POIs into Mongo (if the collection is
// empty) and mirrors the collection into Redis.
func (s *POIStore) SeedFromFile(ctx context.Context, path string) error {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "failed to count POIs", http.StatusInternalServerError)
	}

	if count == 0 {
		file, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "SEED_ERROR", "failed to open POI seed file", http.StatusInternalServerError)
		}
		defer file.Close()

		var pois []models.POI
		if err := json.NewDecoder(file).Decode(&pois); err != nil {
			return errors.Wrap(err, "SEED_ERROR", "failed to decode POI seed file", http.StatusInternalServerError)
		}

		docs := make([]any, 0, len(pois))
		for _, poi := range pois {
			docs = append(docs, poi)
		}
		if _, err := s.collection.InsertMany(ctx, docs); err != nil {
			return errors.Wrap(err, "DB_ERROR", "failed to seed POIs", http.StatusInternalServerError)
		}
		s.logger.Info().Int("count", len(pois)).Msg("seeded POIs into Mongo")
	}

	return s.mirrorToRedis(ctx)
}

// mirrorToRedis rebuilds the Redis geo set and per-POI hashes from Mongo.
func (s *POIStore) mirrorToRedis(ctx context.Context) error {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "failed to load POIs", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	var pois []models.POI
	if err := cursor.All(ctx, &pois); err != nil {
		return errors.Wrap(err, "DB_ERROR", "failed to decode POIs", http.StatusInternalServerError)
	}

	loaded := 0
	for _, poi := range pois {
		if len(poi.Location.Coordinates) < 2 {
			s.logger.Warn().Str("poi", poi.Name).Msg("skipping POI without coordinates")
			continue
		}
		poiJSON, err := json.Marshal(poi)
		if err != nil {
			s.logger.Warn().Err(err).Str("poi", poi.Name).Msg("failed to marshal POI")
			continue
		}
		if err := s.redisClient.HSet(ctx, "poi:"+poi.ID, "data", poiJSON).Err(); err != nil {
			s.logger.Warn().Err(err).Str("poi", poi.Name).Msg("failed to store POI")
			continue
		}
		if err := s.redisClient.GeoAdd(ctx, poiGeoKey, &redis.GeoLocation{
			Name:      poi.ID,
			Longitude: poi.Location.Coordinates[0],
			Latitude:  poi.Location.Coordinates[1],
		}).Err(); err != nil {
			s.logger.Warn().Err(err).Str("poi", poi.Name).Msg("failed to geo-index POI")
			continue
		}
		loaded++
	}
	s.logger.Info().Int("count", loaded).Msg("mirrored POIs into Redis")
	return nil
}

// Nearby returns POIs of the given type within radius meters of the point,
// closest first.
func (s *POIStore) Nearby(ctx context.Context, lat, lon, radius float64, poiType string) ([]models.SearchResult, error) {
	geoResults, err := s.redisClient.GeoRadius(ctx, poiGeoKey, lon, lat, &redis.GeoRadiusQuery{
		Radius:    radius,
		Unit:      "m",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
		Count:     50,
	}).Result()
	if err != nil {
		s.logger.Warn().Err(err).Msg("geo radius query failed")
		return nil, errors.Wrap(err, "SEARCH_FAILED", "proximity query failed", http.StatusBadGateway)
	}

	results := make([]models.SearchResult, 0, len(geoResults))
	for _, geoResult := range geoResults {
		poiJSON, err := s.redisClient.HGet(ctx, "poi:"+geoResult.Name, "data").Result()
		if err != nil {
			s.logger.Warn().Err(err).Str("poi", geoResult.Name).Msg("missing POI data")
			continue
		}
		var poi models.POI
		if err := json.Unmarshal([]byte(poiJSON), &poi); err != nil {
			s.logger.Warn().Err(err).Str("poi", geoResult.Name).Msg("failed to unmarshal POI")
			continue
		}
		if poiType != "" && poiType != GenericPOIType && poi.Type != poiType {
			continue
		}
		results = append(results, models.SearchResult{
			ID:      poi.ID,
			Name:    poi.Name,
			Type:    poi.Type,
			Address: poi.Address,
			Location: models.Coordinates{
				Lat: geoResult.Latitude,
				Lng: geoResult.Longitude,
			},
			Distance: geoResult.Dist,
		})
	}
	return results, nil
}
