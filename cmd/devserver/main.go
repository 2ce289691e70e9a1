// The dev server hosts the demo widget page and supplies local verify and
// search endpoints so the SDK can run end to end without a production
// backend.
package main

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mapkit/handlers"
	"mapkit/middleware"
	"mapkit/services"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "devserver").Logger()

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, using environment as-is")
	}

	mongoURI := mustEnv(logger, "MONGODB_URI")
	redisAddr := mustEnv(logger, "REDIS_ADDR")
	jwtSecret := mustEnv(logger, "JWT_SECRET")
	adminPassword := mustEnv(logger, "ADMIN_PASSWORD")

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_DB value")
		}
		redisDB = parsed
	}

	ctx := context.Background()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("MongoDB connection failed")
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping MongoDB")
	}
	db := mongoClient.Database("mapkit")

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr, DB: redisDB})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	keyStore := services.NewKeyStore(db.Collection("api_keys"), redisClient)
	poiStore := services.NewPOIStore(db.Collection("pois"), redisClient)

	if seedFile := os.Getenv("POI_SEED_FILE"); seedFile != "" {
		if err := poiStore.SeedFromFile(ctx, seedFile); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed POIs")
		}
	}

	// A demo key for the widget page. Issued fresh on every start; real
	// keys come from the admin routes.
	demoKey, _, err := keyStore.Issue(ctx, "devserver-demo")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to issue demo key")
	}

	keyHandler, err := handlers.NewKeyHandler(keyStore, jwtSecret, adminPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build key handler")
	}
	searchHandler := handlers.NewSearchHandler(poiStore)
	placeHandler := handlers.NewPlaceHandler(services.NewPlaceService(nil))
	widgetHandler := handlers.NewWidgetHandler(demoKey)

	r := mux.NewRouter()
	r.Use(middleware.ErrorMiddleware())
	r.Use(middleware.CORSMiddleware([]string{"*"}))

	r.HandleFunc("/verify", keyHandler.VerifyKey).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/place", placeHandler.PlaceDetails).Methods("GET", "OPTIONS")
	r.HandleFunc("/", widgetHandler.WidgetPage).Methods("GET")

	searchRouter := r.PathPrefix("/search").Subrouter()
	searchRouter.Use(middleware.APIKeyMiddleware(keyStore))
	searchRouter.HandleFunc("", searchHandler.Search).Methods("GET", "OPTIONS")

	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.HandleFunc("/login", keyHandler.AdminLogin).Methods("POST", "OPTIONS")
	protected := adminRouter.PathPrefix("/keys").Subrouter()
	protected.Use(middleware.JWTMiddleware(jwtSecret))
	protected.HandleFunc("", keyHandler.IssueKey).Methods("POST", "OPTIONS")
	protected.HandleFunc("/revoke", keyHandler.RevokeKey).Methods("POST", "OPTIONS")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info().Str("port", port).Msg("dev server starting")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func mustEnv(logger zerolog.Logger, name string) string {
	v := os.Getenv(name)
	if v == "" {
		logger.Fatal().Str("var", name).Msg("environment variable is not set")
	}
	return v
}
