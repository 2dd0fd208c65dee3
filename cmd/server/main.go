package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/opticshop/backend/internal/config"
	appMiddleware "github.com/opticshop/backend/internal/middleware"
	"github.com/opticshop/backend/internal/router"
	"github.com/opticshop/backend/internal/services"
	"github.com/opticshop/backend/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}
	cfg := config.Load()
	ctx := context.Background()

	var (
		frames services.FrameService
		refs   services.ReferenceService
		lenses services.LensService
	)
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		client, db, err := storage.ConnectMongo(connectCtx, cfg.MongoURI, cfg.MongoDB)
		cancel()
		if err != nil {
			log.Fatalf("MongoDB connection failed: %v", err)
		}
		defer disconnect(client)

		frames = services.NewMongoFrameService(ctx, db)
		refs = services.NewMongoReferenceService(ctx, db)
		lenses = services.NewMongoLensService(db)
	} else {
		memFrames, err := services.NewMemoryFrameService(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to load frames: %v", err)
		}
		memRefs, err := services.NewMemoryReferenceService(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to load reference data: %v", err)
		}
		memLenses, err := services.NewMemoryLensService(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to load lenses: %v", err)
		}
		frames, refs, lenses = memFrames, memRefs, memLenses
		log.Printf("Using file storage in %s", cfg.DataDir)
	}

	var images services.ImageStore
	if cfg.GCSBucket != "" {
		var screener services.ImageScreener
		if cfg.ImageScreening {
			vs, err := services.NewVisionScreener(ctx, cfg.GoogleCredentialsJSON)
			if err != nil {
				log.Fatalf("Vision client failed: %v", err)
			}
			screener = vs
		}
		gcs, err := services.NewGCSImageStore(ctx, cfg.GCSBucket, cfg.GoogleCredentialsJSON, screener)
		if err != nil {
			log.Fatalf("GCS client failed: %v", err)
		}
		defer gcs.Close()
		images = gcs
	} else {
		local, err := services.NewLocalImageStore(cfg.UploadDir)
		if err != nil {
			log.Fatalf("Failed to prepare upload dir: %v", err)
		}
		images = local
	}

	admins := services.NewAdminService()
	if cfg.AdminPassword != "" {
		if _, err := admins.Seed(cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("Failed to seed admin account: %v", err)
		}
	} else {
		log.Printf("Warning: ADMIN_PASSWORD not set, password login is disabled")
	}

	var verifiers []appMiddleware.TokenVerifier
	if cfg.FirebaseProjectID != "" {
		authClient, err := appMiddleware.NewFirebaseAuthClient(ctx, appMiddleware.FirebaseAuthConfig{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		})
		if err != nil {
			log.Printf("Warning: failed to initialize Firebase Auth client: %v", err)
		} else {
			verifiers = append(verifiers, appMiddleware.NewFirebaseVerifier(authClient))
		}
	}

	uploadDir := ""
	if cfg.GCSBucket == "" {
		uploadDir = cfg.UploadDir
	}

	handler := router.NewRouter(router.Deps{
		Frames:          frames,
		References:      refs,
		Lenses:          lenses,
		Images:          images,
		Admins:          admins,
		Verifiers:       verifiers,
		JWTSecret:       cfg.JWTSecret,
		JWTExpiration:   cfg.JWTExpiration,
		MaxUploadSizeMB: cfg.MaxUploadSizeMB,
		UploadDir:       uploadDir,
		AllowedOrigins:  cfg.AllowedOrigins,
	})

	log.Printf("Catalog API server starting on %s", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Printf("Warning: MongoDB disconnect: %v", err)
	}
}
