package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"reel-feed/pkg/config"
	"reel-feed/pkg/database"
	"reel-feed/pkg/docstore"
	"reel-feed/pkg/logger"
	"reel-feed/pkg/s3"
	feedApp "reel-feed/services/feed/internal/app"
)

func main() {
	var (
		profiles   bool
		checkMedia bool
	)
	flag.BoolVar(&profiles, "profiles", false, "Also upsert the demo accounts into the Postgres profiles table")
	flag.BoolVar(&checkMedia, "check-media", false, "Warn about demo video locators missing from the bucket")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := context.Background()

	if cfg.StoreBackend == config.StoreBackendMemory {
		log.Error("STORE_BACKEND=memory has nothing to seed; set SEED_DEMO=true on the service instead")
		return
	}

	store, err := docstore.NewFirestoreStore(ctx, cfg.FirestoreProjectID, cfg.FirebaseCredentialsFile, log)
	if err != nil {
		log.Error("Failed to connect to Firestore: %v", err)
		panic(err)
	}
	defer store.Close()

	if err := feedApp.SeedDemo(ctx, store, cfg.S3BucketName, log); err != nil {
		log.Error("Failed to seed store: %v", err)
		panic(err)
	}

	if profiles {
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Error("Failed to connect to database: %v", err)
			panic(err)
		}
		if err := feedApp.SeedDemoProfiles(ctx, db, log); err != nil {
			log.Error("Failed to seed profiles: %v", err)
			panic(err)
		}
	}

	if checkMedia {
		s3Client, err := s3.NewClient(cfg)
		if err != nil {
			log.Error("Failed to create S3 client: %v", err)
			panic(err)
		}
		for _, reel := range feedApp.DemoReels(cfg.S3BucketName) {
			if !strings.HasPrefix(reel.VideoURL, "s3://") {
				continue
			}
			ok, err := s3Client.Exists(reel.VideoURL)
			switch {
			case err != nil:
				log.Warn("Could not check %s: %v", reel.VideoURL, err)
			case !ok:
				log.Warn("Reel %s points at missing object %s", reel.ID, reel.VideoURL)
			}
		}
	}

	log.Info("Store seeded successfully!")
}
