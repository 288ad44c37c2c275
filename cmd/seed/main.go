// Command main runs the database seeder for Agora.
package main

import (
	"flag"
	"log"

	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numDiscussions := flag.Int("discussions", 60, "Number of discussions to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d discussions, clean=%v\n", *numUsers, *numDiscussions, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if err := s.Run(seed.Options{NumUsers: *numUsers, NumDiscussions: *numDiscussions}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Done. The database is populated with demo forum data.")
}
