// Command main runs the database seeder for Inkwell.
package main

import (
	"context"
	"flag"
	"log"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	maxComments := flag.Int("comments", defaults.MaxComments, "Maximum comments per published post")
	maxLikes := flag.Int("likes", defaults.MaxLikes, "Maximum likes per published post")
	shouldClean := flag.Bool("clean", false, "Delete existing data before seeding")
	fakerSeed := flag.Int64("seed", 0, "Fixed seed for repeatable data (0 = random)")
	flag.Parse()

	log.Printf("Target: %d users, %d posts, clean=%v", *numUsers, *numPosts, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := defaults
	opts.NumUsers = *numUsers
	opts.NumPosts = *numPosts
	opts.MaxComments = *maxComments
	opts.MaxLikes = *maxLikes
	opts.ShouldClean = *shouldClean
	opts.Seed = *fakerSeed

	res, err := seed.Seed(context.Background(), db, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d tags, %d posts, %d comments, %d likes",
		res.Users, res.Tags, res.Posts, res.Comments, res.Likes)
	log.Printf("All seeded users have the password: %s", opts.Password)
}
