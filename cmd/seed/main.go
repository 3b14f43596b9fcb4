// Command seed populates the database with demo content.
package main

import (
	"context"
	"flag"
	"log"

	"vibez/internal/config"
	"vibez/internal/database"
	"vibez/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	users := flag.Int("users", defaults.Users, "Number of distinct author IDs to use")
	posts := flag.Int("posts", defaults.Posts, "Number of posts to create")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	depth := flag.Int("depth", defaults.MaxReplyDepth, "Maximum reply depth")
	likeChance := flag.Float64("like-chance", defaults.LikeChance, "Probability a user likes an item")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	clean := flag.Bool("clean", true, "Clear existing content before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db)
	if *clean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	stats, err := s.Seed(ctx, seed.Options{
		Users:           *users,
		Posts:           *posts,
		CommentsPerPost: *comments,
		MaxReplyDepth:   *depth,
		LikeChance:      *likeChance,
		RandSeed:        *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d posts, %d comments, %d likes", stats.Posts, stats.Comments, stats.Likes)
}
