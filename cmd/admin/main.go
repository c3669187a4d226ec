// Package main provides admin management utilities for Inkwell.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"inkwell/internal/bootstrap"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <id|email|username>   - Grant the ADMIN role")
	fmt.Println("  go run ./cmd/admin demote <id|email|username>    - Return the user to USER")
	fmt.Println("  go run ./cmd/admin list-admins                   - List all admins")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	cache.InitRedis(cfg.RedisURL)

	ctx := context.Background()
	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
		}
		role := models.RoleAdmin
		if command == "demote" {
			role = models.RoleUser
		}
		user, changed, err := bootstrap.SetRole(ctx, db, os.Args[2], role)
		if errors.Is(err, bootstrap.ErrUserNotFound) {
			fmt.Printf("User %s not found\n", os.Args[2])
			os.Exit(1)
		}
		if err != nil {
			log.Fatalf("Failed to %s user: %v", command, err)
		}
		if !changed {
			fmt.Printf("User %s (ID: %d) already has role %s\n", user.Username, user.ID, role)
			return
		}
		fmt.Printf("Set role of %s (ID: %d) to %s\n", user.Username, user.ID, role)

	case "list-admins":
		admins, err := bootstrap.ListByRole(ctx, db, models.RoleAdmin)
		if err != nil {
			log.Fatalf("Failed to fetch admins: %v", err)
		}
		if len(admins) == 0 {
			fmt.Println("No admins found in the system")
			return
		}
		for _, a := range admins {
			fmt.Printf("  %d\t%s\t%s\n", a.ID, a.Username, a.Email)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}
