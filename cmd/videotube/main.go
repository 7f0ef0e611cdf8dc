package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/videotube/backend/internal/app"
)

func main() {
	// Optional: local development keeps secrets in .env.
	_ = godotenv.Load()

	ctx := context.Background()
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
