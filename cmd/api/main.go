package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/onerouter/gateway/internal/app/bootstrap"
)

func main() {
	// Missing .env is fine in deployed environments; config comes from
	// real env vars there.
	_ = godotenv.Load()

	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, "configs/default.yaml")
	if err != nil {
		log.Fatalf("bootstrap gateway runtime: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run api: %v", err)
	}
}
