package main

import (
	"context"
	"log"

	"github.com/MrSnakeDoc/stockfront/internal/app"
)

func main() {
	ctx := context.Background()

	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("❌ stockfront failed to start: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("❌ stockfront failed: %v", err)
	}
}
