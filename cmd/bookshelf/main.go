package main

import (
	"log"

	"github.com/MrSnakeDoc/bookshelf/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ bookshelf failed to start: %v", err)
	}
}
