package main

import (
	"log"

	approuters "Massenger/internal/app_routers"
	"Massenger/internal/configuration"
)

func main() {
	container, err := configuration.BuildContainer("config")
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	// Ensure cleanup on shutdown
	defer container.Close()

	// Setup routers
	approuters.StartServer(container)
}
