package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"monitor-observer/src/logger"
)

// End-to-end harness: starts a dev server with an in-memory database and two
// simulated sensors, points a full client stack at it, and checks that live
// status and history flow through.

func main() {
	appLogger := logger.NewDebugLogger("E2E")

	conf := buildTestConfig()

	// 1. Server side
	db, err := setupDatabase(conf, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	defer db.Close()

	sensorIDs, err := seedTopology(db)
	if err != nil {
		appLogger.Critical("Failed to seed: %v", err)
	}

	srv, err := startServer(conf, db, appLogger)
	if err != nil {
		appLogger.Critical("Failed to start server: %v", err)
	}
	defer srv.Stop()

	// 2. Client side
	client := setupClient(conf, appLogger)
	defer client.Manager.Shutdown()

	// 3. Run the scenario
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := runScenario(ctx, client, sensorIDs, appLogger); err != nil {
		fmt.Printf("FAIL: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("PASS")
}
