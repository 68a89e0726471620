package main

import (
	"context"
	"fmt"
	"time"

	"monitor-observer/src/logger"
	"monitor-observer/src/realtime"
	"monitor-observer/src/views"
)

// -----------------------------------------------------------------------------

// runScenario drives the client through the dashboard and detail flows and
// verifies that data arrives end to end.
func runScenario(ctx context.Context, client *TestClient, sensorIDs []int, appLogger *logger.Logger) error {
	// 1. Mount the dashboard: fetch sensors, subscribe, connect.
	dashboard := views.NewDashboard(client.Manager, client.Subscriber, client.API, logger.NewLogger("Dashboard"))
	if err := dashboard.Mount(ctx); err != nil {
		return fmt.Errorf("dashboard mount: %w", err)
	}
	defer dashboard.Unmount()

	// 2. Connection must come up.
	if err := waitFor(ctx, func() bool {
		return client.Manager.State() == realtime.StateOpen
	}); err != nil {
		return fmt.Errorf("stream never opened (state=%s)", client.Manager.State())
	}
	appLogger.Info("Stream open")

	// 3. Every seeded sensor must leave the pending state once the simulator
	// emits its first reading.
	if err := waitFor(ctx, func() bool {
		for _, id := range sensorIDs {
			entry := dashboard.Live.Get(id)
			if entry == nil || entry["status"] == views.StatusPending {
				return false
			}
		}
		return true
	}); err != nil {
		return fmt.Errorf("live status never resolved: %v", dashboard.Live.Snapshot())
	}
	appLogger.Info("Live status resolved for %d sensors", len(sensorIDs))

	// 4. Detail view: history fetch plus live appends for the first sensor.
	detail, err := views.NewDetail(client.Manager, client.Subscriber, client.API, logger.NewLogger("Detail"), sensorIDs[0], "1h")
	if err != nil {
		return fmt.Errorf("detail init: %w", err)
	}
	if err := detail.Mount(ctx); err != nil {
		return fmt.Errorf("detail mount: %w", err)
	}
	defer detail.Unmount()

	before := detail.Series.Len()
	if err := waitFor(ctx, func() bool {
		return detail.Series.Len() > before
	}); err != nil {
		return fmt.Errorf("history series never grew past %d points", before)
	}
	appLogger.Info("History series grew to %d points", detail.Series.Len())

	// 5. Range switch keeps the series consistent.
	if err := detail.SetTimeRange(ctx, "12h"); err != nil {
		return fmt.Errorf("set time range: %w", err)
	}
	points := detail.Series.Points()
	for i := 1; i < len(points); i++ {
		if points[i].Time.Before(points[i-1].Time) {
			return fmt.Errorf("history points out of order at index %d", i)
		}
	}

	// 6. Direct REST check of the history endpoint.
	now := time.Now().UTC()
	readings, err := client.API.SensorHistory(ctx, sensorIDs[0], now.Add(-time.Hour), now)
	if err != nil {
		return fmt.Errorf("history_range: %w", err)
	}
	if len(readings) == 0 {
		return fmt.Errorf("history_range returned no readings")
	}
	appLogger.Info("REST history returned %d readings", len(readings))

	return nil
}

// -----------------------------------------------------------------------------

// waitFor polls cond every 100ms until it holds or the context expires.
func waitFor(ctx context.Context, cond func() bool) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if cond() {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
