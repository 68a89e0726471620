package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"monitor-observer/src/config"
	"monitor-observer/src/logger"
	"monitor-observer/src/models"
	"monitor-observer/src/realtime"
	"monitor-observer/src/rest"
	"monitor-observer/src/session"
	"monitor-observer/src/views"
)

// -----------------------------------------------------------------------------

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	sensorID := flag.Int("sensor", 0, "also follow one sensor's history (detail view)")
	timeRange := flag.String("range", "", "time range for the detail view (1h/12h/24h/7d/30d)")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := newLogger(conf, conf.Name)

	// 4. Session: token acquisition is an external concern, so the console
	// app restores from the environment. Views mounted before the restore
	// completes wait it out through the bounded token wait.
	sess := session.NewManager(newLogger(conf, "Session"))
	sess.BeginRestore()

	// 5. Components
	api := rest.NewAPI(rest.NewClient(conf.MConfig, sess, newLogger(conf, "RestClient")))
	manager := realtime.NewManager(conf.MConfig, sess, newLogger(conf, "Realtime"), nil)
	subscriber := realtime.NewSubscriber(manager, newLogger(conf, "Subscriber"))

	// 6. Complete the restore; a signed_in transition triggers the connect.
	token := os.Getenv("MONITOR_OBSERVER_TOKEN")
	if token == "" {
		appLogger.Warning("MONITOR_OBSERVER_TOKEN not set, starting unauthenticated")
		sess.CompleteRestore(nil)
	} else {
		sess.CompleteRestore(&models.MSession{AccessToken: token})
	}

	// 7. Mount the dashboard view
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dashboard := views.NewDashboard(manager, subscriber, api, newLogger(conf, "Dashboard"))
	if err := dashboard.Mount(ctx); err != nil {
		appLogger.Error("Dashboard mount failed: %v", err)
	}

	// 8. Optionally mount a detail view
	var detail *views.Detail
	if *sensorID > 0 {
		tr := *timeRange
		if tr == "" {
			tr = conf.Views.DefaultTimeRange
		}
		detail, err = views.NewDetail(manager, subscriber, api, newLogger(conf, "Detail"), *sensorID, tr)
		if err != nil {
			appLogger.Critical("Invalid detail view: %v", err)
		}
		if err := detail.Mount(ctx); err != nil {
			appLogger.Error("Detail mount failed: %v", err)
		}
	}

	// 9. Render loop + signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	render := time.NewTicker(5 * time.Second)
	defer render.Stop()

	for {
		select {
		case <-render.C:
			printDashboard(dashboard)
			if detail != nil {
				printDetail(detail, conf.Views.MaxChartPoints)
			}

		case <-quit:
			appLogger.Info("Shutting down...")
			if detail != nil {
				detail.Unmount()
			}
			dashboard.Unmount()
			manager.Shutdown()
			return
		}
	}
}

// -----------------------------------------------------------------------------

func newLogger(conf *config.Config, name string) *logger.Logger {
	if strings.EqualFold(conf.LogLevel, "debug") {
		return logger.NewDebugLogger(name)
	}
	return logger.NewLogger(name)
}

// -----------------------------------------------------------------------------

// printDashboard renders the live status map as a sorted console table.
func printDashboard(d *views.Dashboard) {
	snapshot := d.Live.Snapshot()
	if len(snapshot) == 0 {
		fmt.Println("-- no sensors --")
		return
	}

	ids := make([]int, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	fmt.Printf("-- live status (%s, %d sensors) --\n", d.Manager.State(), len(ids))
	for _, id := range ids {
		entry := snapshot[id]
		line := fmt.Sprintf("  sensor %d: status=%v", id, entry["status"])
		if v, ok := entry["latency_ms"]; ok {
			line += fmt.Sprintf(" latency=%.1fms", v)
		}
		if v, ok := entry["rx_bitrate"]; ok {
			line += fmt.Sprintf(" rx=%v tx=%v", v, entry["tx_bitrate"])
		}
		fmt.Println(line)
	}
}

// -----------------------------------------------------------------------------

func printDetail(v *views.Detail, maxPoints int) {
	points := views.Downsample(v.Series.Points(), maxPoints)
	fmt.Printf("-- history for sensor %d: %d points --\n", v.Series.SensorID(), len(points))
	if len(points) > 0 {
		last := points[len(points)-1]
		fmt.Printf("  latest @ %s: %v\n", last.Time.Format(time.RFC3339), last.Fields)
	}
}
