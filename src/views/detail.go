package views

import (
	"context"
	"fmt"
	"time"

	"monitor-observer/src/logger"
	"monitor-observer/src/models"
	"monitor-observer/src/realtime"
)

// -----------------------------------------------------------------------------
// Detail is the per-sensor history view controller: one REST fetch per
// time-range selection, then in-place extension from the stream until the
// next fetch.
// -----------------------------------------------------------------------------

type Detail struct {
	Manager    *realtime.Manager
	Subscriber *realtime.Subscriber
	API        SensorAPI
	Logger     *logger.Logger
	Series     *HistorySeries

	timeRange  string
	listenerID int
	mounted    bool
}

// -----------------------------------------------------------------------------

func NewDetail(m *realtime.Manager, sub *realtime.Subscriber, api SensorAPI, log *logger.Logger, sensorID int, timeRange string) (*Detail, error) {
	series, err := NewHistorySeries(sensorID, timeRange)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Manager:    m,
		Subscriber: sub,
		API:        api,
		Logger:     log,
		Series:     series,
		timeRange:  timeRange,
	}, nil
}

// -----------------------------------------------------------------------------

func (v *Detail) viewName() string {
	return fmt.Sprintf("detail:%d", v.Series.SensorID())
}

// -----------------------------------------------------------------------------

// Mount fetches the history for the active window and starts extending it
// from the stream.
func (v *Detail) Mount(ctx context.Context) error {
	if err := v.fetch(ctx); err != nil {
		return err
	}

	if !v.mounted {
		v.listenerID = v.Manager.AddListener(func(e models.MUpdateEvent) {
			v.Series.Apply(e)
		})
		v.mounted = true
	}
	v.Subscriber.ClaimView(v.viewName(), []int{v.Series.SensorID()})

	if err := v.Manager.EnsureConnected(); err != nil {
		v.Logger.Warning("detail mounted without stream: %v", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// SetTimeRange switches the window and replaces the series with a fresh
// fetch; streamed extension resumes against the new data.
func (v *Detail) SetTimeRange(ctx context.Context, timeRange string) error {
	if err := v.Series.SetTimeRange(timeRange); err != nil {
		return err
	}
	v.timeRange = timeRange
	return v.fetch(ctx)
}

// -----------------------------------------------------------------------------

// Unmount deregisters the listener and releases the subscription claim.
func (v *Detail) Unmount() {
	if !v.mounted {
		return
	}
	v.Manager.RemoveListener(v.listenerID)
	v.Subscriber.ReleaseView(v.viewName())
	v.mounted = false
}

// -----------------------------------------------------------------------------

func (v *Detail) fetch(ctx context.Context) error {
	window, err := models.WindowDuration(v.timeRange)
	if err != nil {
		return err
	}

	end := time.Now().UTC()
	start := end.Add(-window)
	readings, err := v.API.SensorHistory(ctx, v.Series.SensorID(), start, end)
	if err != nil {
		return err
	}

	v.Series.Replace(readings)
	return nil
}
