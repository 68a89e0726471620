package views

import (
	"context"
	"time"

	"monitor-observer/src/logger"
	"monitor-observer/src/models"
	"monitor-observer/src/realtime"
)

// -----------------------------------------------------------------------------
// SensorAPI is the slice of the REST surface the views consume.
// -----------------------------------------------------------------------------

type SensorAPI interface {
	ListSensors(ctx context.Context) ([]models.MSensor, error)
	SensorHistory(ctx context.Context, sensorID int, start, end time.Time) ([]models.MReading, error)
}

// -----------------------------------------------------------------------------
// Dashboard is the live-status view controller: it loads the sensor list,
// seeds pending placeholders, claims the sensors on the shared subscription
// and merges streamed updates into its LiveStatusMap. Unmounting releases
// the listener and the claim but never the shared connection, which other
// views and the app shell still reference.
// -----------------------------------------------------------------------------

type Dashboard struct {
	Manager    *realtime.Manager
	Subscriber *realtime.Subscriber
	API        SensorAPI
	Logger     *logger.Logger
	Live       *LiveStatusMap

	listenerID int
	mounted    bool
}

const dashboardView = "dashboard"

// -----------------------------------------------------------------------------

func NewDashboard(m *realtime.Manager, sub *realtime.Subscriber, api SensorAPI, log *logger.Logger) *Dashboard {
	return &Dashboard{
		Manager:    m,
		Subscriber: sub,
		API:        api,
		Logger:     log,
		Live:       NewLiveStatusMap(),
	}
}

// -----------------------------------------------------------------------------

// Mount loads the sensor list and starts consuming live updates. A fetch
// failure leaves the view in its empty state and is surfaced to the caller;
// the stream side is untouched and a later Refresh can recover.
func (d *Dashboard) Mount(ctx context.Context) error {
	sensors, err := d.API.ListSensors(ctx)
	if err != nil {
		return err
	}

	ids := make([]int, 0, len(sensors))
	for _, s := range sensors {
		ids = append(ids, s.ID)
	}

	d.Live.InitPending(ids)

	if !d.mounted {
		d.listenerID = d.Manager.AddListener(d.Live.Apply)
		d.mounted = true
	}
	d.Subscriber.ClaimView(dashboardView, ids)

	if err := d.Manager.EnsureConnected(); err != nil {
		// AuthRequired: the view renders with placeholders and the next
		// sign-in reconnects; REST data above already succeeded.
		d.Logger.Warning("dashboard mounted without stream: %v", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Refresh re-fetches the sensor list and updates the subscription claim.
func (d *Dashboard) Refresh(ctx context.Context) error {
	return d.Mount(ctx)
}

// -----------------------------------------------------------------------------

// Unmount deregisters the listener, releases the subscription claim and
// clears view-local state. The shared connection stays up.
func (d *Dashboard) Unmount() {
	if !d.mounted {
		return
	}
	d.Manager.RemoveListener(d.listenerID)
	d.Subscriber.ReleaseView(dashboardView)
	d.Live.Clear()
	d.mounted = false
}
