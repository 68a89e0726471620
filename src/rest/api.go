package rest

import (
	"context"
	"fmt"
	"time"

	"monitor-observer/src/interfaces"
	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------
// API provides typed wrappers for the backend endpoints the views depend on,
// over any IRestClient.
// -----------------------------------------------------------------------------

type API struct {
	Client interfaces.IRestClient
}

// -----------------------------------------------------------------------------

func NewAPI(client interfaces.IRestClient) *API {
	return &API{Client: client}
}

// -----------------------------------------------------------------------------

// ListDevices fetches the registered devices.
func (a *API) ListDevices(ctx context.Context) ([]models.MDevice, error) {
	var devices []models.MDevice
	if err := a.Client.Get(ctx, "/devices", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// -----------------------------------------------------------------------------

// ListSensors fetches the configured sensors.
func (a *API) ListSensors(ctx context.Context) ([]models.MSensor, error) {
	var sensors []models.MSensor
	if err := a.Client.Get(ctx, "/sensors", nil, &sensors); err != nil {
		return nil, err
	}
	return sensors, nil
}

// -----------------------------------------------------------------------------

// SensorHistory fetches the stored readings for one sensor over [start, end].
func (a *API) SensorHistory(ctx context.Context, sensorID int, start, end time.Time) ([]models.MReading, error) {
	params := map[string]string{
		"start": start.UTC().Format(time.RFC3339),
		"end":   end.UTC().Format(time.RFC3339),
	}
	var readings []models.MReading
	path := fmt.Sprintf("/sensors/%d/history_range", sensorID)
	if err := a.Client.Get(ctx, path, params, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}
