package interfaces

import (
	"time"

	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------
// IDatabase defining the interface for the dev server's reading store.
// Implemented by storage.SQLiteDB and storage.PostgresDB.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------
	// Lifecycle

	Initialize() error
	Close() error

	// -----------------------------------------------------------------------------
	// Inventory

	ListDevices() ([]models.MDevice, error)
	SaveDevice(d models.MDevice) error
	ListSensors() ([]models.MSensor, error)
	SaveSensor(s models.MSensor) (int, error)
	DeleteSensor(id int) error

	// -----------------------------------------------------------------------------
	// Readings

	InsertReading(r models.MReading) error
	ReadingsRange(sensorID int, sensorType string, start, end time.Time) ([]models.MReading, error)
}
