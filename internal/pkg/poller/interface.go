package poller

import (
	"context"
	"time"

	"github.com/mzeman/smartthings-windfree/internal/pkg/models"
)

// StateEvent reports that a device's projected entity states changed
// since the last acknowledged poll
type StateEvent struct {
	DeviceID  string
	Label     string
	Timestamp time.Time
	States    []*models.EntityState
}

// Poller drives change detection over the SmartThings REST API.  Events
// stay pending until acknowledged, so a consumer that fails to deliver
// one sees it again on the next Pull.
type Poller interface {
	WithTimeout(d time.Duration) Poller
	WithContext(ctx context.Context) Poller
	Pull() ([]StateEvent, error)
	AckEvents(deviceIDs []string) error
}
