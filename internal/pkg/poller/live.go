package poller

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mzeman/smartthings-windfree/internal/pkg/logging"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stapi"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stoauth"
)

// Fingerprints of the last acknowledged and last pulled state per
// device.  Guarded by mu: Pull and AckEvents may run on different
// goroutines.  Shared between copies made by the With* methods.
type fingerprints struct {
	mu      sync.Mutex
	acked   map[string]string
	pending map[string]string
}

type Live struct {
	stClient   stapi.SmartThings
	oauthState *stoauth.State
	timeout    time.Duration
	logStates  bool
	ctx        context.Context
	seen       *fingerprints
}

func NewLivePoller(cli stapi.SmartThings, oauthState *stoauth.State) *Live {
	return &Live{
		stClient:   cli,
		oauthState: oauthState,
		ctx:        context.Background(),
		seen: &fingerprints{
			acked:   map[string]string{},
			pending: map[string]string{},
		},
	}
}

func (p *Live) WithTimeout(d time.Duration) Poller {
	np := *p
	np.timeout = d
	return &np
}

func (p *Live) WithContext(ctx context.Context) Poller {
	np := *p
	np.ctx = ctx
	return &np
}

func (p *Live) WithLogStates() *Live {
	np := *p
	np.logStates = true
	return &np
}

func (p *Live) api() (stapi.SmartThings, error) {
	token, err := p.oauthState.GetAccessToken()
	if err != nil {
		return nil, errors.Wrap(err, "obtaining access token")
	}

	c := p.stClient.WithAccessToken(token)
	if p.timeout > 0 {
		c = c.WithTimeout(p.timeout)
	}

	return c, nil
}

// fingerprint condenses a projected state list so two polls can be
// compared without holding the full documents
func fingerprint(states interface{}) string {
	data, err := json.Marshal(states)
	if err != nil {
		return ""
	}

	sum := sha1.Sum(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Pull fetches every matched device and reports the ones whose entity
// states differ from the last acknowledged poll
func (p *Live) Pull() ([]StateEvent, error) {
	c, err := p.api()
	if err != nil {
		return nil, err
	}

	devices, err := c.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "listing devices")
	}

	var events []StateEvent

	for _, device := range devices {
		stDevice, err := c.GetDevice(device.ID)
		if err != nil {
			logging.Logger(p.ctx).WithError(err).Warnf("polling device %s", device.ID)
			continue
		}

		states := stapi.ProjectEntityStates(stDevice.Status)
		if p.logStates {
			logging.Logger(p.ctx).Debugf("device %s states: %+v", device.ID, states)
		}

		fp := fingerprint(states)

		p.seen.mu.Lock()
		changed := p.seen.acked[device.ID] != fp
		if changed {
			p.seen.pending[device.ID] = fp
		}
		p.seen.mu.Unlock()

		if !changed {
			continue
		}

		events = append(events, StateEvent{
			DeviceID:  device.ID,
			Label:     device.Label,
			Timestamp: time.Now(),
			States:    states,
		})
	}

	return events, nil
}

// AckEvents commits delivered events.  Unacknowledged devices are
// reported again on the next Pull.
func (p *Live) AckEvents(deviceIDs []string) error {
	p.seen.mu.Lock()
	defer p.seen.mu.Unlock()

	for _, id := range deviceIDs {
		if fp, ok := p.seen.pending[id]; ok {
			p.seen.acked[id] = fp
			delete(p.seen.pending, id)
		}
	}

	logging.Logger(p.ctx).Debugf("acked state events for %v", deviceIDs)

	return nil
}
