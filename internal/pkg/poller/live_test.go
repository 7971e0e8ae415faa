package poller

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzeman/smartthings-windfree/internal/pkg/stapi"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stoauth"
)

type fakeSmartThings struct {
	statusDoc string
	devices   []stapi.Device
}

func (f *fakeSmartThings) WithAccessToken(token string) stapi.SmartThings { return f }
func (f *fakeSmartThings) WithTimeout(d time.Duration) stapi.SmartThings  { return f }
func (f *fakeSmartThings) WithBaseURL(u string) stapi.SmartThings         { return f }

func (f *fakeSmartThings) Devices() ([]stapi.Device, error) {
	return f.devices, nil
}

func (f *fakeSmartThings) GetDevice(deviceID string) (*stapi.Device, error) {
	for _, d := range f.devices {
		if d.ID == deviceID {
			status := stapi.NewStatus()
			if err := status.Parse([]byte(f.statusDoc)); err != nil {
				return nil, err
			}
			d.Status = status
			return &d, nil
		}
	}

	return nil, fmt.Errorf("no such device: %s", deviceID)
}

func (f *fakeSmartThings) DeviceOnline(deviceID string) (bool, error) { return true, nil }

func (f *fakeSmartThings) ExecuteCommands(deviceID string, commands []stapi.Command) error {
	return nil
}

func statusWithSetpoint(setpoint float64) string {
	return fmt.Sprintf(`{
		"switch": {"switch": {"value": "on"}},
		"thermostatCoolingSetpoint": {"coolingSetpoint": {"value": %g, "unit": "C"}}
	}`, setpoint)
}

func testOauthState(t *testing.T) *stoauth.State {
	t.Helper()

	doc := fmt.Sprintf(`{
		"client-id": "client-1",
		"access-token": "test-token",
		"access-token-expiry": %q,
		"refresh-token": "refresh-1"
	}`, time.Now().Add(time.Hour).Format(time.RFC3339))

	fileName := filepath.Join(t.TempDir(), "oauth-state.json")
	require.NoError(t, os.WriteFile(fileName, []byte(doc), 0600))

	state := stoauth.NewState().WithClientSecret("hush")
	require.NoError(t, state.Load(fileName))
	return &state
}

func TestPullReportsChangesUntilAcked(t *testing.T) {
	cli := &fakeSmartThings{
		statusDoc: statusWithSetpoint(21),
		devices:   []stapi.Device{{ID: "dev-1", Label: "Living room AC"}},
	}
	p := NewLivePoller(cli, testOauthState(t))

	// First poll: everything is new
	events, err := p.Pull()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "dev-1", events[0].DeviceID)
	assert.Equal(t, "Living room AC", events[0].Label)
	assert.NotEmpty(t, events[0].States)

	// Not acked yet: the same change is reported again
	events, err = p.Pull()
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, p.AckEvents([]string{"dev-1"}))

	// Acked and unchanged: nothing to report
	events, err = p.Pull()
	require.NoError(t, err)
	assert.Empty(t, events)

	// A state change makes the device reportable again
	cli.statusDoc = statusWithSetpoint(24)
	events, err = p.Pull()
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestAckUnknownDeviceIsHarmless(t *testing.T) {
	cli := &fakeSmartThings{statusDoc: statusWithSetpoint(21)}
	p := NewLivePoller(cli, testOauthState(t))

	assert.NoError(t, p.AckEvents([]string{"never-seen"}))
}
