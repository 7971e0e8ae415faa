package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzeman/smartthings-windfree/internal/pkg/models"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stapi"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stoauth"
)

const testStatusDoc = `{
	"switch": {"switch": {"value": "on"}},
	"airConditionerMode": {
		"airConditionerMode": {"value": "cool"},
		"supportedAcModes": {"value": ["auto", "cool", "dry", "wind"]}
	},
	"temperatureMeasurement": {"temperature": {"value": 24, "unit": "C"}}
}`

type fakeSmartThings struct {
	token      string
	devices    []stapi.Device
	online     bool
	devicesErr error
	getErr     error
	execErr    error
	executed   [][]stapi.Command
}

func (f *fakeSmartThings) WithAccessToken(token string) stapi.SmartThings {
	f.token = token
	return f
}

func (f *fakeSmartThings) WithTimeout(d time.Duration) stapi.SmartThings { return f }
func (f *fakeSmartThings) WithBaseURL(u string) stapi.SmartThings       { return f }

func (f *fakeSmartThings) Devices() ([]stapi.Device, error) {
	return f.devices, f.devicesErr
}

func (f *fakeSmartThings) GetDevice(deviceID string) (*stapi.Device, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}

	for i := range f.devices {
		if f.devices[i].ID == deviceID {
			return &f.devices[i], nil
		}
	}

	return nil, fmt.Errorf("no such device: %s", deviceID)
}

func (f *fakeSmartThings) DeviceOnline(deviceID string) (bool, error) {
	return f.online, nil
}

func (f *fakeSmartThings) ExecuteCommands(deviceID string, commands []stapi.Command) error {
	if f.execErr != nil {
		return f.execErr
	}

	f.executed = append(f.executed, commands)
	return nil
}

func testOauthState(t *testing.T) *stoauth.State {
	t.Helper()

	doc := fmt.Sprintf(`{
		"client-id": "client-1",
		"scope": "r:devices:* x:devices:*",
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

func testDevice(t *testing.T) stapi.Device {
	t.Helper()

	status := stapi.NewStatus()
	require.NoError(t, status.Parse([]byte(testStatusDoc)))

	return stapi.Device{
		ID:           "dev-1",
		Label:        "Living room AC",
		Manufacturer: "Samsung Electronics",
		Model:        "ARTIK051_KRAC_18K|10193441|60010132001111110200000000000000",
		Status:       status,
	}
}

func testRouter(h *WindFreeHandler) *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestHandleListDevices(t *testing.T) {
	cli := &fakeSmartThings{devices: []stapi.Device{testDevice(t)}, online: true}
	h := NewWindFreeHandler(cli, testOauthState(t))

	req := httptest.NewRequest(http.MethodGet, "/devices", nil)
	rec := httptest.NewRecorder()
	testRouter(&h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-token", cli.token)

	var summaries []*models.DeviceSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summaries))

	require.Len(t, summaries, 1)
	assert.Equal(t, "dev-1", *summaries[0].DeviceID)
	assert.Equal(t, "Living room AC", summaries[0].Label)
}

func TestHandleDeviceEntities(t *testing.T) {
	cli := &fakeSmartThings{devices: []stapi.Device{testDevice(t)}, online: true}
	h := NewWindFreeHandler(cli, testOauthState(t))

	req := httptest.NewRequest(http.MethodGet, "/devices/dev-1/entities", nil)
	rec := httptest.NewRecorder()
	testRouter(&h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var doc models.StateDocument
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))

	assert.Equal(t, "dev-1", *doc.DeviceID)
	assert.Empty(t, doc.Errors)
	assert.NotEmpty(t, doc.States)

	var sawHvacMode bool
	for _, s := range doc.States {
		if *s.Entity == "climate" && *s.Attribute == "hvac_mode" {
			sawHvacMode = true
			assert.Equal(t, "cool", s.Value)
		}
	}
	assert.True(t, sawHvacMode)
}

func TestHandleDeviceEntitiesOffline(t *testing.T) {
	cli := &fakeSmartThings{devices: []stapi.Device{testDevice(t)}, online: false}
	h := NewWindFreeHandler(cli, testOauthState(t))

	req := httptest.NewRequest(http.MethodGet, "/devices/dev-1/entities", nil)
	rec := httptest.NewRecorder()
	testRouter(&h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var doc models.StateDocument
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))

	assert.Empty(t, doc.States)
	require.Len(t, doc.Errors, 1)
	assert.Equal(t, models.ErrorEnumDeviceUnavailable, *doc.Errors[0].ErrorEnum)
}

func postCommands(t *testing.T, h *WindFreeHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/devices/dev-1/commands", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)
	return rec
}

func TestHandleDeviceCommands(t *testing.T) {
	cli := &fakeSmartThings{devices: []stapi.Device{testDevice(t)}, online: true}
	h := NewWindFreeHandler(cli, testOauthState(t))

	rec := postCommands(t, &h, `{"calls": [{"entity": "climate", "service": "set_hvac_mode", "arguments": ["dry"]}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, cli.executed, 1)
	require.Len(t, cli.executed[0], 1)
	assert.Equal(t, "airConditionerMode", cli.executed[0][0].Capability)
	assert.Equal(t, []interface{}{"dry"}, cli.executed[0][0].Arguments)

	var doc models.StateDocument
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))
	assert.Empty(t, doc.Errors)
	assert.NotEmpty(t, doc.States)
}

func TestHandleDeviceCommandsUnsupportedService(t *testing.T) {
	cli := &fakeSmartThings{devices: []stapi.Device{testDevice(t)}, online: true}
	h := NewWindFreeHandler(cli, testOauthState(t))

	rec := postCommands(t, &h, `{"calls": [{"entity": "climate", "service": "set_humidity", "arguments": [40]}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, cli.executed)

	var doc models.StateDocument
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))
	require.Len(t, doc.Errors, 1)
	assert.Equal(t, models.ErrorEnumCapabilityNotSupported, *doc.Errors[0].ErrorEnum)
}

func TestHandleDeviceCommandsBadArguments(t *testing.T) {
	cli := &fakeSmartThings{devices: []stapi.Device{testDevice(t)}, online: true}
	h := NewWindFreeHandler(cli, testOauthState(t))

	// Well-formed request, but the mode is not one the unit supports
	rec := postCommands(t, &h, `{"calls": [{"entity": "climate", "service": "set_hvac_mode", "arguments": ["warp"]}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, cli.executed)

	// Wrong argument type for the setpoint
	rec = postCommands(t, &h, `{"calls": [{"entity": "climate", "service": "set_temperature", "arguments": ["warm"]}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, cli.executed)
}

func TestHandleDeviceCommandsValidation(t *testing.T) {
	cli := &fakeSmartThings{devices: []stapi.Device{testDevice(t)}, online: true}
	h := NewWindFreeHandler(cli, testOauthState(t))

	// Empty calls list fails the minItems constraint
	rec := postCommands(t, &h, `{"calls": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing service name fails required validation
	rec = postCommands(t, &h, `{"calls": [{"entity": "climate"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Not JSON at all
	rec = postCommands(t, &h, `calls=climate`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
