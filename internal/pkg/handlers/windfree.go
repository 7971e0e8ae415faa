package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mzeman/smartthings-windfree/internal/pkg/logging"
	"github.com/mzeman/smartthings-windfree/internal/pkg/models"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stapi"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stoauth"
)

// WindFreeHandler serves the overlay REST surface for Samsung WindFree
// air conditioners behind the SmartThings cloud
type WindFreeHandler struct {
	stClient   stapi.SmartThings
	oauthState *stoauth.State
}

func NewWindFreeHandler(cli stapi.SmartThings, oauthState *stoauth.State) WindFreeHandler {
	return WindFreeHandler{
		stClient:   cli,
		oauthState: oauthState,
	}
}

// RegisterRoutes attaches the overlay endpoints to the router
func (h *WindFreeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/devices", h.HandleListDevices).Methods(http.MethodGet)
	r.HandleFunc("/devices/{deviceId}/entities", h.HandleDeviceEntities).Methods(http.MethodGet)
	r.HandleFunc("/devices/{deviceId}/commands", h.HandleDeviceCommands).Methods(http.MethodPost)
}

// client returns an API client primed with a fresh access token
func (h *WindFreeHandler) client(r *http.Request) (stapi.SmartThings, error) {
	token, err := h.oauthState.GetAccessToken()
	if err != nil {
		return nil, err
	}

	return h.stClient.WithAccessToken(token), nil
}

func (h *WindFreeHandler) sendAPIErrorResponse(w http.ResponseWriter, r *http.Request, deviceID string, err error) {
	logging.Logger(r.Context()).WithError(err).Errorf("querying SmartThings API : %s", err)

	if stapi.IsTokenError(err) {
		doc := newStateDocument(deviceID)
		doc.Errors = []*models.ErrorBody{newErrorBody(models.ErrorEnumTokenExpired, "token error")}

		w.WriteHeader(http.StatusUnauthorized)
		sendJSONResponse(w, r, doc)
		return
	}

	http.Error(w, "Down-stream API error", http.StatusBadGateway)
}

// HandleListDevices runs discovery: every cloud device carrying the
// airConditionerMode capability is reported
func (h *WindFreeHandler) HandleListDevices(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logging.Logger(r.Context())

	c, err := h.client(r)
	if err != nil {
		ctxLogger.WithError(err).Error("obtaining access token")
		http.Error(w, "token error", http.StatusUnauthorized)
		return
	}

	stDevices, err := c.Devices()
	if err != nil {
		h.sendAPIErrorResponse(w, r, "", err)
		return
	}
	ctxLogger.Infof("Devices: %+v", stDevices)

	summaries := make([]*models.DeviceSummary, 0, len(stDevices))
	for _, stDevice := range stDevices {
		id := stDevice.ID
		summary := models.DeviceSummary{
			DeviceID:     &id,
			Label:        stDevice.Label,
			Manufacturer: stDevice.Manufacturer,
			Model:        stDevice.Model,
		}

		summaries = append(summaries, &summary)
	}

	sendJSONResponse(w, r, summaries)
}

// HandleDeviceEntities reports the current entity states of one device
func (h *WindFreeHandler) HandleDeviceEntities(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logging.Logger(r.Context())
	deviceID := mux.Vars(r)["deviceId"]

	c, err := h.client(r)
	if err != nil {
		ctxLogger.WithError(err).Error("obtaining access token")
		http.Error(w, "token error", http.StatusUnauthorized)
		return
	}

	doc := newStateDocument(deviceID)

	online, err := c.DeviceOnline(deviceID)
	if err != nil {
		if stapi.ErrorIsGlobal(err, true) {
			h.sendAPIErrorResponse(w, r, deviceID, err)
			return
		}
		online = false
	}

	if !online {
		doc.Errors = []*models.ErrorBody{
			newErrorBody(models.ErrorEnumDeviceUnavailable, "device is offline"),
		}
		sendJSONResponse(w, r, doc)
		return
	}

	stDevice, err := c.GetDevice(deviceID)
	if err != nil {
		if stapi.ErrorIsGlobal(err, true) {
			h.sendAPIErrorResponse(w, r, deviceID, err)
			return
		}

		errEnum, detail := stapi.DeviceError(err)
		doc.Errors = []*models.ErrorBody{newErrorBody(errEnum, detail)}
		sendJSONResponse(w, r, doc)
		return
	}

	doc.States = stapi.ProjectEntityStates(stDevice.Status)
	sendJSONResponse(w, r, doc)
}

// HandleDeviceCommands converts host service calls to SmartThings device
// commands, executes them, and reports the refreshed entity states
func (h *WindFreeHandler) HandleDeviceCommands(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logging.Logger(r.Context())
	deviceID := mux.Vars(r)["deviceId"]

	var req models.ServiceCallRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		ctxLogger.WithError(err).Errorf("decoding JSON")
		http.Error(w, "unable to parse JSON", http.StatusBadRequest)
		return
	}

	if err := req.Validate(formats); err != nil {
		ctxLogger.WithError(err).Errorf("request validation failure")
		http.Error(w, "input validation failed", http.StatusBadRequest)
		return
	}

	c, err := h.client(r)
	if err != nil {
		ctxLogger.WithError(err).Error("obtaining access token")
		http.Error(w, "token error", http.StatusUnauthorized)
		return
	}

	doc := newStateDocument(deviceID)

	// Command conversion needs the device state: mode resolution and the
	// power-on rule both depend on what the unit is doing right now
	stDevice, err := c.GetDevice(deviceID)
	if err != nil {
		h.sendAPIErrorResponse(w, r, deviceID, err)
		return
	}

	for _, call := range req.Calls {
		// Argument errors the schema check cannot catch, eg. an hvac
		// mode the unit does not support
		stCommands, err := stapi.ServiceCallToCommands(call, stDevice.Status)
		if err != nil {
			ctxLogger.WithError(err).Error("converting service call to commands")
			http.Error(w, "invalid service call arguments", http.StatusBadRequest)
			return
		}

		if stCommands == nil {
			doc.Errors = append(doc.Errors,
				newErrorBody(models.ErrorEnumCapabilityNotSupported, "unsupported service: "+*call.Service))
			continue
		}

		if err := c.ExecuteCommands(deviceID, stCommands); err != nil {
			if stapi.ErrorIsGlobal(err, true) {
				h.sendAPIErrorResponse(w, r, deviceID, err)
				return
			}

			errEnum, detail := stapi.DeviceError(err)
			doc.Errors = append(doc.Errors, newErrorBody(errEnum, detail))
		}
	}

	if doc.Errors == nil {
		// Refresh so the caller sees the post-command state
		if stDevice, err = c.GetDevice(deviceID); err == nil {
			doc.States = stapi.ProjectEntityStates(stDevice.Status)
		}
	}

	sendJSONResponse(w, r, doc)
}
