package models_test

import (
	"encoding/json"
	"testing"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzeman/smartthings-windfree/internal/pkg/models"
)

var formats = strfmt.NewFormats()

func TestEntityStateValidate(t *testing.T) {
	state := models.NewEntityState("climate", models.EntityKindClimate, "hvac_mode", "cool")
	assert.NoError(t, state.Validate(formats))

	missing := &models.EntityState{Entity: swag.String("climate")}
	assert.Error(t, missing.Validate(formats))

	badKind := models.NewEntityState("climate", "thermostat", "hvac_mode", "cool")
	assert.Error(t, badKind.Validate(formats))
}

func TestServiceCallRequestValidate(t *testing.T) {
	good := &models.ServiceCallRequest{
		Calls: []*models.ServiceCall{
			{Entity: swag.String("climate"), Service: swag.String("set_hvac_mode"), Arguments: []interface{}{"cool"}},
		},
	}
	assert.NoError(t, good.Validate(formats))

	empty := &models.ServiceCallRequest{Calls: []*models.ServiceCall{}}
	assert.Error(t, empty.Validate(formats))

	noService := &models.ServiceCallRequest{
		Calls: []*models.ServiceCall{{Entity: swag.String("climate")}},
	}
	assert.Error(t, noService.Validate(formats))
}

func TestStateDocumentValidate(t *testing.T) {
	doc := &models.StateDocument{
		DeviceID: swag.String("dev-1"),
		States: []*models.EntityState{
			models.NewEntityState("power", models.EntityKindSwitch, "state", "on"),
		},
		Errors: []*models.ErrorBody{
			{ErrorEnum: swag.String(models.ErrorEnumDeviceUnavailable), Detail: "device is offline"},
		},
	}
	assert.NoError(t, doc.Validate(formats))

	noID := &models.StateDocument{}
	assert.Error(t, noID.Validate(formats))
}

func TestStateDocumentJSONShape(t *testing.T) {
	doc := &models.StateDocument{
		DeviceID: swag.String("dev-1"),
		States: []*models.EntityState{
			models.NewEntityState("climate", models.EntityKindClimate, "hvac_mode", "cool"),
		},
	}

	b, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"deviceId": "dev-1",
		"states": [{"entity": "climate", "kind": "climate", "attribute": "hvac_mode", "value": "cool"}]
	}`, string(b))
}
