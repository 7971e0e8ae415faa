package stapi

import (
	"testing"

	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzeman/smartthings-windfree/internal/pkg/models"
)

func newServiceCall(entity, service string, args ...interface{}) *models.ServiceCall {
	return &models.ServiceCall{
		Entity:    swag.String(entity),
		Service:   swag.String(service),
		Arguments: args,
	}
}

func TestSetHvacModeOff(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	commands, err := ServiceCallToCommands(newServiceCall(EntityClimate, "set_hvac_mode", "off"), status)
	require.NoError(t, err)

	// Turning off never touches the mode, just the switch
	require.Len(t, commands, 1)
	assert.Equal(t, NewSwitchCommand(false), commands[0])
}

func TestSetHvacModeWhilePoweredOff(t *testing.T) {
	status := parseStatus(t, `{
		"switch": {"switch": {"value": "off"}},
		"airConditionerMode": {
			"airConditionerMode": {"value": "cool"},
			"supportedAcModes": {"value": ["auto", "cool", "dry"]}
		}
	}`)

	commands, err := ServiceCallToCommands(newServiceCall(EntityClimate, "set_hvac_mode", "cool"), status)
	require.NoError(t, err)

	// The unit is off: power on first, then set the mode
	require.Len(t, commands, 2)
	assert.Equal(t, NewSwitchCommand(true), commands[0])
	assert.Equal(t, NewACModeCommand("cool"), commands[1])
}

func TestSetHvacModeFanOnlyResolution(t *testing.T) {
	tests := []struct {
		name      string
		supported []string
		want      string
	}{
		{name: "wind preferred", supported: []string{"cool", "wind", "fan"}, want: "wind"},
		{name: "fan fallback", supported: []string{"cool", "fan"}, want: "fan"},
		{name: "generic fanOnly", supported: []string{"cool", "dry"}, want: "fanOnly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := NewStatus()
			status.caps[capSwitch] = &SwitchStatus{On: true}
			status.caps[capAirConditionerMode] = &AirConditionerModeStatus{
				Mode:           "cool",
				SupportedModes: tt.supported,
			}

			commands, err := ServiceCallToCommands(newServiceCall(EntityClimate, "set_hvac_mode", "fan_only"), status)
			require.NoError(t, err)

			require.Len(t, commands, 1)
			assert.Equal(t, NewACModeCommand(tt.want), commands[0])
		})
	}
}

func TestSetHvacModeUnsupported(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	_, err := ServiceCallToCommands(newServiceCall(EntityClimate, "set_hvac_mode", "heat_cool"), status)
	assert.Error(t, err)
}

func TestSetTemperature(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	commands, err := ServiceCallToCommands(newServiceCall(EntityClimate, "set_temperature", 21.5), status)
	require.NoError(t, err)

	require.Len(t, commands, 1)
	assert.Equal(t, NewCoolingSetpointCommand(21.5), commands[0])
}

func TestSetFanMode(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	commands, err := ServiceCallToCommands(newServiceCall(EntityClimate, "set_fan_mode", "turbo"), status)
	require.NoError(t, err)

	require.Len(t, commands, 1)
	assert.Equal(t, NewFanModeCommand("turbo"), commands[0])
}

func TestSetSwingMode(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	commands, err := ServiceCallToCommands(newServiceCall(EntityClimate, "set_swing_mode", "both"), status)
	require.NoError(t, err)

	require.Len(t, commands, 1)
	assert.Equal(t, NewOscillationCommand("all"), commands[0])

	_, err = ServiceCallToCommands(newServiceCall(EntityClimate, "set_swing_mode", "diagonal"), status)
	assert.Error(t, err)
}

func TestSetPresetModeWindFree(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	commands, err := ServiceCallToCommands(newServiceCall(EntityClimate, "set_preset_mode", WindFree), status)
	require.NoError(t, err)

	require.Len(t, commands, 1)
	assert.Equal(t, NewOptionalModeCommand(WindFree), commands[0])
}

func TestSetPresetModeComode(t *testing.T) {
	tests := []struct {
		preset string
		option string
	}{
		{preset: "2-Step", option: "Comode_2Step"},
		{preset: "Fast Turbo", option: "Comode_Speed"},
		{preset: "Comfort", option: "Comode_Comfort"},
		{preset: "Quiet", option: "Comode_Quiet"},
		{preset: "off", option: "Comode_Off"},
	}

	status := parseStatus(t, acStatusDoc)

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			commands, err := ServiceCallToCommands(newServiceCall(EntityClimate, "set_preset_mode", tt.preset), status)
			require.NoError(t, err)

			require.Len(t, commands, 1)
			assert.Equal(t, NewExecuteOptionsCommand(tt.option), commands[0])
		})
	}
}

func TestDisplayLightInversion(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	on, err := ServiceCallToCommands(newServiceCall(EntityDisplayLight, "turn_on"), status)
	require.NoError(t, err)
	require.Len(t, on, 1)
	assert.Equal(t, NewExecuteOptionsCommand("Light_Off"), on[0])

	off, err := ServiceCallToCommands(newServiceCall(EntityDisplayLight, "turn_off"), status)
	require.NoError(t, err)
	require.Len(t, off, 1)
	assert.Equal(t, NewExecuteOptionsCommand("Light_On"), off[0])
}

func TestPowerServices(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	on, err := ServiceCallToCommands(newServiceCall(EntityPower, "turn_on"), status)
	require.NoError(t, err)
	assert.Equal(t, []Command{NewSwitchCommand(true)}, on)

	off, err := ServiceCallToCommands(newServiceCall(EntityClimate, "turn_off"), status)
	require.NoError(t, err)
	assert.Equal(t, []Command{NewSwitchCommand(false)}, off)
}

func TestAuxiliarySwitchServices(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	cleaning, err := ServiceCallToCommands(newServiceCall(EntityAutoCleaning, "turn_on"), status)
	require.NoError(t, err)
	assert.Equal(t, []Command{NewAutoCleaningCommand(true)}, cleaning)

	purifier, err := ServiceCallToCommands(newServiceCall(EntityPurifier, "turn_off"), status)
	require.NoError(t, err)
	assert.Equal(t, []Command{NewSpiModeCommand(false)}, purifier)
}

func TestSetVolume(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	commands, err := ServiceCallToCommands(newServiceCall(EntityBeepVolume, "set_value", float64(50)), status)
	require.NoError(t, err)
	assert.Equal(t, []Command{NewVolumeCommand(50)}, commands)

	_, err = ServiceCallToCommands(newServiceCall(EntityBeepVolume, "set_value", float64(150)), status)
	assert.Error(t, err)
}

func TestSelectOption(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	commands, err := ServiceCallToCommands(newServiceCall(EntityOptionalMode, "select_option", "sleep"), status)
	require.NoError(t, err)
	assert.Equal(t, []Command{NewOptionalModeCommand("sleep")}, commands)
}

func TestUnimplementedServiceReturnsNil(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	commands, err := ServiceCallToCommands(newServiceCall(EntityClimate, "set_humidity", 40), status)
	require.NoError(t, err)
	assert.Nil(t, commands)
}

func TestBadArguments(t *testing.T) {
	status := parseStatus(t, acStatusDoc)

	_, err := ServiceCallToCommands(newServiceCall(EntityClimate, "set_hvac_mode"), status)
	assert.Error(t, err)

	_, err = ServiceCallToCommands(newServiceCall(EntityClimate, "set_temperature", "warm"), status)
	assert.Error(t, err)

	_, err = ServiceCallToCommands(newServiceCall(EntityPower, "turn_on", "now"), status)
	assert.Error(t, err)
}
