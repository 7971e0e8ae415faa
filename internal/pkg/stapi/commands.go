package stapi

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/mzeman/smartthings-windfree/internal/pkg/logging"
	"github.com/mzeman/smartthings-windfree/internal/pkg/models"
)

const mainComponent = "main"

// Vendor execute payload pieces for the Samsung option commands
const (
	executeOptionsPath = "/mode/vs/0"
	executeOptionsKey  = "x.com.samsung.da.options"
)

// Presets driven through the vendor execute capability, keyed by the
// lower-cased preset name
var presetToExecuteOption = map[string]string{
	"2-step":     "Comode_2Step",
	"fast turbo": "Comode_Speed",
	"comfort":    "Comode_Comfort",
	"quiet":      "Comode_Quiet",
	"off":        "Comode_Off",
}

func NewSwitchCommand(on bool) Command {
	cmd := "off"
	if on {
		cmd = "on"
	}

	return Command{
		Component:  mainComponent,
		Capability: "switch",
		Command:    cmd,
	}
}

func NewACModeCommand(mode string) Command {
	return Command{
		Component:  mainComponent,
		Capability: "airConditionerMode",
		Command:    "setAirConditionerMode",
		Arguments:  []interface{}{mode},
	}
}

func NewFanModeCommand(mode string) Command {
	return Command{
		Component:  mainComponent,
		Capability: "airConditionerFanMode",
		Command:    "setFanMode",
		Arguments:  []interface{}{mode},
	}
}

func NewOscillationCommand(mode string) Command {
	return Command{
		Component:  mainComponent,
		Capability: "fanOscillationMode",
		Command:    "setFanOscillationMode",
		Arguments:  []interface{}{mode},
	}
}

func NewCoolingSetpointCommand(temp float64) Command {
	return Command{
		Component:  mainComponent,
		Capability: "thermostatCoolingSetpoint",
		Command:    "setCoolingSetpoint",
		Arguments:  []interface{}{temp},
	}
}

func NewOptionalModeCommand(mode string) Command {
	return Command{
		Component:  mainComponent,
		Capability: "custom.airConditionerOptionalMode",
		Command:    "setAcOptionalMode",
		Arguments:  []interface{}{mode},
	}
}

func NewAutoCleaningCommand(on bool) Command {
	state := "off"
	if on {
		state = "on"
	}

	return Command{
		Component:  mainComponent,
		Capability: "custom.autoCleaningMode",
		Command:    "setAutoCleaningMode",
		Arguments:  []interface{}{state},
	}
}

func NewSpiModeCommand(on bool) Command {
	state := "off"
	if on {
		state = "on"
	}

	return Command{
		Component:  mainComponent,
		Capability: "custom.spiMode",
		Command:    "setSpiMode",
		Arguments:  []interface{}{state},
	}
}

func NewVolumeCommand(volume int) Command {
	return Command{
		Component:  mainComponent,
		Capability: "audioVolume",
		Command:    "setVolume",
		Arguments:  []interface{}{volume},
	}
}

// NewExecuteOptionsCommand builds the vendor option command used for the
// display light and the Comode presets
func NewExecuteOptionsCommand(option string) Command {
	payload := map[string]interface{}{
		executeOptionsKey: []string{option},
	}

	return Command{
		Component:  mainComponent,
		Capability: "execute",
		Command:    "execute",
		Arguments:  []interface{}{executeOptionsPath, payload},
	}
}

// ServiceCallToCommands converts a host service call into the SmartThings
// commands implementing it.  The device status is consulted for power state
// and supported-mode resolution.  A nil, nil return means the entity or
// service has no SmartThings implementation.
func ServiceCallToCommands(call *models.ServiceCall, status Status) ([]Command, error) {
	var reader serviceArgsReader

	key := *call.Entity + "/" + *call.Service
	switch key {
	case EntityClimate + "/set_hvac_mode":
		reader = &climateSetHvacMode{}
	case EntityClimate + "/set_temperature":
		reader = &climateSetTemperature{}
	case EntityClimate + "/set_fan_mode":
		reader = &climateSetFanMode{}
	case EntityClimate + "/set_swing_mode":
		reader = &climateSetSwingMode{}
	case EntityClimate + "/set_preset_mode":
		reader = &climateSetPresetMode{}
	case EntityClimate + "/turn_on", EntityPower + "/turn_on":
		reader = &powerService{on: true}
	case EntityClimate + "/turn_off", EntityPower + "/turn_off":
		reader = &powerService{on: false}
	case EntityAutoCleaning + "/turn_on":
		reader = &autoCleaningService{on: true}
	case EntityAutoCleaning + "/turn_off":
		reader = &autoCleaningService{on: false}
	case EntityPurifier + "/turn_on":
		reader = &purifierService{on: true}
	case EntityPurifier + "/turn_off":
		reader = &purifierService{on: false}
	case EntityDisplayLight + "/turn_on":
		reader = &displayLightService{on: true}
	case EntityDisplayLight + "/turn_off":
		reader = &displayLightService{on: false}
	case EntityBeepVolume + "/set_value":
		reader = &volumeService{}
	case EntityOptionalMode + "/select_option":
		reader = &optionalModeService{}
	}

	if reader == nil {
		logging.Logger(nil).Debugf("Ignoring unimplemented service [%s]", key)
		return nil, nil
	}

	if err := reader.Unmarshal(call.Arguments); err != nil {
		return nil, errors.Wrapf(err, "unmarshaling arguments for %s", key)
	}

	return reader.ToCommands(status), nil
}

func oneStringArg(args []interface{}) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected 1 argument, got %d", len(args))
	}

	s, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("expected string argument, have: %+v", args[0])
	}

	return s, nil
}

func oneNumberArg(args []interface{}) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected 1 argument, got %d", len(args))
	}

	switch v := args[0].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected numeric argument, have: %T : %+v", args[0], args[0])
	}
}

type climateSetHvacMode struct {
	mode string
}

func (t *climateSetHvacMode) Unmarshal(args []interface{}) error {
	mode, err := oneStringArg(args)
	if err != nil {
		return err
	}

	if _, ok := hvacModeToACMode[mode]; !ok && mode != "off" {
		return fmt.Errorf("unsupported hvac mode: %s", mode)
	}

	t.mode = mode
	return nil
}

func (t *climateSetHvacMode) ToCommands(status Status) []Command {
	if t.mode == "off" {
		return []Command{NewSwitchCommand(false)}
	}

	commands := make([]Command, 0, 2)
	if deviceIsOff(status) {
		commands = append(commands, NewSwitchCommand(true))
	}

	acMode := hvacModeToACMode[t.mode]
	if t.mode == "fan_only" {
		// Prefer the device's own fan-only flavour when it reports one
		if modeCap := status.Capability(capAirConditionerMode); modeCap != nil {
			supported := modeCap.(*AirConditionerModeStatus).SupportedModes
			for _, fanMode := range fanOnlyACModes {
				if containsString(supported, fanMode) {
					acMode = fanMode
					break
				}
			}
		}
	}

	return append(commands, NewACModeCommand(acMode))
}

type climateSetTemperature struct {
	temperature float64
}

func (t *climateSetTemperature) Unmarshal(args []interface{}) error {
	temp, err := oneNumberArg(args)
	if err != nil {
		return err
	}

	t.temperature = temp
	return nil
}

func (t *climateSetTemperature) ToCommands(status Status) []Command {
	return []Command{NewCoolingSetpointCommand(t.temperature)}
}

type climateSetFanMode struct {
	mode string
}

func (t *climateSetFanMode) Unmarshal(args []interface{}) error {
	mode, err := oneStringArg(args)
	if err != nil {
		return err
	}

	t.mode = mode
	return nil
}

func (t *climateSetFanMode) ToCommands(status Status) []Command {
	return []Command{NewFanModeCommand(t.mode)}
}

type climateSetSwingMode struct {
	oscillation string
}

func (t *climateSetSwingMode) Unmarshal(args []interface{}) error {
	swing, err := oneStringArg(args)
	if err != nil {
		return err
	}

	oscillation, ok := swingModeToOscillation[swing]
	if !ok {
		return fmt.Errorf("unsupported swing mode: %s", swing)
	}

	t.oscillation = oscillation
	return nil
}

func (t *climateSetSwingMode) ToCommands(status Status) []Command {
	return []Command{NewOscillationCommand(t.oscillation)}
}

type climateSetPresetMode struct {
	preset string
}

func (t *climateSetPresetMode) Unmarshal(args []interface{}) error {
	preset, err := oneStringArg(args)
	if err != nil {
		return err
	}

	t.preset = preset
	return nil
}

func (t *climateSetPresetMode) ToCommands(status Status) []Command {
	if option, ok := presetToExecuteOption[strings.ToLower(t.preset)]; ok {
		return []Command{NewExecuteOptionsCommand(option)}
	}

	return []Command{NewOptionalModeCommand(t.preset)}
}

type powerService struct {
	on bool
}

func (t *powerService) Unmarshal(args []interface{}) error {
	if len(args) != 0 {
		return fmt.Errorf("expected no arguments, got %d", len(args))
	}
	return nil
}

func (t *powerService) ToCommands(status Status) []Command {
	return []Command{NewSwitchCommand(t.on)}
}

type autoCleaningService struct {
	on bool
}

func (t *autoCleaningService) Unmarshal(args []interface{}) error {
	if len(args) != 0 {
		return fmt.Errorf("expected no arguments, got %d", len(args))
	}
	return nil
}

func (t *autoCleaningService) ToCommands(status Status) []Command {
	return []Command{NewAutoCleaningCommand(t.on)}
}

type purifierService struct {
	on bool
}

func (t *purifierService) Unmarshal(args []interface{}) error {
	if len(args) != 0 {
		return fmt.Errorf("expected no arguments, got %d", len(args))
	}
	return nil
}

func (t *purifierService) ToCommands(status Status) []Command {
	return []Command{NewSpiModeCommand(t.on)}
}

type displayLightService struct {
	on bool
}

func (t *displayLightService) Unmarshal(args []interface{}) error {
	if len(args) != 0 {
		return fmt.Errorf("expected no arguments, got %d", len(args))
	}
	return nil
}

// The firmware's option names are inverted: Light_Off turns the display
// on and Light_On turns it off.
func (t *displayLightService) ToCommands(status Status) []Command {
	option := "Light_On"
	if t.on {
		option = "Light_Off"
	}

	return []Command{NewExecuteOptionsCommand(option)}
}

type volumeService struct {
	volume int
}

func (t *volumeService) Unmarshal(args []interface{}) error {
	vol, err := oneNumberArg(args)
	if err != nil {
		return err
	}

	if vol < 0 || vol > 100 {
		return fmt.Errorf("volume out of range 0-100: %v", vol)
	}

	t.volume = int(vol)
	return nil
}

func (t *volumeService) ToCommands(status Status) []Command {
	return []Command{NewVolumeCommand(t.volume)}
}

type optionalModeService struct {
	mode string
}

func (t *optionalModeService) Unmarshal(args []interface{}) error {
	mode, err := oneStringArg(args)
	if err != nil {
		return err
	}

	t.mode = mode
	return nil
}

func (t *optionalModeService) ToCommands(status Status) []Command {
	return []Command{NewOptionalModeCommand(t.mode)}
}
