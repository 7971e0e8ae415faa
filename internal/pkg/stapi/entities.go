package stapi

import (
	"strings"

	"github.com/mzeman/smartthings-windfree/internal/pkg/logging"
	"github.com/mzeman/smartthings-windfree/internal/pkg/models"
)

// Entity identifiers exposed for an air conditioner
const (
	EntityClimate      = "climate"
	EntityPower        = "power"
	EntityAutoCleaning = "auto_cleaning"
	EntityPurifier     = "purifier"
	EntityDisplayLight = "display_light"
	EntityBeepVolume   = "beep_volume"
	EntityOptionalMode = "ac_optional_mode"
)

// WindFree is the vendor optional mode surfaced as a climate preset
const WindFree = "windFree"

// AC modes treated as fan-only operation, in preference order
var fanOnlyACModes = []string{"wind", "fan"}

var acModeToHvacMode = map[string]string{
	"auto":      "auto",
	"cool":      "cool",
	"dry":       "dry",
	"coolClean": "cool",
	"dryClean":  "dry",
	"heat":      "heat",
	"heatClean": "heat",
	"fanOnly":   "fan_only",
	"fan":       "fan_only",
	"wind":      "fan_only",
}

var hvacModeToACMode = map[string]string{
	"auto":     "auto",
	"cool":     "cool",
	"dry":      "dry",
	"heat":     "heat",
	"fan_only": "fanOnly",
}

var swingModeToOscillation = map[string]string{
	"both":       "all",
	"horizontal": "horizontal",
	"vertical":   "vertical",
	"off":        "fixed",
}

var oscillationToSwingMode = map[string]string{
	"all":        "both",
	"horizontal": "horizontal",
	"vertical":   "vertical",
	"fixed":      "off",
}

// Presets only offered on the ARTIK051_KRAC_18K firmware, driven through
// the vendor execute capability rather than the optional-mode capability
var extendedPresetModes = []string{"2-Step", "Fast Turbo", "Comfort", "Quiet", "off"}

const extendedPresetModelSubstring = "ARTIK051_KRAC_18K"

//  Convert capability data to a set of host entity states
//  ToEntityStates() may use data from other capabilities to compose the state
type EntityProjector interface {
	ToEntityStates(status Status) []*models.EntityState
}

// ProjectEntityStates runs every projectable capability in the status set
func ProjectEntityStates(status Status) []*models.EntityState {
	capIDs := status.CapabilityIDs()
	states := make([]*models.EntityState, 0, len(capIDs))

	for _, capID := range capIDs {
		capData := status.Capability(capID)

		p, ok := capData.(EntityProjector)
		if !ok {
			logging.Logger(nil).Debugf("Ignoring capability %s, no entity projection", capID.Name())
			continue
		}

		states = append(states, p.ToEntityStates(status)...)
	}

	return states
}

func deviceIsOff(status Status) bool {
	sw := status.Capability(capSwitch)
	return sw != nil && !sw.(*SwitchStatus).On
}

func (t SwitchStatus) ToEntityStates(status Status) []*models.EntityState {
	state := "off"
	if t.On {
		state = "on"
	}

	return []*models.EntityState{
		models.NewEntityState(EntityPower, models.EntityKindSwitch, "state", state),
	}
}

func (t AirConditionerModeStatus) ToEntityStates(status Status) []*models.EntityState {
	mode := acModeToHvacMode[t.Mode]
	if deviceIsOff(status) {
		mode = "off"
	}

	modes := []string{"off"}
	for _, acMode := range t.SupportedModes {
		hvacMode, ok := acModeToHvacMode[acMode]
		if !ok {
			continue
		}
		if !containsString(modes, hvacMode) {
			modes = append(modes, hvacMode)
		}
	}

	state1 := models.NewEntityState(EntityClimate, models.EntityKindClimate, "hvac_mode", mode)
	state2 := models.NewEntityState(EntityClimate, models.EntityKindClimate, "hvac_modes", modes)

	return []*models.EntityState{state1, state2}
}

func (t AirConditionerFanModeStatus) ToEntityStates(status Status) []*models.EntityState {
	state1 := models.NewEntityState(EntityClimate, models.EntityKindClimate, "fan_mode", t.Mode)
	state2 := models.NewEntityState(EntityClimate, models.EntityKindClimate, "fan_modes", t.SupportedModes)

	return []*models.EntityState{state1, state2}
}

func (t FanOscillationModeStatus) ToEntityStates(status Status) []*models.EntityState {
	swing, ok := oscillationToSwingMode[t.Mode]
	if !ok {
		swing = "off"
	}

	var swingModes []string
	if len(t.SupportedModes) > 0 {
		for _, osc := range t.SupportedModes {
			if mapped, ok := oscillationToSwingMode[osc]; ok && !containsString(swingModes, mapped) {
				swingModes = append(swingModes, mapped)
			}
		}
	} else if t.Mode != "" {
		// Some firmwares report a mode but no supported list
		swingModes = []string{"off", "both", "vertical", "horizontal"}
	}

	state1 := models.NewEntityState(EntityClimate, models.EntityKindClimate, "swing_mode", swing)
	state2 := models.NewEntityState(EntityClimate, models.EntityKindClimate, "swing_modes", swingModes)

	return []*models.EntityState{state1, state2}
}

func (t TemperatureMeasurementStatus) ToEntityStates(status Status) []*models.EntityState {
	state := models.NewEntityState(EntityClimate, models.EntityKindClimate, "current_temperature", t.Temperature)
	state.Unit = t.Unit

	return []*models.EntityState{state}
}

func (t RelativeHumidityStatus) ToEntityStates(status Status) []*models.EntityState {
	state := models.NewEntityState(EntityClimate, models.EntityKindClimate, "current_humidity", t.Humidity)
	state.Unit = "%"

	return []*models.EntityState{state}
}

func (t CoolingSetpointStatus) ToEntityStates(status Status) []*models.EntityState {
	state := models.NewEntityState(EntityClimate, models.EntityKindClimate, "target_temperature", t.Setpoint)
	state.Unit = t.Unit

	return []*models.EntityState{state}
}

func (t AudioVolumeStatus) ToEntityStates(status Status) []*models.EntityState {
	state := models.NewEntityState(EntityBeepVolume, models.EntityKindNumber, "value", t.Volume)
	state.Unit = "%"

	stateMin := models.NewEntityState(EntityBeepVolume, models.EntityKindNumber, "min", float64(0))
	stateMax := models.NewEntityState(EntityBeepVolume, models.EntityKindNumber, "max", float64(100))

	return []*models.EntityState{state, stateMin, stateMax}
}

// supportsExtendedPresets reports whether the ocf model number unlocks the
// vendor Comode presets
func supportsExtendedPresets(status Status) bool {
	ocf := status.Capability(capOcf)
	if ocf == nil {
		return false
	}

	return strings.Contains(ocf.(*OcfStatus).ModelNumber, extendedPresetModelSubstring)
}

func (t OptionalModeStatus) ToEntityStates(status Status) []*models.EntityState {
	preset := ""
	if t.Mode == WindFree {
		preset = WindFree
	}

	var presets []string
	if containsString(t.SupportedModes, WindFree) {
		presets = append(presets, WindFree)
	}
	if supportsExtendedPresets(status) {
		for _, mode := range extendedPresetModes {
			if !containsString(presets, mode) {
				presets = append(presets, mode)
			}
		}
	}

	state1 := models.NewEntityState(EntityClimate, models.EntityKindClimate, "preset_mode", preset)
	state2 := models.NewEntityState(EntityClimate, models.EntityKindClimate, "preset_modes", presets)

	// The raw optional mode is also exposed as a select so modes with no
	// climate preset equivalent stay reachable
	state3 := models.NewEntityState(EntityOptionalMode, models.EntityKindSelect, "option", t.Mode)
	state4 := models.NewEntityState(EntityOptionalMode, models.EntityKindSelect, "options", t.SupportedModes)

	return []*models.EntityState{state1, state2, state3, state4}
}

func (t AutoCleaningModeStatus) ToEntityStates(status Status) []*models.EntityState {
	state := "off"
	if t.On {
		state = "on"
	}

	return []*models.EntityState{
		models.NewEntityState(EntityAutoCleaning, models.EntityKindSwitch, "state", state),
	}
}

func (t SpiModeStatus) ToEntityStates(status Status) []*models.EntityState {
	state := "off"
	if t.On {
		state = "on"
	}

	return []*models.EntityState{
		models.NewEntityState(EntityPurifier, models.EntityKindSwitch, "state", state),
	}
}

func (t DemandResponseStatus) ToEntityStates(status Status) []*models.EntityState {
	return []*models.EntityState{
		models.NewEntityState(EntityClimate, models.EntityKindClimate, "drlc_status_duration", t.Duration),
		models.NewEntityState(EntityClimate, models.EntityKindClimate, "drlc_status_start", t.Start),
		models.NewEntityState(EntityClimate, models.EntityKindClimate, "drlc_status_override", t.Override),
		models.NewEntityState(EntityClimate, models.EntityKindClimate, "drlc_status_level", t.Level),
	}
}

// The display light has no readable attribute; report the firmware default
// (on) and let command dispatch keep the optimistic state client-side.
func (t ExecuteStatus) ToEntityStates(status Status) []*models.EntityState {
	return []*models.EntityState{
		models.NewEntityState(EntityDisplayLight, models.EntityKindLight, "state", "on"),
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}
