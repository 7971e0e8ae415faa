package stapi

import (
	"encoding/json"
	"fmt"

	"github.com/mzeman/smartthings-windfree/internal/pkg/logging"
)

/*
 *   Supported SmartThings capability identifiers and names
 */

type capabilityID int

const (
	capSwitch capabilityID = iota
	capAirConditionerMode
	capAirConditionerFanMode
	capFanOscillationMode
	capTemperatureMeasurement
	capRelativeHumidityMeasurement
	capThermostatCoolingSetpoint
	capAudioVolume
	capAirConditionerOptionalMode
	capAutoCleaningMode
	capSpiMode
	capDemandResponseLoadControl
	capExecute
	capOcf
)

var capabilityNames = []string{
	"switch",
	"airConditionerMode",
	"airConditionerFanMode",
	"fanOscillationMode",
	"temperatureMeasurement",
	"relativeHumidityMeasurement",
	"thermostatCoolingSetpoint",
	"audioVolume",
	"custom.airConditionerOptionalMode",
	"custom.autoCleaningMode",
	"custom.spiMode",
	"demandResponseLoadControl",
	"execute",
	"ocf",
}

// convert a capability name to its ID
func parseCapabilityName(name string) (bool, capabilityID) {
	for i, val := range capabilityNames {
		if val == name {
			return true, capabilityID(i)
		}
	}

	return false, 0
}

// return the name of a capability
func (id capabilityID) Name() string {
	if int(id) >= len(capabilityNames) {
		return fmt.Sprintf("unknown (id: %d)", id)
	}

	return capabilityNames[id]
}

// Convert a capability as read from SmartThings, to internal representation
type statusReader interface {
	Unmarshal() interface{}
}

// Attribute value shapes used by the SmartThings component status document
type stringAttribute struct {
	Value string `json:"value"`
}

type stringListAttribute struct {
	Value []string `json:"value"`
}

type numberAttribute struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Status is the set of parsed capabilities for one device component
type Status struct {
	caps map[capabilityID]interface{}
}

func NewStatus() Status {
	return Status{
		caps: make(map[capabilityID]interface{}),
	}
}

// CapabilityIDs returns the IDs present in the status set
func (s *Status) CapabilityIDs() []capabilityID {
	keys := make([]capabilityID, 0, len(s.caps))
	for k := range s.caps {
		keys = append(keys, k)
	}

	return keys
}

// Capability returns the parsed capability data given its ID, or nil
func (s *Status) Capability(id capabilityID) interface{} {
	val, ok := s.caps[id]
	if ok {
		return val
	}
	return nil
}

// Parse decodes a SmartThings component status document
// ({capability: {attribute: {value, unit}}}) into the status set
func (s *Status) Parse(data []byte) error {
	var allCaps map[string]json.RawMessage
	if err := json.Unmarshal(data, &allCaps); err != nil {
		return err
	}

	for capName, v := range allCaps {
		ok, capID := parseCapabilityName(capName)
		if !ok {
			logging.Logger(nil).Debugf("Ignoring unimplemented capability [%s]", capName)
			continue
		}

		var decoded statusReader
		switch capID {
		case capSwitch:
			decoded = &switchStatus{}
		case capAirConditionerMode:
			decoded = &airConditionerModeStatus{}
		case capAirConditionerFanMode:
			decoded = &airConditionerFanModeStatus{}
		case capFanOscillationMode:
			decoded = &fanOscillationModeStatus{}
		case capTemperatureMeasurement:
			decoded = &temperatureMeasurementStatus{}
		case capRelativeHumidityMeasurement:
			decoded = &relativeHumidityStatus{}
		case capThermostatCoolingSetpoint:
			decoded = &coolingSetpointStatus{}
		case capAudioVolume:
			decoded = &audioVolumeStatus{}
		case capAirConditionerOptionalMode:
			decoded = &optionalModeStatus{}
		case capAutoCleaningMode:
			decoded = &autoCleaningModeStatus{}
		case capSpiMode:
			decoded = &spiModeStatus{}
		case capDemandResponseLoadControl:
			decoded = &demandResponseStatus{}
		case capExecute:
			decoded = &executeStatus{}
		case capOcf:
			decoded = &ocfStatus{}
		}

		if decoded == nil {
			logging.Logger(nil).Debugf("Ignoring unimplemented capability [%s]", capName)
			continue
		}

		if err := json.Unmarshal(v, &decoded); err != nil {
			return err
		}

		s.caps[capID] = decoded.Unmarshal()
	}

	return nil
}

type switchStatus struct {
	Switch stringAttribute `json:"switch"`
}
type SwitchStatus struct {
	On bool
}

func (t *switchStatus) Unmarshal() interface{} {
	return &SwitchStatus{On: t.Switch.Value == "on"}
}

type airConditionerModeStatus struct {
	AirConditionerMode stringAttribute     `json:"airConditionerMode"`
	SupportedAcModes   stringListAttribute `json:"supportedAcModes"`
}
type AirConditionerModeStatus struct {
	Mode           string
	SupportedModes []string
}

func (t *airConditionerModeStatus) Unmarshal() interface{} {
	return &AirConditionerModeStatus{
		Mode:           t.AirConditionerMode.Value,
		SupportedModes: t.SupportedAcModes.Value,
	}
}

type airConditionerFanModeStatus struct {
	FanMode             stringAttribute     `json:"fanMode"`
	SupportedAcFanModes stringListAttribute `json:"supportedAcFanModes"`
}
type AirConditionerFanModeStatus struct {
	Mode           string
	SupportedModes []string
}

func (t *airConditionerFanModeStatus) Unmarshal() interface{} {
	return &AirConditionerFanModeStatus{
		Mode:           t.FanMode.Value,
		SupportedModes: t.SupportedAcFanModes.Value,
	}
}

type fanOscillationModeStatus struct {
	FanOscillationMode           stringAttribute     `json:"fanOscillationMode"`
	SupportedFanOscillationModes stringListAttribute `json:"supportedFanOscillationModes"`
}
type FanOscillationModeStatus struct {
	Mode           string
	SupportedModes []string
}

func (t *fanOscillationModeStatus) Unmarshal() interface{} {
	return &FanOscillationModeStatus{
		Mode:           t.FanOscillationMode.Value,
		SupportedModes: t.SupportedFanOscillationModes.Value,
	}
}

type temperatureMeasurementStatus struct {
	Temperature numberAttribute `json:"temperature"`
}
type TemperatureMeasurementStatus struct {
	Temperature float64
	Unit        string
}

func (t *temperatureMeasurementStatus) Unmarshal() interface{} {
	return &TemperatureMeasurementStatus{
		Temperature: t.Temperature.Value,
		Unit:        t.Temperature.Unit,
	}
}

type relativeHumidityStatus struct {
	Humidity numberAttribute `json:"humidity"`
}
type RelativeHumidityStatus struct {
	Humidity float64
}

func (t *relativeHumidityStatus) Unmarshal() interface{} {
	return &RelativeHumidityStatus{Humidity: t.Humidity.Value}
}

type coolingSetpointStatus struct {
	CoolingSetpoint numberAttribute `json:"coolingSetpoint"`
}
type CoolingSetpointStatus struct {
	Setpoint float64
	Unit     string
}

func (t *coolingSetpointStatus) Unmarshal() interface{} {
	return &CoolingSetpointStatus{
		Setpoint: t.CoolingSetpoint.Value,
		Unit:     t.CoolingSetpoint.Unit,
	}
}

type audioVolumeStatus struct {
	Volume numberAttribute `json:"volume"`
}
type AudioVolumeStatus struct {
	Volume float64
}

func (t *audioVolumeStatus) Unmarshal() interface{} {
	return &AudioVolumeStatus{Volume: t.Volume.Value}
}

type optionalModeStatus struct {
	AcOptionalMode          stringAttribute     `json:"acOptionalMode"`
	SupportedAcOptionalMode stringListAttribute `json:"supportedAcOptionalMode"`
}
type OptionalModeStatus struct {
	Mode           string
	SupportedModes []string
}

func (t *optionalModeStatus) Unmarshal() interface{} {
	return &OptionalModeStatus{
		Mode:           t.AcOptionalMode.Value,
		SupportedModes: t.SupportedAcOptionalMode.Value,
	}
}

type autoCleaningModeStatus struct {
	AutoCleaningMode stringAttribute `json:"autoCleaningMode"`
}
type AutoCleaningModeStatus struct {
	On bool
}

func (t *autoCleaningModeStatus) Unmarshal() interface{} {
	return &AutoCleaningModeStatus{On: t.AutoCleaningMode.Value == "on"}
}

type spiModeStatus struct {
	SpiMode stringAttribute `json:"spiMode"`
}
type SpiModeStatus struct {
	On bool
}

func (t *spiModeStatus) Unmarshal() interface{} {
	return &SpiModeStatus{On: t.SpiMode.Value == "on"}
}

type demandResponseStatus struct {
	DrlcStatus struct {
		Value struct {
			Duration  int    `json:"duration"`
			Start     string `json:"start"`
			Override  bool   `json:"override"`
			DrlcLevel int    `json:"drlcLevel"`
		} `json:"value"`
	} `json:"drlcStatus"`
}
type DemandResponseStatus struct {
	Duration int
	Start    string
	Override bool
	Level    int
}

func (t *demandResponseStatus) Unmarshal() interface{} {
	return &DemandResponseStatus{
		Duration: t.DrlcStatus.Value.Duration,
		Start:    t.DrlcStatus.Value.Start,
		Override: t.DrlcStatus.Value.Override,
		Level:    t.DrlcStatus.Value.DrlcLevel,
	}
}

// The execute capability carries no useful attribute state; its presence
// unlocks the vendor option commands (display light, Comode presets).
type executeStatus struct{}
type ExecuteStatus struct{}

func (t *executeStatus) Unmarshal() interface{} {
	return &ExecuteStatus{}
}

type ocfStatus struct {
	Mnmo stringAttribute `json:"mnmo"`
	Mnmn stringAttribute `json:"mnmn"`
	Mnfv stringAttribute `json:"mnfv"`
}
type OcfStatus struct {
	ModelNumber     string
	Manufacturer    string
	FirmwareVersion string
}

func (t *ocfStatus) Unmarshal() interface{} {
	return &OcfStatus{
		ModelNumber:     t.Mnmo.Value,
		Manufacturer:    t.Mnmn.Value,
		FirmwareVersion: t.Mnfv.Value,
	}
}
