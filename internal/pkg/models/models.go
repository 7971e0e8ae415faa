// Package models contains the wire documents of the bridge REST surface.
//
// The models follow the layout of go-openapi generated code but are
// maintained by hand as the surface is small.
package models

import (
	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// DeviceSummary identifies one SmartThings device matched by discovery
type DeviceSummary struct {

	// device Id
	// Required: true
	DeviceID *string `json:"deviceId"`

	// label
	Label string `json:"label,omitempty"`

	// manufacturer
	Manufacturer string `json:"manufacturer,omitempty"`

	// model
	Model string `json:"model,omitempty"`
}

// Validate validates this device summary
func (m *DeviceSummary) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("deviceId", "body", m.DeviceID); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// Entity kinds exposed by the bridge
const (
	EntityKindClimate = "climate"
	EntityKindSwitch  = "switch"
	EntityKindLight   = "light"
	EntityKindNumber  = "number"
	EntityKindSelect  = "select"
)

var entityStateKindEnum = []interface{}{
	EntityKindClimate, EntityKindSwitch, EntityKindLight, EntityKindNumber, EntityKindSelect,
}

// EntityState is one attribute of one host entity
type EntityState struct {

	// entity
	// Required: true
	Entity *string `json:"entity"`

	// kind
	// Required: true
	Kind *string `json:"kind"`

	// attribute
	// Required: true
	Attribute *string `json:"attribute"`

	// value
	Value interface{} `json:"value,omitempty"`

	// unit
	Unit string `json:"unit,omitempty"`

	// timestamp, milliseconds since the epoch
	Timestamp *int64 `json:"timestamp,omitempty"`
}

// Validate validates this entity state
func (m *EntityState) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("entity", "body", m.Entity); err != nil {
		res = append(res, err)
	}

	if err := m.validateKind(formats); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("attribute", "body", m.Attribute); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *EntityState) validateKind(formats strfmt.Registry) error {
	if err := validate.Required("kind", "body", m.Kind); err != nil {
		return err
	}

	if err := validate.EnumCase("kind", "body", *m.Kind, entityStateKindEnum, true); err != nil {
		return err
	}

	return nil
}

// NewEntityState is a convenience constructor for projection code
func NewEntityState(entity, kind, attribute string, value interface{}) *EntityState {
	return &EntityState{
		Entity:    swag.String(entity),
		Kind:      swag.String(kind),
		Attribute: swag.String(attribute),
		Value:     value,
	}
}

// ServiceCall is one host-platform service invocation against an entity
type ServiceCall struct {

	// entity
	// Required: true
	Entity *string `json:"entity"`

	// service
	// Required: true
	Service *string `json:"service"`

	// arguments
	Arguments []interface{} `json:"arguments"`
}

// Validate validates this service call
func (m *ServiceCall) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("entity", "body", m.Entity); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("service", "body", m.Service); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ServiceCallRequest is the body of POST /devices/{id}/commands
type ServiceCallRequest struct {

	// calls
	// Required: true
	// Min Items: 1
	Calls []*ServiceCall `json:"calls"`
}

// Validate validates this service call request
func (m *ServiceCallRequest) Validate(formats strfmt.Registry) error {
	var res []error

	if err := m.validateCalls(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *ServiceCallRequest) validateCalls(formats strfmt.Registry) error {
	if err := validate.Required("calls", "body", m.Calls); err != nil {
		return err
	}

	if err := validate.MinItems("calls", "body", int64(len(m.Calls)), 1); err != nil {
		return err
	}

	for i := 0; i < len(m.Calls); i++ {
		if m.Calls[i] == nil {
			continue
		}

		if err := m.Calls[i].Validate(formats); err != nil {
			return err
		}
	}

	return nil
}

// Error enums reported in state documents
const (
	ErrorEnumDeviceUnavailable      = "DEVICE-UNAVAILABLE"
	ErrorEnumCapabilityNotSupported = "CAPABILITY-NOT-SUPPORTED"
	ErrorEnumResourceConstraint     = "RESOURCE-CONSTRAINT-VIOLATION"
	ErrorEnumTokenExpired           = "TOKEN-EXPIRED"
)

// ErrorBody describes a device-scoped or global failure
type ErrorBody struct {

	// error enum
	// Required: true
	ErrorEnum *string `json:"errorEnum"`

	// detail
	Detail string `json:"detail,omitempty"`
}

// Validate validates this error body
func (m *ErrorBody) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("errorEnum", "body", m.ErrorEnum); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// StateDocument is the per-device state report returned by the bridge and
// pushed by the poller
type StateDocument struct {

	// device Id
	// Required: true
	DeviceID *string `json:"deviceId"`

	// states
	States []*EntityState `json:"states"`

	// errors
	Errors []*ErrorBody `json:"errors,omitempty"`
}

// Validate validates this state document
func (m *StateDocument) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("deviceId", "body", m.DeviceID); err != nil {
		res = append(res, err)
	}

	for i := 0; i < len(m.States); i++ {
		if m.States[i] == nil {
			continue
		}

		if err := m.States[i].Validate(formats); err != nil {
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}
