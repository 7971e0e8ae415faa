package stapi

import "time"

// Device is a SmartThings device with its parsed main-component status
type Device struct {
	ID           string
	Label        string
	Manufacturer string
	Model        string
	Status       Status
}

// Command is one SmartThings device command invocation
type Command struct {
	Component  string        `json:"component"`
	Capability string        `json:"capability"`
	Command    string        `json:"command"`
	Arguments  []interface{} `json:"arguments,omitempty"`
}

type serviceArgsReader interface {
	Unmarshal(args []interface{}) error
	ToCommands(status Status) []Command
}

// SmartThings is the cloud API surface the bridge consumes
type SmartThings interface {
	WithAccessToken(token string) SmartThings
	WithTimeout(d time.Duration) SmartThings
	WithBaseURL(u string) SmartThings
	Devices() ([]Device, error)
	GetDevice(deviceID string) (*Device, error)
	DeviceOnline(deviceID string) (bool, error)
	ExecuteCommands(deviceID string, commands []Command) error
}
