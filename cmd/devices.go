package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mzeman/smartthings-windfree/internal/pkg/stapi"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stoauth"
)

var _devicesCmdOpts struct {
	smartthingsClientsecret string
	oauthStateFile          string
	smartthingsTimeout      time.Duration
	asJSON                  bool
	withStates              bool
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List matched air conditioner devices",

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doDevices(); err != nil {
			return err
		}

		return nil
	},

	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkRequiredFlags("smartthings.client-secret", "smartthings.oauth-param-file")
	},
}

func init() {
	devicesCmd.Flags().DurationVar(&_devicesCmdOpts.smartthingsTimeout, "smartthings-timeout", time.Second*15, "maximum duration of a SmartThings API call, eg. 1m or 10s")
	devicesCmd.Flags().StringVar(&_devicesCmdOpts.oauthStateFile, "oauth-state-file", "", "File holding the oauth token state")
	devicesCmd.Flags().StringVar(&_devicesCmdOpts.smartthingsClientsecret, "smartthings-clientsecret", "", "oauth Client Secret from the SmartThings app registration")
	devicesCmd.Flags().BoolVar(&_devicesCmdOpts.asJSON, "json", false, "Return device list as JSON")
	devicesCmd.Flags().BoolVar(&_devicesCmdOpts.withStates, "states", false, "Include projected entity states")

	errPanic(viper.GetViper().BindPFlag("smartthings.api-timeout", devicesCmd.Flags().Lookup("smartthings-timeout")))
	errPanic(viper.GetViper().BindPFlag("smartthings.oauth-param-file", devicesCmd.Flags().Lookup("oauth-state-file")))
	errPanic(viper.GetViper().BindPFlag("smartthings.client-secret", devicesCmd.Flags().Lookup("smartthings-clientsecret")))
	errPanic(viper.GetViper().BindPFlag("devices.json", devicesCmd.Flags().Lookup("json")))
	errPanic(viper.GetViper().BindPFlag("devices.states", devicesCmd.Flags().Lookup("states")))

	rootCmd.AddCommand(devicesCmd)
}

type deviceResult struct {
	DeviceID     string      `json:"deviceId"`
	Label        string      `json:"label,omitempty"`
	Manufacturer string      `json:"manufacturer,omitempty"`
	Model        string      `json:"model,omitempty"`
	States       interface{} `json:"states,omitempty"`
}

func doDevices() error {
	apiTimeout := viper.GetDuration("smartthings.api-timeout")
	oauthFile := viper.GetString("smartthings.oauth-param-file")
	clientSecret := viper.GetString("smartthings.client-secret")

	tokenState := stoauth.NewState().WithClientSecret(clientSecret)
	if err := tokenState.Load(oauthFile); err != nil {
		return err
	}

	token, err := tokenState.GetAccessToken()
	if err != nil {
		return err
	}

	c := stapi.NewLiveClient().WithTimeout(apiTimeout).WithAccessToken(token)

	devices, err := c.Devices()
	if err != nil {
		return err
	}

	results := make([]deviceResult, 0, len(devices))
	for _, device := range devices {
		result := deviceResult{
			DeviceID:     device.ID,
			Label:        device.Label,
			Manufacturer: device.Manufacturer,
			Model:        device.Model,
		}

		if viper.GetBool("devices.states") {
			stDevice, err := c.GetDevice(device.ID)
			if err != nil {
				return err
			}
			result.States = stapi.ProjectEntityStates(stDevice.Status)
		}

		results = append(results, result)
	}

	if viper.GetBool("devices.json") {
		b, err := json.MarshalIndent(results, "", "    ")
		if err != nil {
			return err
		}

		fmt.Println(string(b))
		return nil
	}

	for _, result := range results {
		fmt.Printf("%s  %s (%s %s)\n", result.DeviceID, result.Label, result.Manufacturer, result.Model)
		if result.States != nil {
			b, err := json.MarshalIndent(result.States, "  ", "    ")
			if err != nil {
				return err
			}
			fmt.Printf("  %s\n", b)
		}
	}

	return nil
}
