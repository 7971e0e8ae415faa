package stapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/mzeman/smartthings-windfree/internal/pkg/logging"
)

const defaultBaseURL = "https://api.smartthings.com/v1"

// Devices are filtered on this capability so only air conditioners are
// surfaced
const deviceFilterCapability = "airConditionerMode"

type Live struct {
	baseURL     string
	accessToken string
	timeout     time.Duration
}

func NewLiveClient() *Live {
	return &Live{
		baseURL: defaultBaseURL,
	}
}

func (c *Live) WithAccessToken(token string) SmartThings {
	nc := *c
	nc.accessToken = token
	return &nc
}

func (c *Live) WithTimeout(d time.Duration) SmartThings {
	nc := *c
	nc.timeout = d
	return &nc
}

func (c *Live) WithBaseURL(u string) SmartThings {
	nc := *c
	nc.baseURL = u
	return &nc
}

func (c *Live) httpClient(ctx context.Context) *http.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.accessToken})
	return oauth2.NewClient(ctx, ts)
}

func (c *Live) MakeContext() (context.Context, context.CancelFunc) {
	var ctx = context.Background()
	var cancel context.CancelFunc = func() {}
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.timeout)
	}

	return ctx, cancel
}

// Wire shapes of the SmartThings REST documents we consume
type deviceItem struct {
	DeviceID         string `json:"deviceId"`
	Name             string `json:"name"`
	Label            string `json:"label"`
	ManufacturerName string `json:"manufacturerName"`
	Ocf              struct {
		ModelNumber string `json:"modelNumber"`
	} `json:"ocf"`
}

type deviceListResponse struct {
	Items []deviceItem `json:"items"`
	Links struct {
		Next struct {
			Href string `json:"href"`
		} `json:"next"`
	} `json:"_links"`
}

type deviceStatusResponse struct {
	Components map[string]json.RawMessage `json:"components"`
}

type deviceHealthResponse struct {
	State string `json:"state"`
}

type commandsRequest struct {
	Commands []Command `json:"commands"`
}

type commandsResponse struct {
	Results []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"results"`
}

type apiErrorResponse struct {
	RequestID string `json:"requestId"`
	Error     struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Live) do(ctx context.Context, method, rawURL string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient(ctx).Do(req)
	if err != nil {
		return errors.Wrapf(err, "calling %s %s", method, rawURL)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrapf(err, "decoding %s response", rawURL)
		}
	}

	return nil
}

func (c *Live) Devices() ([]Device, error) {
	ctx, cancel := c.MakeContext()
	defer cancel()

	next := fmt.Sprintf("%s/devices?capability=%s", c.baseURL, url.QueryEscape(deviceFilterCapability))

	var items []Device
	for next != "" {
		var page deviceListResponse
		if err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, errors.Wrap(err, "listing devices")
		}

		for _, d := range page.Items {
			items = append(items, Device{
				ID:           d.DeviceID,
				Label:        d.Label,
				Manufacturer: d.ManufacturerName,
				Model:        d.Ocf.ModelNumber,
			})
		}

		next = page.Links.Next.Href
	}

	return items, nil
}

func (c *Live) GetDevice(deviceID string) (*Device, error) {
	ctx, cancel := c.MakeContext()
	defer cancel()

	var d deviceItem
	deviceURL := fmt.Sprintf("%s/devices/%s", c.baseURL, url.PathEscape(deviceID))
	if err := c.do(ctx, http.MethodGet, deviceURL, nil, &d); err != nil {
		return nil, errors.Wrap(err, "fetching device details")
	}

	var statusResp deviceStatusResponse
	statusURL := deviceURL + "/status"
	if err := c.do(ctx, http.MethodGet, statusURL, nil, &statusResp); err != nil {
		return nil, errors.Wrap(err, "fetching device status")
	}

	status := NewStatus()
	if component, ok := statusResp.Components[mainComponent]; ok {
		if err := status.Parse(component); err != nil {
			return nil, errors.Wrap(err, "parsing device status")
		}
	}

	item := &Device{
		ID:           d.DeviceID,
		Label:        d.Label,
		Manufacturer: d.ManufacturerName,
		Model:        d.Ocf.ModelNumber,
		Status:       status,
	}

	return item, nil
}

func (c *Live) DeviceOnline(deviceID string) (bool, error) {
	ctx, cancel := c.MakeContext()
	defer cancel()

	var health deviceHealthResponse
	healthURL := fmt.Sprintf("%s/devices/%s/health", c.baseURL, url.PathEscape(deviceID))
	if err := c.do(ctx, http.MethodGet, healthURL, nil, &health); err != nil {
		return false, errors.Wrap(err, "fetching device health")
	}

	return health.State == "ONLINE", nil
}

func (c *Live) ExecuteCommands(deviceID string, commands []Command) error {
	ctx, cancel := c.MakeContext()
	defer cancel()

	req := commandsRequest{Commands: commands}

	if b, err := json.Marshal(req); err == nil {
		logging.Logger(nil).Debugf("sending commands to device %s: %s", deviceID, b)
	}

	var resp commandsResponse
	commandsURL := fmt.Sprintf("%s/devices/%s/commands", c.baseURL, url.PathEscape(deviceID))
	if err := c.do(ctx, http.MethodPost, commandsURL, req, &resp); err != nil {
		return errors.Wrapf(err, "executing %d commands", len(commands))
	}

	for _, result := range resp.Results {
		switch result.Status {
		case "ACCEPTED", "COMPLETED", "":
		default:
			return fmt.Errorf("command %s not accepted: status %s", result.ID, result.Status)
		}
	}

	return nil
}
