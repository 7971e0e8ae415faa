package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/korovkin/limiter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mzeman/smartthings-windfree/internal/pkg/logging"
	"github.com/mzeman/smartthings-windfree/internal/pkg/models"
	"github.com/mzeman/smartthings-windfree/internal/pkg/poller"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stapi"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stoauth"
)

var _pollCmdOpts struct {
	smartthingsClientsecret string
	smartthingsTimeout      time.Duration
	oauthStateFile          string
	callbackURL             string
	pollInterval            time.Duration
	logStates               bool
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run the state change poller",

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doPoll(); err != nil {
			return err
		}

		return nil
	},

	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkRequiredFlags("smartthings.client-secret",
			"smartthings.oauth-param-file", "poller.callback-url")
	},
}

func init() {
	pollCmd.Flags().DurationVar(&_pollCmdOpts.smartthingsTimeout, "smartthings-timeout", time.Second*15, "maximum duration of a SmartThings API call, eg. 1m or 10s")
	pollCmd.Flags().StringVar(&_pollCmdOpts.oauthStateFile, "oauth-state-file", "", "File holding the oauth token state")
	pollCmd.Flags().StringVar(&_pollCmdOpts.smartthingsClientsecret, "smartthings-clientsecret", "", "oauth Client Secret from the SmartThings app registration")
	pollCmd.Flags().StringVar(&_pollCmdOpts.callbackURL, "callback-url", "", "URL that receives state documents for changed devices")
	pollCmd.Flags().DurationVar(&_pollCmdOpts.pollInterval, "poll-interval", time.Second*30, "delay between polls of the SmartThings API, eg. 1m or 10s")
	pollCmd.Flags().BoolVar(&_pollCmdOpts.logStates, "log-states", false, "log polled device states (only in debug mode)")

	errPanic(viper.GetViper().BindPFlag("smartthings.api-timeout", pollCmd.Flags().Lookup("smartthings-timeout")))
	errPanic(viper.GetViper().BindPFlag("smartthings.oauth-param-file", pollCmd.Flags().Lookup("oauth-state-file")))
	errPanic(viper.GetViper().BindPFlag("smartthings.client-secret", pollCmd.Flags().Lookup("smartthings-clientsecret")))
	errPanic(viper.GetViper().BindPFlag("poller.callback-url", pollCmd.Flags().Lookup("callback-url")))
	errPanic(viper.GetViper().BindPFlag("poller.interval", pollCmd.Flags().Lookup("poll-interval")))
	errPanic(viper.GetViper().BindPFlag("logging.log-states", pollCmd.Flags().Lookup("log-states")))

	rootCmd.AddCommand(pollCmd)
}

func pullLoop(p poller.Poller, ctx context.Context, interval time.Duration, c chan poller.StateEvent) {
	defer close(c)

	p = p.WithContext(ctx)

	for {
		logging.Logger(nil).Debug("poll-loop: polling for state changes")
		events, err := p.Pull()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logging.Logger(nil).Infof("poll-loop: shutting down")
				return
			}

			logging.Logger(nil).WithError(err).Errorf("poll-loop: polling devices, sleeping 5s")

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second * 5):
			}
			continue
		}

		for _, event := range events {
			// Catch shutdown messages and don't block waiting for a publisher if they are busy
			select {
			case <-ctx.Done():
				return
			case c <- event:
			}
		}

		select {
		case <-ctx.Done():
			logging.Logger(nil).Infof("poll-loop: shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func publishLoop(maxConcurrent int, p poller.Poller, callbackURL string, c chan poller.StateEvent) {
	limit := limiter.NewConcurrencyLimiter(maxConcurrent)

	for event := range c {
		event := event
		limit.ExecuteWithTicket(func(ticket int) {
			publishEvent(ticket, p, callbackURL, event)
		})
	}

	logging.Logger(nil).Info("publish-loop: shutting down")
	if err := limit.WaitAndClose(); err != nil {
		logging.Logger(nil).WithError(err).Error("draining publish limiter")
	}
	logging.Logger(nil).Info("publish-loop: done")
}

func makeStateDocument(event poller.StateEvent) models.StateDocument {
	deviceID := event.DeviceID
	timestampMillis := event.Timestamp.UnixNano() / 1000000

	for _, s := range event.States {
		s.Timestamp = &timestampMillis
	}

	return models.StateDocument{
		DeviceID: &deviceID,
		States:   event.States,
	}
}

func executeStateCallback(callbackURL string, doc models.StateDocument) error {
	reqBody, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encoding state document")
	}

	logging.Logger(nil).Debugf("Sending state document to URL [%s]: %s", callbackURL, reqBody)

	resp, err := http.Post(callbackURL, "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return errors.Wrap(err, "executing state callback")
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return errors.Errorf("non-200/204 code from state callback URL: %d (%s): %s", resp.StatusCode, resp.Status, bodyBytes)
	}

	return nil
}

func publishEvent(ticket int, p poller.Poller, callbackURL string, event poller.StateEvent) {
	logging.Logger(nil).Debugf("publish-goroutine %d: got %+v", ticket, event)

	doc := makeStateDocument(event)

	// Events are only acked once delivered, a failed push is retried
	// on the next poll
	if err := executeStateCallback(callbackURL, doc); err == nil {
		if err := p.AckEvents([]string{event.DeviceID}); err != nil {
			logging.Logger(nil).WithError(err).Error("acknowledging event")
		}
	} else {
		logging.Logger(nil).WithError(err).Error("executing state callback")
	}

	logging.Logger(nil).Debugf("publish-goroutine %d: done", ticket)
}

func doPoll() error {
	apiTimeout := viper.GetDuration("smartthings.api-timeout")
	oauthFile := viper.GetString("smartthings.oauth-param-file")
	clientSecret := viper.GetString("smartthings.client-secret")
	callbackURL := viper.GetString("poller.callback-url")
	interval := viper.GetDuration("poller.interval")

	var logStates bool
	if viper.GetBool("logging.log-states") {
		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			logStates = true
		} else {
			logging.Logger(nil).Warn("log-states ignored when not in debug mode")
		}
	}

	// load oauth data that should have been written by the web service
	tokenState := stoauth.NewState().WithClientSecret(clientSecret)
	if err := tokenState.Load(oauthFile); err != nil {
		return err
	}

	p := poller.NewLivePoller(stapi.NewLiveClient(), &tokenState).WithTimeout(apiTimeout)
	if logStates {
		p = p.(*poller.Live).WithLogStates()
	}

	// context to allow us to stop the request loops
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wait group for request loops
	var wg sync.WaitGroup

	// comms between pull and publish loops
	eventChan := make(chan poller.StateEvent)

	// Run the publish loop in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		publishLoop(10, p, callbackURL, eventChan)
	}()

	// Run the poll loop in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		pullLoop(p, ctx, interval, eventChan)
	}()

	// ctrl-c handler
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Block until we receive a signal
	<-c
	logging.Logger(nil).Info("main: shutting down")

	// cancel the request loop context
	cancel()

	// Wait for processing to end
	wg.Wait()

	logging.Logger(nil).Info("main: exiting")
	return nil
}
