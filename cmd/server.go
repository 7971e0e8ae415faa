package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mzeman/smartthings-windfree/internal/pkg/handlers"
	"github.com/mzeman/smartthings-windfree/internal/pkg/logging"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stapi"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stoauth"
	"github.com/mzeman/smartthings-windfree/pkg/middlewares"
)

var _serverCmdOpts struct {
	httpPort                uint16
	tlsCertPath             string
	tlsKeyPath              string
	oauthStateFile          string
	smartthingsClientid     string
	smartthingsClientsecret string
	gracefulTimeout         time.Duration
	readTimeout             time.Duration
	writeTimeout            time.Duration
	stapiTimeout            time.Duration
	logRequests             bool
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the bridge web server",

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doServer(); err != nil {
			return err
		}

		return nil
	},

	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkRequiredFlags("smartthings.oauth-param-file", "smartthings.client-secret")
	},
}

func init() {
	serverCmd.Flags().Uint16Var(&_serverCmdOpts.httpPort, "port", 4380, "HTTP port number")
	serverCmd.Flags().StringVar(&_serverCmdOpts.tlsCertPath, "tls-cert", "", "TLS certificate file (plain HTTP when unset)")
	serverCmd.Flags().StringVar(&_serverCmdOpts.tlsKeyPath, "tls-key", "", "TLS key file")
	serverCmd.Flags().DurationVar(&_serverCmdOpts.gracefulTimeout, "graceful-timeout", time.Second*15, "duration to wait for server to finish, eg. 1m or 10s")
	serverCmd.Flags().DurationVar(&_serverCmdOpts.readTimeout, "read-timeout", time.Second*15, "duration to wait for request read, eg. 1m or 10s")
	serverCmd.Flags().DurationVar(&_serverCmdOpts.writeTimeout, "write-timeout", time.Second*60, "duration to wait for request write, eg. 1m or 10s")
	serverCmd.Flags().DurationVar(&_serverCmdOpts.stapiTimeout, "smartthings-timeout", time.Second*15, "maximum duration of a SmartThings API call, eg. 1m or 10s")
	serverCmd.Flags().BoolVar(&_serverCmdOpts.logRequests, "log-requests", false, "log requests and responses (only in debug mode)")
	serverCmd.Flags().StringVar(&_serverCmdOpts.oauthStateFile, "oauth-state-file", "", "File holding the oauth token state")
	serverCmd.Flags().StringVar(&_serverCmdOpts.smartthingsClientid, "smartthings-clientid", "", "oauth Client ID from the SmartThings app registration")
	serverCmd.Flags().StringVar(&_serverCmdOpts.smartthingsClientsecret, "smartthings-clientsecret", "", "oauth Client Secret from the SmartThings app registration")

	errPanic(viper.GetViper().BindPFlag("http.port", serverCmd.Flags().Lookup("port")))
	errPanic(viper.GetViper().BindPFlag("http.cert", serverCmd.Flags().Lookup("tls-cert")))
	errPanic(viper.GetViper().BindPFlag("http.key", serverCmd.Flags().Lookup("tls-key")))
	errPanic(viper.GetViper().BindPFlag("http.graceful-timeout", serverCmd.Flags().Lookup("graceful-timeout")))
	errPanic(viper.GetViper().BindPFlag("http.read-timeout", serverCmd.Flags().Lookup("read-timeout")))
	errPanic(viper.GetViper().BindPFlag("http.write-timeout", serverCmd.Flags().Lookup("write-timeout")))
	errPanic(viper.GetViper().BindPFlag("smartthings.api-timeout", serverCmd.Flags().Lookup("smartthings-timeout")))
	errPanic(viper.GetViper().BindPFlag("logging.log-requests", serverCmd.Flags().Lookup("log-requests")))
	errPanic(viper.GetViper().BindPFlag("smartthings.oauth-param-file", serverCmd.Flags().Lookup("oauth-state-file")))
	errPanic(viper.GetViper().BindPFlag("smartthings.client-id", serverCmd.Flags().Lookup("smartthings-clientid")))
	errPanic(viper.GetViper().BindPFlag("smartthings.client-secret", serverCmd.Flags().Lookup("smartthings-clientsecret")))

	rootCmd.AddCommand(serverCmd)
}

// loadOauthState reads the saved token state, falling back to a fresh
// state primed from config when the file does not exist yet
func loadOauthState(oauthFile, clientID, clientSecret string) *stoauth.State {
	state := stoauth.NewState().WithClientSecret(clientSecret)

	if err := state.Load(oauthFile); err != nil {
		logging.Logger(nil).WithError(err).Warn("no saved oauth state, authorization required")
		state.ClientID = clientID
	}

	return &state
}

func corsOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: viper.GetStringSlice("http.cors-origins"),
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Correlation-ID"},
	}
}

func doServer() error {
	wait := viper.GetDuration("http.graceful-timeout")
	port := viper.GetUint("http.port")
	certFile := viper.GetString("http.cert")
	keyFile := viper.GetString("http.key")
	apiTimeout := viper.GetDuration("smartthings.api-timeout")
	oauthFile := viper.GetString("smartthings.oauth-param-file")
	stClientID := viper.GetString("smartthings.client-id")
	stClientSecret := viper.GetString("smartthings.client-secret")

	var logRequests bool
	if viper.GetBool("logging.log-requests") {
		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			logRequests = true
		} else {
			logging.Logger(nil).Warn("log-requests ignored when not in debug mode")
		}
	}

	oauthState := loadOauthState(oauthFile, stClientID, stClientSecret)

	wh := handlers.NewWindFreeHandler(stapi.NewLiveClient().WithTimeout(apiTimeout), oauthState)
	oh := handlers.NewOauthHandler(oauthState, oauthFile)

	r := mux.NewRouter()
	r.Use(middlewares.NewCorsMw(corsOptions()))
	r.Use(middlewares.NewLoggingMw(logRequests))
	r.Use(middlewares.NewRecoveryMw())
	r.Use(middlewares.NewCorrelationMw("X-Correlation-ID"))
	wh.RegisterRoutes(r)
	oh.RegisterRoutes(r)
	r.PathPrefix("/").Handler(http.DefaultServeMux)

	s := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		ReadTimeout:  viper.GetDuration("http.read-timeout"),
		WriteTimeout: viper.GetDuration("http.write-timeout"),
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}

	logging.Logger(nil).Infof("Serving on port %d", port)
	go func() {
		var err error
		if certFile != "" && keyFile != "" {
			err = s.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = s.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			logging.Logger(nil).WithError(err).Error("running server")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Block until we receive a signal
	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	logging.Logger(nil).Info("shutting down")
	if err := s.Shutdown(ctx); err != nil {
		logging.Logger(nil).WithError(err).Errorf("shutting down")
	}
	logging.Logger(nil).Info("exiting")
	return nil
}
