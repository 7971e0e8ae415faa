package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mzeman/smartthings-windfree/internal/pkg/logging"
	"github.com/mzeman/smartthings-windfree/internal/pkg/stoauth"
)

/*
 * oauthHandler bootstraps the SmartThings OAuth2 session.  The authorize
 * endpoint redirects the caller to the SmartThings authorization page,
 * adding the response_type and scope query string values that the cloud
 * requires but some callers omit.  The callback endpoint receives the
 * authorization code and exchanges it for a token pair which is saved
 * for reuse by the API handlers and the poller.
 */

type oauthHandler struct {
	oauthState     *stoauth.State
	oauthStateFile string
}

func NewOauthHandler(oauthState *stoauth.State, oauthStateFile string) oauthHandler {
	return oauthHandler{
		oauthState:     oauthState,
		oauthStateFile: oauthStateFile,
	}
}

// RegisterRoutes attaches the oauth endpoints to the router
func (h *oauthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/oauth/authorize", h.HandleAuthorize).Methods(http.MethodGet)
	r.HandleFunc("/oauth/callback", h.HandleCallback).Methods(http.MethodGet)
}

func (h *oauthHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {

	// Copy of the request URL (so we don't modify the original)
	u := *r.URL

	// Set required query parameters
	queryValues := u.Query()
	queryValues.Set("response_type", "code")
	queryValues.Set("client_id", h.oauthState.ClientID)
	if queryValues.Get("scope") == "" && h.oauthState.Scope != "" {
		queryValues.Set("scope", h.oauthState.Scope)
	}
	u.RawQuery = queryValues.Encode()

	// Set the URI path
	u.Scheme = "https"
	u.Host = "api.smartthings.com"
	u.Path = "/oauth/authorize"

	http.Redirect(w, r, u.String(), http.StatusFound)
}

func (h *oauthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logging.Logger(r.Context())

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	// Make an authorization-code grant request to get an access/refresh token
	if err := h.oauthState.AuthCodeFlow(code); err != nil {
		ctxLogger.WithError(err).Error("fetching tokens from smartthings")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctxLogger.Infof("Smartthings oauth state: %v", h.oauthState)

	// Save state for future uses..
	if err := h.oauthState.Save(h.oauthStateFile); err != nil {
		ctxLogger.WithError(err).Error("saving oauth state")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("Authorization complete, tokens saved.\n"))
}
