package stoauth

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mzeman/smartthings-windfree/internal/pkg/logging"
)

// DefaultTokenURL is the global SmartThings OAuth2 token endpoint
const DefaultTokenURL = "https://auth-global.api.smartthings.com/oauth/token"

const defaultMinAccessTokenValidity = time.Second * 60

// State carries the reusable OAuth2 session for the SmartThings API.  It
// holds no issuance logic of its own: tokens come from the standard
// authorization-code and refresh-token grants.
type State struct {
	ClientID               string
	Scope                  string
	TokenURL               string
	MinAccessTokenValidity time.Duration

	// non-exported
	clientSecret      string
	accessToken       string
	accessTokenExpiry time.Time
	refreshToken      string
	ctx               context.Context
	fileName          string

	// Guards the token fields and the state file.  A pointer so the
	// copy-on-write With* methods share one lock across copies.
	mu *sync.Mutex
}

// Version of state that we marshal/unmarshal
type stateMarshal struct {
	ClientID          string    `json:"client-id"`
	Scope             string    `json:"scope"`
	TokenURL          string    `json:"token-url"`
	AccessToken       string    `json:"access-token"`
	AccessTokenExpiry time.Time `json:"access-token-expiry"`
	RefreshToken      string    `json:"refresh-token"`
}

func hashOf(s string) string {
	sum := sha1.Sum([]byte(s))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// obfuscate tokens/secrets when stringified
func (s State) String() string {
	return fmt.Sprintf("ClientID [%s], clientSecret [%s], Scope [%s]  TokenURL [%s]  accessToken: [%s]  accessTokenExpiry [%s]  refreshToken [%s]",
		s.ClientID, hashOf(s.clientSecret), s.Scope, s.TokenURL,
		hashOf(s.accessToken), s.accessTokenExpiry, hashOf(s.refreshToken))
}

func NewState() State {
	return State{
		ctx:                    context.Background(),
		TokenURL:               DefaultTokenURL,
		MinAccessTokenValidity: defaultMinAccessTokenValidity,
		mu:                     &sync.Mutex{},
	}
}

func (s State) WithContext(ctx context.Context) State {
	s.ctx = ctx
	return s
}

func (s State) WithClientSecret(secret string) State {
	s.clientSecret = secret
	return s
}

func (s *State) Save(fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveTo(fileName)
}

func (s *State) saveTo(fileName string) error {
	sm := stateMarshal{
		ClientID:          s.ClientID,
		Scope:             s.Scope,
		TokenURL:          s.TokenURL,
		AccessToken:       s.accessToken,
		AccessTokenExpiry: s.accessTokenExpiry,
		RefreshToken:      s.refreshToken,
	}

	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrapf(err, "opening oauth state %s for write", fileName)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(sm); err != nil {
		return errors.Wrapf(err, "saving oauth state to %s", fileName)
	}

	// Store for future refresh-triggered saves
	s.fileName = fileName
	return nil
}

// save re-saves to the stored file name.  Callers hold s.mu.
func (s *State) save() error {
	if s.fileName != "" {
		return s.saveTo(s.fileName)
	}

	logging.Logger(s.ctx).Warn("cannot save oauth state, no file name available")
	return nil
}

func (s *State) Load(fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sm := stateMarshal{}

	file, err := os.Open(fileName)
	if err != nil {
		return errors.Wrapf(err, "opening oauth state %s for read", fileName)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&sm); err != nil {
		return errors.Wrapf(err, "loading oauth state from %s", fileName)
	}

	s.ClientID = sm.ClientID
	s.Scope = sm.Scope
	if sm.TokenURL != "" {
		s.TokenURL = sm.TokenURL
	}
	s.accessToken = sm.AccessToken
	s.accessTokenExpiry = sm.AccessTokenExpiry
	s.refreshToken = sm.RefreshToken

	s.fileName = fileName

	return nil
}
