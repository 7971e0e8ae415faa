package stoauth

import (
	"fmt"
	"time"
)

// GetAccessToken returns a usable access token, refreshing and re-saving
// the state file when the cached one is about to expire.  Safe for
// concurrent use: callers racing an expired token run one refresh between
// them and all get the new token.
func (s *State) GetAccessToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Do we have an existing unexpired token ?
	if s.accessToken != "" && (s.accessTokenExpiry != time.Time{}) {
		if s.accessTokenExpiry.After(time.Now().Add(s.MinAccessTokenValidity)) {
			return s.accessToken, nil
		}
	}

	// No, let's refresh
	if s.refreshToken == "" {
		return "", fmt.Errorf("access token expired or missing, and no refresh token found - call AuthCodeFlow() to populate")
	}

	if err := s.refreshTokenFlow(); err != nil {
		return "", err
	}

	s.save()
	return s.accessToken, nil
}
