package service

import (
	"context"
	"fmt"
	"net/http"
	neturl "net/url"
	"time"

	"golang.org/x/oauth2"
)

// SessionConfig configures the retry behaviour of a Session.
// It is passed explicitly to whoever builds a session, there is no process-wide default.
type SessionConfig struct {
	MaxRetries        int           // number of retries after the first attempt
	Backoff           time.Duration // initial backoff, doubled at each retry
	RetryableStatuses []int
	Token             string // optional bearer token
}

// DefaultSessionConfig returns the retry configuration used against the earth-search catalog
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxRetries:        5,
		Backoff:           100 * time.Millisecond,
		RetryableStatuses: []int{500, 502, 503, 504},
	}
}

// Session is a http.Client with a bounded retry policy, reused across the requests of one invocation.
// It is single-owner: a session must not be shared between concurrent invocations.
type Session struct {
	client *http.Client
	config SessionConfig
}

// NewSession creates a session from the given configuration
func NewSession(ctx context.Context, config SessionConfig) *Session {
	client := &http.Client{}
	if config.Token != "" {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token}))
	}
	return &Session{client: client, config: config}
}

func (s *Session) retryable(status int) bool {
	for _, rs := range s.config.RetryableStatuses {
		if status == rs {
			return true
		}
	}
	return false
}

// Get issues a GET request with the session retry policy.
// query is appended to the url (nil to request the url verbatim, e.g. a pagination link).
// The last response is returned as is when the status is not retryable or the retries are exhausted:
// it is up to the caller to check the status and to close the body.
func (s *Session) Get(ctx context.Context, url string, query neturl.Values) (*http.Response, error) {
	if query != nil {
		url += "?" + query.Encode()
	}

	var resp *http.Response
	var err error
	backoff := s.config.Backoff
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		var req *http.Request
		if req, err = http.NewRequestWithContext(ctx, "GET", url, nil); err != nil {
			return nil, fmt.Errorf("Get.NewRequest: %w", err)
		}
		if resp, err = s.client.Do(req); err != nil {
			continue
		}
		if s.retryable(resp.StatusCode) && attempt < s.config.MaxRetries {
			resp.Body.Close()
			continue
		}
		return resp, nil
	}
	return nil, MakeTemporary(fmt.Errorf("Get[%s]: %w", url, err))
}
