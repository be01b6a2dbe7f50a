package provider

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/byteness/playauth/errors"
)

// DefaultRegistrationTries is the number of attempts made before the
// registration check gives up on a flaky backend.
const DefaultRegistrationTries = 3

// RegistrationChecker verifies that a game is known to the provider
// before the login page is opened. A confirmed 404 fails fast; other
// failures are treated as possibly transient and retried a bounded
// number of times.
type RegistrationChecker struct {
	// Client is the HTTP client used for the probe. If nil, a client
	// with a 10 second timeout is used.
	Client *http.Client

	// Endpoints selects the API root to probe.
	Endpoints Endpoints

	// MaxTries bounds the number of attempts. Zero means DefaultRegistrationTries.
	MaxTries int
}

// Check reports whether the game is registered. It returns false with a
// nil error when the provider confirms the game does not exist, and
// false with a REGISTRATION_CHECK_FAILED error when the provider could
// not be reached within the try budget.
func (c *RegistrationChecker) Check(ctx context.Context, gameID string) (bool, error) {
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	maxTries := c.MaxTries
	if maxTries <= 0 {
		maxTries = DefaultRegistrationTries
	}

	probeURL := c.Endpoints.registrationURL(gameID)

	var lastErr error
	for try := 0; try < maxTries; try++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodHead, probeURL, nil)
		if err != nil {
			return false, errors.New(errors.ErrCodeRegistrationCheck,
				fmt.Sprintf("building registration probe: %v", err),
				errors.GetSuggestion(errors.ErrCodeRegistrationCheck), err)
		}

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("Error while fetching the game: %s", err)
			lastErr = err
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return true, nil
		case resp.StatusCode == http.StatusNotFound:
			// Authoritative: the game is not registered.
			return false, nil
		default:
			log.Printf("Error while fetching the game: %d %s", resp.StatusCode, resp.Status)
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
	}

	return false, errors.WithContext(errors.New(errors.ErrCodeRegistrationCheck,
		fmt.Sprintf("registration check failed after %d tries: %v", maxTries, lastErr),
		errors.GetSuggestion(errors.ErrCodeRegistrationCheck), lastErr),
		"gameId", gameID)
}
