package skillsync

import (
	"errors"

	"github.com/MrEthical07/skillsync/gateway"
	"github.com/MrEthical07/skillsync/session"
)

var (
	// ErrClientNotReady is returned when a Client was not built by Builder.Build.
	ErrClientNotReady = errors.New("client not ready")
	// ErrBuilderUsed is returned by a second Build on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrNotAuthenticated is returned by operations that need a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrRefreshUnavailable is returned when no refresh exchange can be made:
	// refresh is disabled, no exchanger is configured, or no refresh token is stored.
	ErrRefreshUnavailable = errors.New("refresh unavailable")
	// ErrMalformedResponse is returned when the API answered with a success
	// status but the body lacks a field the client needs.
	ErrMalformedResponse = errors.New("malformed api response")
	// ErrSessionChanged is returned when the session was replaced (login or
	// logout) while the operation was in flight; its result was discarded.
	ErrSessionChanged = errors.New("session changed during operation")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// UserMessage returns the text to show a user for err: the normalized server
// message for API failures, gateway.DefaultMessage otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if gwErr, ok := gateway.AsError(err); ok {
		return gwErr.Error()
	}
	return gateway.DefaultMessage
}

func mapSessionError(err error) error {
	if errors.Is(err, session.ErrStaleGeneration) {
		return ErrSessionChanged
	}
	return err
}
