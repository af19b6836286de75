package skillsync

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"

	"github.com/MrEthical07/skillsync/gateway"
	"github.com/MrEthical07/skillsync/internal/audit"
	"github.com/MrEthical07/skillsync/session"
	"github.com/MrEthical07/skillsync/tokenstore"
)

// AuditEvent is one session transition or account operation.
type AuditEvent = audit.Event

// AuditSink receives audit events from the Client's dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards events.
type NoOpSink = audit.NoOpSink

// ChannelSink delivers events on a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

var (
	NewChannelSink    = audit.NewChannelSink
	NewJSONWriterSink = audit.NewJSONWriterSink
)

const (
	auditEventBootstrap   = "session.bootstrap"
	auditEventReload      = "session.reload"
	auditEventLogin       = "session.login"
	auditEventLogout      = "session.logout"
	auditEventRegister    = "account.register"
	auditEventProfileSave = "account.profile_save"
	auditEventRotate      = "credentials.rotate"
)

// AuditErrorCode classifies a failure without leaking server text.
type AuditErrorCode string

const (
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrRejected           AuditErrorCode = "rejected"
	auditErrServer             AuditErrorCode = "server_error"
	auditErrTransport          AuditErrorCode = "transport"
	auditErrMalformed          AuditErrorCode = "malformed_response"
	auditErrSessionChanged     AuditErrorCode = "session_changed"
	auditErrNotAuthenticated   AuditErrorCode = "not_authenticated"
	auditErrRefreshUnavailable AuditErrorCode = "refresh_unavailable"
	auditErrStore              AuditErrorCode = "store_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (c *Client) emitAudit(ctx context.Context, eventType string, snap session.Snapshot, err error, metadataBuilder func() map[string]string) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:         uuid.NewString(),
		Timestamp:  c.clock.Now().UTC(),
		EventType:  eventType,
		State:      snap.State.String(),
		Generation: snap.Generation,
		Success:    err == nil,
		Metadata:   metadata,
	}
	if snap.Authenticated() {
		event.UserID = strconv.FormatInt(snap.User.ID, 10)
		event.Role = string(snap.User.Role)
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	if gwErr, ok := gateway.AsError(err); ok {
		switch {
		case gateway.IsUnauthorized(err):
			return auditErrUnauthorized
		case gwErr.Kind == gateway.KindServer && gwErr.Status < 500:
			return auditErrRejected
		case gwErr.Kind == gateway.KindServer:
			return auditErrServer
		default:
			return auditErrTransport
		}
	}

	switch {
	case errors.Is(err, ErrMalformedResponse):
		return auditErrMalformed
	case errors.Is(err, ErrSessionChanged):
		return auditErrSessionChanged
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, ErrRefreshUnavailable):
		return auditErrRefreshUnavailable
	case errors.Is(err, tokenstore.ErrUnavailable):
		return auditErrStore
	default:
		return auditErrInternal
	}
}
