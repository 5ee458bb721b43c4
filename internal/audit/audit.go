package audit

import (
	"context"

	"github.com/eshen7/frc-marketplace/pkg/log"
)

// Audit actions for the realtime service.
const (
	ActionConnect       = "realtime.connect"
	ActionDisconnect    = "realtime.disconnect"
	ActionChatSubmit    = "realtime.chat_submit"
	ActionChatDuplicate = "realtime.chat_duplicate"
	ActionBroadcast     = "realtime.broadcast"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
	FieldDetail   = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, clientID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldClientID, clientID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, clientID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldClientID, clientID).
		Str(FieldDetail, detail).
		Msg(msg)
}
