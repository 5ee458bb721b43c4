package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/eshen7/frc-marketplace/internal/audit"
	"github.com/eshen7/frc-marketplace/internal/broker"
	"github.com/eshen7/frc-marketplace/internal/config"
	"github.com/eshen7/frc-marketplace/internal/domain"
	"github.com/eshen7/frc-marketplace/internal/hub"
	"github.com/eshen7/frc-marketplace/internal/service"
	"github.com/eshen7/frc-marketplace/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler owns the two connection-scoped WebSocket routes: a personal
// mailbox per team and a broadcast room per competition key.
type WSHandler struct {
	broker  broker.Broker
	service service.DeliveryService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(b broker.Broker, svc service.DeliveryService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		broker:  b,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/user/", h.HandleUserSocket)
	mux.HandleFunc("/ws/event/", h.HandleEventSocket)
}

// HandleUserSocket serves /ws/user/{team_number}/ and auto-joins the
// connection to exactly its personal group.
func (h *WSHandler) HandleUserSocket(w http.ResponseWriter, r *http.Request) {
	param := pathParam(r.URL.Path, "/ws/user/")
	team, err := strconv.Atoi(param)
	if err != nil || team <= 0 {
		http.Error(w, "invalid team number", http.StatusBadRequest)
		return
	}
	h.serve(w, r, connScope{team: team}, domain.UserGroup(team))
}

// HandleEventSocket serves /ws/event/{event_key}/ and auto-joins the
// connection to exactly its room group.
func (h *WSHandler) HandleEventSocket(w http.ResponseWriter, r *http.Request) {
	key := pathParam(r.URL.Path, "/ws/event/")
	if key == "" {
		http.Error(w, "invalid event key", http.StatusBadRequest)
		return
	}
	h.serve(w, r, connScope{roomKey: key}, domain.EventGroup(key))
}

// connScope records what the connection was addressed to at handshake
// time; it fills in fields the client may omit from frames.
type connScope struct {
	team    int
	roomKey string
}

func (h *WSHandler) serve(w http.ResponseWriter, r *http.Request, scope connScope, group string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.Ctx(r.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), conn, h.broker, h.wsCfg)
	client.Join(group)

	audit.LogWithDetail(r.Context(), audit.ActionConnect, client.ID(), group, "connection established")

	go client.WritePump()
	go func() {
		client.ReadPump(func(c *hub.Client, message []byte) {
			h.handleFrame(c, scope, message)
		})
		audit.LogWithDetail(context.Background(), audit.ActionDisconnect, client.ID(), group, "connection closed")
	}()
}

func (h *WSHandler) handleFrame(client *hub.Client, scope connScope, message []byte) {
	l := log.L()

	var base domain.BaseFrame
	if err := json.Unmarshal(message, &base); err != nil {
		// Malformed payloads are dropped, never fatal to the session.
		l.Warn().Err(err).Str(log.FieldClientID, client.ID()).Msg("dropping malformed frame")
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.KindChatMessage:
		h.handleChat(ctx, client, scope, message)

	case domain.KindNewRequest, domain.KindRequestFulfilled, domain.KindRequestReturned:
		h.handleRequestNotice(ctx, client, scope, base.Type, message)

	case domain.KindEventUpdate:
		h.handleEventUpdate(ctx, client, scope, message)

	case domain.KindPing:
		client.Send(mustMarshal(map[string]string{"type": domain.KindPong}))

	default:
		// Unknown kinds are ignored to tolerate protocol evolution.
		l.Debug().Str("type", base.Type).Str(log.FieldClientID, client.ID()).Msg("ignoring unknown frame type")
	}
}

func (h *WSHandler) handleChat(ctx context.Context, client *hub.Client, scope connScope, message []byte) {
	l := log.L()

	var frame domain.ChatFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		l.Warn().Err(err).Str(log.FieldClientID, client.ID()).Msg("dropping malformed chat frame")
		return
	}
	if frame.Sender == 0 {
		frame.Sender = scope.team
	}

	msg, created, err := h.service.SubmitChat(ctx, service.ChatSubmission{
		ID:           frame.ID,
		SenderTeam:   frame.Sender,
		ReceiverTeam: frame.Receiver,
		Body:         frame.Message,
	})
	if err != nil {
		h.sendSubmissionError(client, err)
		return
	}

	if !created {
		// Duplicate idempotency key: hand the prior result straight back
		// to the submitter; nothing was written or published.
		audit.LogWithDetail(ctx, audit.ActionChatDuplicate, client.ID(), msg.ID, "duplicate chat submission")
		client.Send(mustMarshal(domain.NewChatFrame(msg)))
		return
	}

	audit.LogWithDetail(ctx, audit.ActionChatSubmit, client.ID(), msg.ID, "chat message delivered")
}

// requestRecord is the loose shape of the opaque domain payload: only the
// stable identifier, submitter and broadcast key are interpreted here.
type requestRecord struct {
	ID       string          `json:"id"`
	UUID     string          `json:"uuid"`
	EventKey string          `json:"event_key"`
	User     json.RawMessage `json:"user"`
}

func (rec *requestRecord) recordID() string {
	if rec.ID != "" {
		return rec.ID
	}
	return rec.UUID
}

// submitterTeam tolerates both a bare team number and a nested user object.
func (rec *requestRecord) submitterTeam() int {
	if len(rec.User) == 0 {
		return 0
	}
	var team int
	if err := json.Unmarshal(rec.User, &team); err == nil {
		return team
	}
	var obj struct {
		TeamNumber int `json:"team_number"`
	}
	if err := json.Unmarshal(rec.User, &obj); err == nil {
		return obj.TeamNumber
	}
	return 0
}

func (h *WSHandler) handleRequestNotice(ctx context.Context, client *hub.Client, scope connScope, kind string, message []byte) {
	l := log.L()

	var frame struct {
		Request json.RawMessage `json:"request"`
	}
	if err := json.Unmarshal(message, &frame); err != nil || len(frame.Request) == 0 {
		l.Warn().Str(log.FieldClientID, client.ID()).Msg("dropping request notice without payload")
		return
	}

	var rec requestRecord
	if err := json.Unmarshal(frame.Request, &rec); err != nil {
		l.Warn().Err(err).Str(log.FieldClientID, client.ID()).Msg("dropping malformed request notice")
		return
	}

	broadcastKey := rec.EventKey
	if broadcastKey == "" {
		broadcastKey = scope.roomKey
	}
	submitter := rec.submitterTeam()
	if submitter == 0 {
		submitter = scope.team
	}

	err := h.service.BroadcastDomainEvent(ctx, service.DomainEventSubmission{
		Kind:          kind,
		ID:            rec.recordID(),
		SubmitterTeam: submitter,
		BroadcastKey:  broadcastKey,
		Envelope:      frame.Request,
	})
	if err != nil {
		h.sendSubmissionError(client, err)
		return
	}

	audit.LogWithDetail(ctx, audit.ActionBroadcast, client.ID(), kind, "domain event broadcast")
}

func (h *WSHandler) handleEventUpdate(ctx context.Context, client *hub.Client, scope connScope, message []byte) {
	l := log.L()

	var rec requestRecord
	if err := json.Unmarshal(message, &rec); err != nil {
		l.Warn().Err(err).Str(log.FieldClientID, client.ID()).Msg("dropping malformed event update")
		return
	}

	broadcastKey := rec.EventKey
	if broadcastKey == "" {
		broadcastKey = scope.roomKey
	}
	submitter := rec.submitterTeam()
	if submitter == 0 {
		submitter = scope.team
	}

	// Event updates pass the submitted envelope through unmodified.
	err := h.service.BroadcastDomainEvent(ctx, service.DomainEventSubmission{
		Kind:          domain.KindEventUpdate,
		ID:            rec.recordID(),
		SubmitterTeam: submitter,
		BroadcastKey:  broadcastKey,
		Envelope:      json.RawMessage(message),
	})
	if err != nil {
		h.sendSubmissionError(client, err)
		return
	}

	audit.LogWithDetail(ctx, audit.ActionBroadcast, client.ID(), domain.KindEventUpdate, "event update broadcast")
}

func (h *WSHandler) sendSubmissionError(client *hub.Client, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		client.Send(mustMarshal(domain.NewErrorFrame(domain.ErrCodeBadRequest, err.Error())))
	case errors.Is(err, domain.ErrNotFound):
		client.Send(mustMarshal(domain.NewErrorFrame(domain.ErrCodeNotFound, err.Error())))
	default:
		l := log.L()
		l.Error().Err(err).Str(log.FieldClientID, client.ID()).Msg("submission failed")
		client.Send(mustMarshal(domain.NewErrorFrame(domain.ErrCodeInternalError, "failed to process submission")))
	}
}

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// All frame types marshal by construction.
		panic(err)
	}
	return data
}

func pathParam(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}
