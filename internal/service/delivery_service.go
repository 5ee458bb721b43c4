package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eshen7/frc-marketplace/internal/broker"
	"github.com/eshen7/frc-marketplace/internal/domain"
	"github.com/eshen7/frc-marketplace/internal/notify"
	"github.com/eshen7/frc-marketplace/internal/repository"
	"github.com/eshen7/frc-marketplace/pkg/log"
)

type deliveryService struct {
	broker     broker.Broker
	messages   repository.MessageRepository
	users      repository.UserRepository
	dispatcher notify.Dispatcher
}

func NewDeliveryService(
	b broker.Broker,
	messages repository.MessageRepository,
	users repository.UserRepository,
	dispatcher notify.Dispatcher,
) DeliveryService {
	return &deliveryService{
		broker:     b,
		messages:   messages,
		users:      users,
		dispatcher: dispatcher,
	}
}

func (s *deliveryService) SubmitChat(ctx context.Context, sub ChatSubmission) (*domain.Message, bool, error) {
	if sub.ID == "" || sub.Body == "" || sub.ReceiverTeam == 0 {
		return nil, false, fmt.Errorf("%w: id, message and receiver are required", domain.ErrValidation)
	}

	// Retried submission: hand back the prior result without touching the
	// store or the broker.
	if existing, err := s.messages.GetByID(ctx, sub.ID); err == nil {
		return existing, false, nil
	}

	receiver, err := s.users.GetByTeamNumber(ctx, sub.ReceiverTeam)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, false, fmt.Errorf("%w: receiver team %d", domain.ErrNotFound, sub.ReceiverTeam)
		}
		return nil, false, err
	}

	msg, created, err := s.messages.CreateIfAbsent(ctx, &domain.Message{
		ID:           sub.ID,
		SenderTeam:   sub.SenderTeam,
		ReceiverTeam: sub.ReceiverTeam,
		Body:         sub.Body,
	})
	if err != nil {
		// Durability failed; this is the one fatal path.
		return nil, false, fmt.Errorf("failed to persist message: %w", err)
	}
	if !created {
		// A concurrent submission won the race. Same outcome as the
		// early-return above.
		return msg, false, nil
	}

	event, err := domain.NewEvent(msg.ID, domain.KindChatMessage, domain.NewChatFrame(msg))
	if err != nil {
		s.logPublishFailure(ctx, err, msg.ID, domain.UserGroup(sub.ReceiverTeam))
		return msg, true, nil
	}

	// Receiver first, then echo to the sender's own group so their other
	// open tabs see the sent message. The write stands even if the broker
	// is down; reconnecting clients resynchronize by querying.
	s.publish(ctx, domain.UserGroup(sub.ReceiverTeam), event)
	s.publish(ctx, domain.UserGroup(sub.SenderTeam), event)

	if receiver.Email != "" && receiver.TeamNumber != sub.SenderTeam {
		s.dispatcher.Enqueue(notify.KindChatEmail, &notify.ChatEmailPayload{
			ToEmail:      receiver.Email,
			SenderTeam:   sub.SenderTeam,
			ReceiverTeam: sub.ReceiverTeam,
			MessageID:    msg.ID,
			Body:         msg.Body,
		})
	}

	return msg, true, nil
}

func (s *deliveryService) BroadcastDomainEvent(ctx context.Context, sub DomainEventSubmission) error {
	if sub.ID == "" || sub.Kind == "" {
		return fmt.Errorf("%w: event id and kind are required", domain.ErrValidation)
	}

	// Request notices are rewrapped under their kind so every receiver,
	// personal tabs included, gets a frame with a type discriminator;
	// update envelopes pass through unmodified. One event serves both
	// groups, so a session in both still forwards a single copy.
	event := &domain.Event{ID: sub.ID, Kind: sub.Kind, Payload: sub.Envelope}
	switch sub.Kind {
	case domain.KindNewRequest, domain.KindRequestFulfilled, domain.KindRequestReturned:
		payload, err := json.Marshal(&domain.RequestFrame{Type: sub.Kind, Request: sub.Envelope})
		if err != nil {
			return fmt.Errorf("failed to marshal request frame: %w", err)
		}
		event.Payload = payload
	}

	if sub.SubmitterTeam != 0 {
		s.publish(ctx, domain.UserGroup(sub.SubmitterTeam), event)
	}
	if sub.BroadcastKey != "" {
		s.publish(ctx, domain.EventGroup(sub.BroadcastKey), event)
	}
	return nil
}

// publish is best-effort: broker unavailability is logged and swallowed so
// it can never fail a caller whose write already succeeded.
func (s *deliveryService) publish(ctx context.Context, group string, event *domain.Event) {
	if err := s.broker.Publish(ctx, group, event); err != nil {
		s.logPublishFailure(ctx, err, event.ID, group)
	}
}

func (s *deliveryService) logPublishFailure(ctx context.Context, err error, eventID, group string) {
	l := log.Ctx(ctx)
	l.Error().Err(err).
		Str(log.FieldEventID, eventID).
		Str(log.FieldGroup, group).
		Msg("failed to broadcast event, record remains durable")
}
