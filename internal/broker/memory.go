package broker

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/eshen7/frc-marketplace/internal/domain"
	"github.com/eshen7/frc-marketplace/pkg/log"
)

// Memory is the in-process Broker for single-instance deployments.
// Membership is a mutex-guarded group -> subscriberID -> subscriber map;
// Publish fans out concurrently over a snapshot taken at call time, so
// subscribers joining mid-publish do not receive the event.
type Memory struct {
	mu     sync.RWMutex
	groups map[string]map[string]Subscriber
}

func NewMemory() *Memory {
	return &Memory{
		groups: make(map[string]map[string]Subscriber),
	}
}

func (b *Memory) Join(group string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	members, ok := b.groups[group]
	if !ok {
		members = make(map[string]Subscriber)
		b.groups[group] = members
	}
	members[sub.ID()] = sub

	l := log.L()
	l.Debug().Str(log.FieldClientID, sub.ID()).Str(log.FieldGroup, group).Msg("subscriber joined group")
}

func (b *Memory) Leave(group string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	members, ok := b.groups[group]
	if !ok {
		return
	}
	delete(members, sub.ID())
	if len(members) == 0 {
		delete(b.groups, group)
	}

	l := log.L()
	l.Debug().Str(log.FieldClientID, sub.ID()).Str(log.FieldGroup, group).Msg("subscriber left group")
}

func (b *Memory) Publish(ctx context.Context, group string, event *domain.Event) error {
	b.mu.RLock()
	members := b.groups[group]
	snapshot := make([]Subscriber, 0, len(members))
	for _, sub := range members {
		snapshot = append(snapshot, sub)
	}
	b.mu.RUnlock()

	if len(snapshot) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, sub := range snapshot {
		sub := sub
		g.Go(func() error {
			if err := sub.Deliver(event); err != nil {
				// One subscriber's transport failure must not abort
				// delivery to the rest. The subscriber stays in the
				// group; its own heartbeat path removes it.
				l := log.Ctx(ctx)
				l.Warn().Err(err).
					Str(log.FieldClientID, sub.ID()).
					Str(log.FieldGroup, group).
					Str(log.FieldEventID, event.ID).
					Msg("failed to deliver event to subscriber")
			}
			return nil
		})
	}
	return g.Wait()
}

// MemberCount reports the current size of a group.
func (b *Memory) MemberCount(group string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.groups[group])
}

func (b *Memory) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.groups = make(map[string]map[string]Subscriber)
	return nil
}
