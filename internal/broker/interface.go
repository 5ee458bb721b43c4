package broker

import (
	"context"

	"github.com/eshen7/frc-marketplace/internal/domain"
)

// Subscriber is one endpoint of a group fan-out, typically a live
// connection session. Deliver must be safe to call from multiple
// goroutines; a returned error affects only the event being delivered.
type Subscriber interface {
	ID() string
	Deliver(event *domain.Event) error
}

// Broker maps group names to their current subscribers and fans published
// events out to all of them. Implementations must be safe for concurrent
// use from many connection goroutines.
//
// Membership is owned by subscribers: a group exists exactly while it has
// members, and publishing to an empty or unknown group is a legal no-op.
type Broker interface {
	// Join adds sub to the group, creating the group on first join.
	// Joining twice has no extra effect.
	Join(group string, sub Subscriber)

	// Leave removes sub from the group. Leaving a group the subscriber
	// never joined is a no-op so teardown paths can call it blindly.
	Leave(group string, sub Subscriber)

	// Publish delivers event to every current member of group. Delivery
	// failures for individual subscribers are isolated and logged; the
	// returned error reports only broker-level unavailability.
	Publish(ctx context.Context, group string, event *domain.Event) error

	Close() error
}
