package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eshen7/frc-marketplace/internal/broker"
	"github.com/eshen7/frc-marketplace/internal/config"
	"github.com/eshen7/frc-marketplace/internal/domain"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		SendBuffer:    16,
		DedupCapacity: 32,
	}
}

func chatEvent(t *testing.T, id string) *domain.Event {
	t.Helper()
	event, err := domain.NewEvent(id, domain.KindChatMessage, map[string]string{"type": domain.KindChatMessage, "id": id})
	require.NoError(t, err)
	return event
}

// A connection subscribed to both its personal group and a broadcast room
// must forward an event published to both groups exactly once.
func TestClient_DeliverDedupsAcrossGroups(t *testing.T) {
	req := require.New(t)
	b := broker.NewMemory()
	c := NewClient("c1", nil, b, testWSConfig())

	c.Join("user_100")
	c.Join("event_2025flor")
	req.Equal([]string{"user_100", "event_2025flor"}, c.Groups())

	event := chatEvent(t, "evt-1")
	req.NoError(c.Deliver(event))
	req.NoError(c.Deliver(event))

	req.Len(c.send, 1)
}

func TestClient_DeliverPreservesOrder(t *testing.T) {
	req := require.New(t)
	b := broker.NewMemory()
	c := NewClient("c1", nil, b, testWSConfig())

	first := chatEvent(t, "evt-1")
	second := chatEvent(t, "evt-2")
	req.NoError(c.Deliver(first))
	req.NoError(c.Deliver(second))

	req.Equal([]byte(first.Payload), <-c.send)
	req.Equal([]byte(second.Payload), <-c.send)
}

func TestClient_DeliverFullBuffer(t *testing.T) {
	req := require.New(t)
	b := broker.NewMemory()
	cfg := testWSConfig()
	cfg.SendBuffer = 1
	c := NewClient("c1", nil, b, cfg)
	c.Join("user_100")

	req.NoError(c.Deliver(chatEvent(t, "evt-1")))
	err := c.Deliver(chatEvent(t, "evt-2"))
	req.ErrorIs(err, ErrSendBufferFull)

	// A saturated buffer drops the event but never evicts the
	// connection; the ping path decides liveness.
	req.Equal(1, b.MemberCount("user_100"))
}

func TestClient_CloseLeavesEveryGroupOnce(t *testing.T) {
	req := require.New(t)
	b := broker.NewMemory()

	// Close touches the transport, so this test needs a real connection.
	c := NewClient("c1", fakeConn(t), b, testWSConfig())
	c.Join("user_100")
	c.Join("event_2025flor")

	req.Equal(1, b.MemberCount("user_100"))
	req.Equal(1, b.MemberCount("event_2025flor"))

	// Racing close triggers (read error + explicit close) must tear down
	// exactly once.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()

	req.Equal(0, b.MemberCount("user_100"))
	req.Equal(0, b.MemberCount("event_2025flor"))
	req.Empty(c.Groups())
}

func TestClient_DeliverAfterCloseIsDropped(t *testing.T) {
	req := require.New(t)
	b := broker.NewMemory()
	c := NewClient("c1", fakeConn(t), b, testWSConfig())

	c.Close()
	req.NoError(c.Deliver(chatEvent(t, "evt-1")))
	req.Len(c.send, 0)
}
