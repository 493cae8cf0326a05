package usecases

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"rune-settle.backend/internal/domain/entities"
)

// subscriberBuffer bounds each subscriber channel. A subscriber that falls
// this far behind loses intermediate transitions, never the terminal one,
// because Publish blocks briefly for terminal statuses.
const subscriberBuffer = 16

// StatusNotifier is the core-owned observer hub for settlement status
// transitions. UI layers subscribe instead of polling.
type StatusNotifier struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[int]chan entities.StatusChange
	next int
}

// NewStatusNotifier creates a new status notifier
func NewStatusNotifier() *StatusNotifier {
	return &StatusNotifier{
		subs: make(map[uuid.UUID]map[int]chan entities.StatusChange),
	}
}

// Subscribe registers for transitions of a single request. The returned
// cancel func must be called to release the subscription.
func (n *StatusNotifier) Subscribe(requestID uuid.UUID) (<-chan entities.StatusChange, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan entities.StatusChange, subscriberBuffer)
	if n.subs[requestID] == nil {
		n.subs[requestID] = make(map[int]chan entities.StatusChange)
	}
	id := n.next
	n.next++
	n.subs[requestID][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if set, ok := n.subs[requestID]; ok {
			if _, ok := set[id]; ok {
				delete(set, id)
				close(ch)
			}
			if len(set) == 0 {
				delete(n.subs, requestID)
			}
		}
	}
	return ch, cancel
}

// Publish fans a status change out to all subscribers of the request.
// Slow subscribers drop non-terminal updates rather than blocking the
// state machine.
func (n *StatusNotifier) Publish(change entities.StatusChange) {
	if change.At.IsZero() {
		change.At = time.Now()
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs[change.RequestID] {
		select {
		case ch <- change:
		default:
			if change.Status.IsTerminal() {
				// Make room so the terminal transition is never lost.
				select {
				case <-ch:
				default:
				}
				select {
				case ch <- change:
				default:
				}
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers for a request.
func (n *StatusNotifier) SubscriberCount(requestID uuid.UUID) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[requestID])
}
