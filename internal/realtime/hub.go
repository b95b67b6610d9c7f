package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// DefaultBufferSize is the per-session outbound queue length.
const DefaultBufferSize = 32

// Session is one live connection registered under its principal's id.
type Session struct {
	ID      string
	OwnerID uint64

	send      chan []byte
	closeOnce sync.Once
}

// Messages returns the queue of encoded frames for the session. It is closed
// when the session is unregistered.
func (s *Session) Messages() <-chan []byte {
	return s.send
}

// enqueue never blocks; it reports false when the queue is full.
func (s *Session) enqueue(msg []byte) bool {
	select {
	case s.send <- msg:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// Hub tracks live sessions grouped by owner id and fans events out to them.
// Register and Unregister take the write lock; Publish takes the read lock
// and only performs non-blocking sends, so it never waits on a slow client.
// A session's queue is closed under the write lock after removal, so a
// publisher can never send on a closed queue.
type Hub struct {
	mu         sync.RWMutex
	groups     map[uint64]map[string]*Session
	bufferSize int
}

// NewHub creates an empty hub. A non-positive bufferSize uses DefaultBufferSize.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		groups:     make(map[uint64]map[string]*Session),
		bufferSize: bufferSize,
	}
}

// Register adds a new session to the owner's group.
func (h *Hub) Register(ownerID uint64) *Session {
	session := &Session{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		send:    make(chan []byte, h.bufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.groups[ownerID]
	if !ok {
		group = make(map[string]*Session)
		h.groups[ownerID] = group
	}
	group[session.ID] = session
	return session
}

// Unregister removes the session and closes its queue. Calling it more than
// once is harmless.
func (h *Hub) Unregister(session *Session) {
	if session == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if group, ok := h.groups[session.OwnerID]; ok {
		delete(group, session.ID)
		if len(group) == 0 {
			delete(h.groups, session.OwnerID)
		}
	}
	session.close()
}

// SessionCount returns the number of live sessions for an owner.
func (h *Hub) SessionCount(ownerID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[ownerID])
}

// Publish queues an event for every live session of ownerID. Delivery is best
// effort: with no sessions it does nothing, and a session whose queue is full
// misses the event.
func (h *Hub) Publish(ownerID uint64, kind EventKind, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	group := h.groups[ownerID]
	if len(group) == 0 {
		return
	}

	msg, err := json.Marshal(Message{Event: kind, Data: payload})
	if err != nil {
		log.Printf("realtime: failed to encode %s event for user %d: %v", kind, ownerID, err)
		return
	}

	for _, session := range group {
		if !session.enqueue(msg) {
			log.Printf("realtime: dropped %s event for session %s (queue full)", kind, session.ID)
		}
	}
}
