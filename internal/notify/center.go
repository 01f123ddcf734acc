package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a notification stays visible before auto-expiry.
const DefaultTTL = 5 * time.Second

// Notification is a transient operator-facing message.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Center holds the live set of notifications. Posting is fire-and-forget:
// a notification with an ID already in the live set replaces the old entry,
// and every live notification auto-expires TTL after its most recent post.
// At most one timer exists per notification ID.
type Center struct {
	mu     sync.Mutex
	ttl    time.Duration
	items  []Notification // newest first
	timers map[string]*time.Timer
	onPost func(Notification)
}

// NewCenter creates a Center. ttl <= 0 falls back to DefaultTTL.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// OnPost registers a hook invoked after each post, outside the lock.
// Used to fan notifications out to connected terminals.
func (c *Center) OnPost(fn func(Notification)) {
	c.mu.Lock()
	c.onPost = fn
	c.mu.Unlock()
}

// Post inserts a notification, replacing any live entry with the same ID and
// rescheduling its expiry. A missing ID gets a generated one.
func (c *Center) Post(n Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	c.mu.Lock()
	if old, ok := c.timers[n.ID]; ok {
		old.Stop()
		c.removeLocked(n.ID)
	}
	c.items = append([]Notification{n}, c.items...)

	var t *time.Timer
	t = time.AfterFunc(c.ttl, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// A newer post for this ID re-armed a different timer.
		if c.timers[n.ID] != t {
			return
		}
		delete(c.timers, n.ID)
		c.removeLocked(n.ID)
	})
	c.timers[n.ID] = t
	fn := c.onPost
	c.mu.Unlock()

	if fn != nil {
		fn(n)
	}
}

// Dismiss removes a notification immediately and cancels its pending expiry.
// Unknown IDs are a no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	c.removeLocked(id)
}

// Active returns the live notifications, newest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Center) removeLocked(id string) {
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}
