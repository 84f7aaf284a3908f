package presence

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Cursor is the ephemeral view of one collaborator. Not persisted; lifetime
// is bound to an active channel subscription.
type Cursor struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Color          string    `json:"color"`
	X              float64   `json:"x"`
	Y              float64   `json:"y"`
	LastActive     time.Time `json:"lastActive"`
	EditingSection string    `json:"editingSection,omitempty"`
}

type eventKind string

const (
	eventCursor eventKind = "cursor"
	eventLeave  eventKind = "leave"
	eventLock   eventKind = "lock"
	eventUnlock eventKind = "unlock"
)

type event struct {
	Kind      eventKind `json:"kind"`
	Cursor    *Cursor   `json:"cursor,omitempty"`
	SectionID string    `json:"sectionId,omitempty"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
}

type lease struct {
	owner     string
	ownerName string
	expires   time.Time
}

// Coordinator publishes the local user's cursor (throttled) on the content
// id's topic and mirrors remote cursors and section leases from the same
// topic. Locks are leases with a TTL rather than the always-grant stub the
// original studio shipped: a section is only granted when unheld, expired,
// or already owned by the requester.
type Coordinator struct {
	bus       Bus
	contentID string
	self      Cursor
	throttle  time.Duration
	lockTTL   time.Duration
	now       func() time.Time

	mu          sync.Mutex
	remotes     map[string]Cursor
	locks       map[string]lease
	lastPublish time.Time
	unsubscribe func()
}

func NewCoordinator(bus Bus, contentID, userID, userName, color string, throttle, lockTTL time.Duration) *Coordinator {
	return &Coordinator{
		bus:       bus,
		contentID: contentID,
		self:      Cursor{ID: userID, Name: userName, Color: color},
		throttle:  throttle,
		lockTTL:   lockTTL,
		now:       time.Now,
		remotes:   make(map[string]Cursor),
		locks:     make(map[string]lease),
	}
}

func (c *Coordinator) topic() string {
	return "presence:" + c.contentID
}

// Join subscribes to the content id's channel.
func (c *Coordinator) Join(ctx context.Context) error {
	unsubscribe, err := c.bus.Subscribe(ctx, c.topic(), c.handle)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	return nil
}

// Leave announces departure, releases held leases, and unsubscribes.
// Safe to call multiple times.
func (c *Coordinator) Leave(ctx context.Context) {
	c.mu.Lock()
	held := make([]string, 0)
	for sectionID, l := range c.locks {
		if l.owner == c.self.ID {
			delete(c.locks, sectionID)
			held = append(held, sectionID)
		}
	}
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	for _, sectionID := range held {
		c.publish(ctx, event{Kind: eventUnlock, SectionID: sectionID, UserID: c.self.ID})
	}
	c.publish(ctx, event{Kind: eventLeave, UserID: c.self.ID})
	if unsubscribe != nil {
		unsubscribe()
	}
}

// PublishCursor broadcasts the local cursor position. Calls inside the
// throttle window are dropped; the channel carries at most one cursor event
// per window.
func (c *Coordinator) PublishCursor(ctx context.Context, x, y float64, editingSection string) {
	c.mu.Lock()
	now := c.now()
	if now.Sub(c.lastPublish) < c.throttle {
		c.mu.Unlock()
		return
	}
	c.lastPublish = now
	cursor := c.self
	cursor.X = x
	cursor.Y = y
	cursor.LastActive = now
	cursor.EditingSection = editingSection
	c.mu.Unlock()

	c.publish(ctx, event{Kind: eventCursor, Cursor: &cursor, UserID: c.self.ID})
}

// Cursors returns the known remote collaborators.
func (c *Coordinator) Cursors() []Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Cursor, 0, len(c.remotes))
	for _, cursor := range c.remotes {
		out = append(out, cursor)
	}
	return out
}

// AcquireLock grants a lease on the section when it is unheld, expired, or
// already owned by this user. A successful acquire renews the lease.
func (c *Coordinator) AcquireLock(ctx context.Context, sectionID string) bool {
	c.mu.Lock()
	now := c.now()
	current, held := c.locks[sectionID]
	if held && current.owner != c.self.ID && now.Before(current.expires) {
		c.mu.Unlock()
		return false
	}
	c.locks[sectionID] = lease{owner: c.self.ID, ownerName: c.self.Name, expires: now.Add(c.lockTTL)}
	c.mu.Unlock()

	c.publish(ctx, event{Kind: eventLock, SectionID: sectionID, UserID: c.self.ID, UserName: c.self.Name})
	return true
}

// ReleaseLock drops the lease if this user owns it.
func (c *Coordinator) ReleaseLock(ctx context.Context, sectionID string) {
	c.mu.Lock()
	current, held := c.locks[sectionID]
	if !held || current.owner != c.self.ID {
		c.mu.Unlock()
		return
	}
	delete(c.locks, sectionID)
	c.mu.Unlock()

	c.publish(ctx, event{Kind: eventUnlock, SectionID: sectionID, UserID: c.self.ID})
}

// IsLocked reports whether a non-expired lease exists for the section.
func (c *Coordinator) IsLocked(sectionID string) bool {
	_, ok := c.LockOwner(sectionID)
	return ok
}

// LockOwner returns the owning user id of a non-expired lease.
func (c *Coordinator) LockOwner(sectionID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, held := c.locks[sectionID]
	if !held || !c.now().Before(current.expires) {
		return "", false
	}
	return current.owner, true
}

func (c *Coordinator) publish(ctx context.Context, evt event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("presence: marshal event: %v", err)
		return
	}
	if err := c.bus.Publish(ctx, c.topic(), payload); err != nil {
		log.Printf("presence: publish %s: %v", evt.Kind, err)
	}
}

func (c *Coordinator) handle(payload []byte) {
	var evt event
	if err := json.Unmarshal(payload, &evt); err != nil {
		log.Printf("presence: malformed event: %v", err)
		return
	}
	if evt.UserID == c.self.ID {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch evt.Kind {
	case eventCursor:
		if evt.Cursor != nil {
			cursor := *evt.Cursor
			cursor.LastActive = c.now()
			c.remotes[cursor.ID] = cursor
		}
	case eventLeave:
		delete(c.remotes, evt.UserID)
		for sectionID, l := range c.locks {
			if l.owner == evt.UserID {
				delete(c.locks, sectionID)
			}
		}
	case eventLock:
		now := c.now()
		current, held := c.locks[evt.SectionID]
		if held && current.owner != evt.UserID && now.Before(current.expires) {
			return
		}
		c.locks[evt.SectionID] = lease{owner: evt.UserID, ownerName: evt.UserName, expires: now.Add(c.lockTTL)}
	case eventUnlock:
		if current, held := c.locks[evt.SectionID]; held && current.owner == evt.UserID {
			delete(c.locks, evt.SectionID)
		}
	}
}
