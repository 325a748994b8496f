package devserver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("devserver: user already exists")
	ErrInvalidCredentials = errors.New("devserver: invalid credentials")
	ErrEventNotFound      = errors.New("devserver: event not found")
	ErrForbidden          = errors.New("devserver: event belongs to another user")
)

type user struct {
	ID    string
	Name  string
	Email string
	Hash  []byte
}

type event struct {
	ID     string
	Title  string
	Notes  string
	Start  time.Time
	End    time.Time
	UserID string
}

// memStore keeps users and events in memory. Events keep creation order.
type memStore struct {
	cost int

	mu      sync.RWMutex
	byEmail map[string]*user
	byID    map[string]*user
	events  []event
}

func newMemStore(cost int) *memStore {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &memStore{
		cost:    cost,
		byEmail: make(map[string]*user),
		byID:    make(map[string]*user),
	}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (m *memStore) createUser(name, email, password string) (user, error) {
	email = normalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return user{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return user{}, ErrUserExists
	}
	u := &user{ID: uuid.NewString(), Name: name, Email: email, Hash: hash}
	m.byEmail[email] = u
	m.byID[u.ID] = u
	return *u, nil
}

func (m *memStore) authenticate(email, password string) (user, error) {
	m.mu.RLock()
	u, ok := m.byEmail[normalizeEmail(email)]
	m.mu.RUnlock()
	if !ok {
		return user{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(password)); err != nil {
		return user{}, ErrInvalidCredentials
	}
	return *u, nil
}

func (m *memStore) userByID(id string) (user, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return user{}, false
	}
	return *u, true
}

func (m *memStore) listEvents() []event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]event(nil), m.events...)
}

func (m *memStore) createEvent(ev event) event {
	ev.ID = uuid.NewString()
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	return ev
}

// updateEvent replaces the event with ev.ID if uid owns it.
func (m *memStore) updateEvent(uid string, ev event) (event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(ev.ID)
	if i < 0 {
		return event{}, ErrEventNotFound
	}
	if m.events[i].UserID != uid {
		return event{}, ErrForbidden
	}
	ev.UserID = uid
	m.events[i] = ev
	return ev, nil
}

func (m *memStore) deleteEvent(uid, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return ErrEventNotFound
	}
	if m.events[i].UserID != uid {
		return ErrForbidden
	}
	m.events = append(m.events[:i], m.events[i+1:]...)
	return nil
}

func (m *memStore) indexLocked(id string) int {
	for i := range m.events {
		if m.events[i].ID == id {
			return i
		}
	}
	return -1
}
