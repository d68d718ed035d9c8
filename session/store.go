package session

import (
	"container/list"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"generalize-service/model"
)

// ErrNotFound is returned for unknown or evicted tokens.
var ErrNotFound = errors.New("calculation not found")

type entry struct {
	session   *list.Element
	removable *model.RemovableSegments
}

// tokens of one session, oldest first
type sessionTokens struct {
	name   string
	tokens []uuid.UUID
}

// Store keeps calculation results between the calculate and apply calls of
// an editing session. It is created by the caller and passed to whoever
// needs it.
type Store struct {
	mu          sync.Mutex
	maxEntries  int
	maxSessions int
	entries     map[uuid.UUID]*entry
	bySession   map[string]*list.Element
	// sessions by last use, most recent at the front
	recent *list.List
}

// NewStore creates a store keeping at most maxEntries results per session
// and at most maxSessions sessions. When a new session would exceed the
// limit the least recently used session is dropped. Zero means no limit.
func NewStore(maxEntries, maxSessions int) *Store {
	return &Store{
		maxEntries:  maxEntries,
		maxSessions: maxSessions,
		entries:     make(map[uuid.UUID]*entry),
		bySession:   make(map[string]*list.Element),
		recent:      list.New(),
	}
}

// Put stores a result and returns its token. The oldest result of the
// session is evicted when the session is full.
func (s *Store) Put(session string, removable *model.RemovableSegments) (uuid.UUID, error) {
	if removable == nil {
		return uuid.Nil, errors.WithStack(model.ErrNilParameter)
	}
	token, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "generating calculation token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.bySession[session]
	if ok {
		s.recent.MoveToFront(el)
	} else {
		el = s.recent.PushFront(&sessionTokens{name: session})
		s.bySession[session] = el
		for s.maxSessions > 0 && s.recent.Len() > s.maxSessions {
			s.drop(s.recent.Back())
		}
	}

	st := el.Value.(*sessionTokens)
	s.entries[token] = &entry{session: el, removable: removable}
	st.tokens = append(st.tokens, token)
	for s.maxEntries > 0 && len(st.tokens) > s.maxEntries {
		delete(s.entries, st.tokens[0])
		st.tokens = st.tokens[1:]
	}
	return token, nil
}

// Get returns the result stored under token.
func (s *Store) Get(token uuid.UUID) (*model.RemovableSegments, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "token %s", token)
	}
	s.recent.MoveToFront(e.session)
	return e.removable, nil
}

// Clear drops every result of one session.
func (s *Store) Clear(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.bySession[session]; ok {
		s.drop(el)
	}
}

// drop removes a session with its results. The caller holds mu.
func (s *Store) drop(el *list.Element) {
	st := el.Value.(*sessionTokens)
	for _, token := range st.tokens {
		delete(s.entries, token)
	}
	delete(s.bySession, st.name)
	s.recent.Remove(el)
}

// ClearAll drops everything.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[uuid.UUID]*entry)
	s.bySession = make(map[string]*list.Element)
	s.recent.Init()
}

// Len returns the number of stored results.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sessions returns the number of sessions holding results.
func (s *Store) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.Len()
}
