package session

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Store 按 ID 保存会话。
type Store struct {
	deps Deps
	seq  atomic.Uint64

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(deps Deps) *Store {
	return &Store{deps: deps, sessions: make(map[string]*Session)}
}

// Create 新建一个空闲会话。
func (s *Store) Create() *Session {
	sess := New(s.newID(), s.deps)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get 返回会话，不存在时返回 ErrNotFound。
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

// Delete 移除会话，不存在时什么也不做。
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len 返回会话数。
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) newID() string {
	ts := strings.ReplaceAll(time.Now().Format("20060102T150405.000000000"), ".", "")
	return fmt.Sprintf("%s-%d", ts, s.seq.Add(1))
}
