package repo

import (
	"context"
	"sync"

	"github.com/neon-portfolio/server/internal/assistant/model"
)

// MemoryMessageStore keeps sequences in process memory.
type MemoryMessageStore struct {
	mu   sync.RWMutex
	msgs map[string][]model.Message
}

func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{msgs: make(map[string][]model.Message)}
}

func (s *MemoryMessageStore) Append(_ context.Context, sessionID string, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs[sessionID] = append(s.msgs[sessionID], msg)
	return nil
}

func (s *MemoryMessageStore) Replace(_ context.Context, sessionID string, index int, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.msgs[sessionID]
	if index < 0 || index >= len(seq) {
		return model.ErrNoSuchMessage
	}
	seq[index] = msg
	return nil
}

func (s *MemoryMessageStore) List(_ context.Context, sessionID string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.msgs[sessionID]
	out := make([]model.Message, len(seq))
	copy(out, seq)
	return out, nil
}

func (s *MemoryMessageStore) Exists(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.msgs[sessionID]
	return ok, nil
}

func (s *MemoryMessageStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.msgs, sessionID)
	return nil
}

var _ model.MessageStore = (*MemoryMessageStore)(nil)
