package filesink

import (
	"github.com/Aman-CERP/timelog/internal/logger"
)

// FileCreatedFunc is called before the first message is written to a new
// file. path is the full file path.
type FileCreatedFunc func(s *Sink, path string) error

// MessageFunc is called after a message has been appended.
type MessageFunc func(s *Sink, level logger.Level, message string) error

// ListenerHandle identifies a registered listener for RemoveListener.
type ListenerHandle struct {
	id uint64
}

type fileCreatedListener struct {
	id uint64
	fn FileCreatedFunc
}

type messageListener struct {
	id uint64
	fn MessageFunc
}

// listenerSet keeps listeners in registration order. Guarded by Sink.mu.
type listenerSet struct {
	nextID   uint64
	created  []fileCreatedListener
	messages []messageListener
}

// OnFileCreated registers fn for file creation events.
func (s *Sink) OnFileCreated(fn FileCreatedFunc) ListenerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners.nextID++
	id := s.listeners.nextID
	s.listeners.created = append(s.listeners.created, fileCreatedListener{id: id, fn: fn})
	return ListenerHandle{id: id}
}

// OnMessage registers fn for message written events.
func (s *Sink) OnMessage(fn MessageFunc) ListenerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners.nextID++
	id := s.listeners.nextID
	s.listeners.messages = append(s.listeners.messages, messageListener{id: id, fn: fn})
	return ListenerHandle{id: id}
}

// RemoveListener unregisters the listener behind h. It reports whether a
// listener was removed.
func (s *Sink) RemoveListener(h ListenerHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.listeners.created {
		if l.id == h.id {
			s.listeners.created = append(s.listeners.created[:i:i], s.listeners.created[i+1:]...)
			return true
		}
	}
	for i, l := range s.listeners.messages {
		if l.id == h.id {
			s.listeners.messages = append(s.listeners.messages[:i:i], s.listeners.messages[i+1:]...)
			return true
		}
	}
	return false
}

func (ls *listenerSet) fileCreated(s *Sink, path string) error {
	for _, l := range ls.created {
		if err := l.fn(s, path); err != nil {
			return err
		}
	}
	return nil
}

func (ls *listenerSet) messageWritten(s *Sink, level logger.Level, message string) error {
	for _, l := range ls.messages {
		if err := l.fn(s, level, message); err != nil {
			return err
		}
	}
	return nil
}
