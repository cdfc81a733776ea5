// Package state persists the subscription lists and the set of
// already-notified event and news identifiers.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"siriuswatch/internal/api"
)

// State is the durable record: which channels to post to, which roles
// to ping, which courses to watch, and what has already been sent.
// Subscriptions are edited out of band; the poller only appends to the
// seen sets.
type State struct {
	Channels   []int64       `json:"channels"`
	Pings      []int64       `json:"pings"`
	Courses    []string      `json:"courses"`
	SeenEvents []api.EventID `json:"seen_events"`
	SeenNews   []string      `json:"seen_news"`

	seenEvents map[api.EventID]struct{}
	seenNews   map[string]struct{}
}

func (s *State) index() {
	if s.seenEvents == nil {
		s.seenEvents = make(map[api.EventID]struct{}, len(s.SeenEvents))
		for _, id := range s.SeenEvents {
			s.seenEvents[id] = struct{}{}
		}
	}
	if s.seenNews == nil {
		s.seenNews = make(map[string]struct{}, len(s.SeenNews))
		for _, id := range s.SeenNews {
			s.seenNews[id] = struct{}{}
		}
	}
}

func (s *State) HasSeenEvent(id api.EventID) bool {
	s.index()
	_, ok := s.seenEvents[id]
	return ok
}

// MarkEventSeen appends the id to the seen set. The set only grows.
func (s *State) MarkEventSeen(id api.EventID) {
	s.index()
	if _, ok := s.seenEvents[id]; ok {
		return
	}
	s.seenEvents[id] = struct{}{}
	s.SeenEvents = append(s.SeenEvents, id)
}

func (s *State) HasSeenNews(id string) bool {
	s.index()
	_, ok := s.seenNews[id]
	return ok
}

func (s *State) MarkNewsSeen(id string) {
	s.index()
	if _, ok := s.seenNews[id]; ok {
		return
	}
	s.seenNews[id] = struct{}{}
	s.SeenNews = append(s.SeenNews, id)
}

// Store reads and writes the state file.
type Store struct {
	path   string
	logger *zap.Logger
}

func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the state file. A missing file is the bootstrap case and
// yields empty state; any other read or decode failure is an error.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("state file missing, starting empty", zap.String("path", s.path))
			return &State{}, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decoding state file: %w", err)
	}

	return &st, nil
}

// Save writes the state through a temp file and renames it into
// place, so a crash mid-write cannot corrupt the previous state.
func (s *Store) Save(st *State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("writing temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp state file: %w", err)
	}

	return nil
}
