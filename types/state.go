package types

import (
	"sync"

	"github.com/goccy/go-json"
)

// State is the Singer state document keyed by stream
type State struct {
	*sync.RWMutex    `json:"-"`
	Bookmarks        map[string]*Bookmark `json:"bookmarks"`
	CurrentlySyncing string               `json:"currently_syncing,omitempty"`
}

type Bookmark struct {
	ReplicationKey      string `json:"replication_key,omitempty"`
	ReplicationKeyValue any    `json:"replication_key_value,omitempty"`
}

func NewState() *State {
	return &State{
		RWMutex:   &sync.RWMutex{},
		Bookmarks: make(map[string]*Bookmark),
	}
}

func (s *State) IsZero() bool {
	s.RLock()
	defer s.RUnlock()

	return len(s.Bookmarks) == 0 && s.CurrentlySyncing == ""
}

// GetBookmark returns a copy of the stream bookmark
func (s *State) GetBookmark(stream string) (Bookmark, bool) {
	s.RLock()
	defer s.RUnlock()

	bookmark, found := s.Bookmarks[stream]
	if !found || bookmark == nil {
		return Bookmark{}, false
	}
	return *bookmark, true
}

func (s *State) SetBookmark(stream, key string, value any) {
	s.Lock()
	defer s.Unlock()

	s.Bookmarks[stream] = &Bookmark{
		ReplicationKey:      key,
		ReplicationKeyValue: value,
	}
}

func (s *State) SetCurrentlySyncing(stream string) {
	s.Lock()
	defer s.Unlock()

	s.CurrentlySyncing = stream
}

func (s *State) MarshalJSON() ([]byte, error) {
	s.RLock()
	defer s.RUnlock()

	type Alias State
	p := Alias(*s)
	if p.Bookmarks == nil {
		p.Bookmarks = map[string]*Bookmark{}
	}
	return json.Marshal(p)
}

func (s *State) UnmarshalJSON(data []byte) error {
	type Alias State
	var temp Alias

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	*s = State(temp)
	s.RWMutex = &sync.RWMutex{}
	if s.Bookmarks == nil {
		s.Bookmarks = make(map[string]*Bookmark)
	}
	return nil
}
