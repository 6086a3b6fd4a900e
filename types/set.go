package types

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Set keeps insertion order so catalogs and key properties render deterministically
type Set[T comparable] struct {
	hash  map[T]struct{}
	items []T
}

func NewSet[T comparable](values ...T) *Set[T] {
	set := &Set[T]{
		hash: make(map[T]struct{}),
	}
	set.Insert(values...)

	return set
}

func (s *Set[T]) Insert(values ...T) {
	for _, value := range values {
		if _, found := s.hash[value]; found {
			continue
		}
		s.hash[value] = struct{}{}
		s.items = append(s.items, value)
	}
}

func (s *Set[T]) Exists(value T) bool {
	if s == nil {
		return false
	}
	_, found := s.hash[value]
	return found
}

func (s *Set[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Array returns a copy of the items in insertion order
func (s *Set[T]) Array() []T {
	if s == nil {
		return []T{}
	}
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Set[T]) String() string {
	return fmt.Sprint(s.Array())
}

func (s *Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Array())
}

func (s *Set[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}

	*s = *NewSet(items...)
	return nil
}
