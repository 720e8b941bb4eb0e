package annotation

import (
	"iter"
	"strings"
	"sync"
	"time"

	"ai-reading-be/pkg/geometry"
)

// Anchor is where an annotation was created on its page.
// Synthesized marks a position that did not come from a real selection.
type Anchor struct {
	Point       geometry.Point
	Synthesized bool
}

// Store keeps annotations in creation order. Operations never fail; invalid input is
// rejected through the return value.
type Store struct {
	mu     sync.RWMutex
	items  []Annotation
	nextID uint64
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// WithClock replaces the creation timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// AddNote appends a note. It returns false and leaves the store untouched when the
// heading is blank.
func (s *Store) AddNote(documentID string, page int, heading, body, sourceText string, anchor Anchor) (Annotation, bool) {
	heading = strings.TrimSpace(heading)
	if heading == "" {
		return Annotation{}, false
	}
	return s.add(Annotation{
		Kind:       KindNote,
		SourceText: sourceText,
		Note:       &NotePayload{Heading: heading, Body: body},
		DocumentID: documentID,
		PageNumber: page,
	}, anchor), true
}

// AddAIAnnotation appends an AI response. The response is validated upstream.
func (s *Store) AddAIAnnotation(documentID string, page int, action Action, sourceText, responseText, imageRef string, anchor Anchor) Annotation {
	return s.add(Annotation{
		Kind:       KindAIResponse,
		SourceText: sourceText,
		AI:         &AIPayload{Action: action, ResponseText: responseText, ImageRef: imageRef},
		DocumentID: documentID,
		PageNumber: page,
	}, anchor)
}

func (s *Store) add(a Annotation, anchor Anchor) Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	a.ID = s.nextID
	a.Anchor = anchor.Point
	a.Synthesized = anchor.Synthesized
	a.CreatedAt = s.now()
	s.items = append(s.items, a)
	return a
}

// Restore inserts a previously persisted annotation, keeping its id and timestamp.
func (s *Store) Restore(a Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.ID == a.ID {
			return
		}
	}
	if a.ID > s.nextID {
		s.nextID = a.ID
	}

	items := make([]Annotation, 0, len(s.items)+1)
	inserted := false
	for _, existing := range s.items {
		if !inserted && a.ID < existing.ID {
			items = append(items, a)
			inserted = true
		}
		items = append(items, existing)
	}
	if !inserted {
		items = append(items, a)
	}
	s.items = items
}

// ByPage yields the annotations of one page in creation order. The sequence is lazy and
// may be ranged over any number of times; each pass sees the store as it was when the pass began.
func (s *Store) ByPage(documentID string, page int) iter.Seq[Annotation] {
	return func(yield func(Annotation) bool) {
		s.mu.RLock()
		snapshot := s.items
		s.mu.RUnlock()

		for _, a := range snapshot {
			if a.DocumentID != documentID || a.PageNumber != page {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

func (s *Store) Get(id uint64) (Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.items {
		if a.ID == id {
			return a, true
		}
	}
	return Annotation{}, false
}

// Delete removes an annotation. Unknown ids are ignored.
func (s *Store) Delete(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, a := range s.items {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	// copy so running ByPage passes keep their snapshot
	items := make([]Annotation, 0, len(s.items)-1)
	items = append(items, s.items[:idx]...)
	items = append(items, s.items[idx+1:]...)
	s.items = items
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
