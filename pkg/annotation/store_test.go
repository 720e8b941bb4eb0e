package annotation

import (
	"slices"
	"testing"
	"time"

	"ai-reading-be/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return t }
}

func TestAddNote(t *testing.T) {
	s := NewStore().WithClock(fixedClock())

	a, ok := s.AddNote("doc-1", 3, "  Photosynthesis ", "light to sugar", "chlorophyll", Anchor{Point: geometry.Point{X: 10, Y: 20}})
	require.True(t, ok)

	assert.Equal(t, uint64(1), a.ID)
	assert.Equal(t, KindNote, a.Kind)
	assert.Equal(t, "Photosynthesis", a.Note.Heading)
	assert.Equal(t, "light to sugar", a.Note.Body)
	assert.Nil(t, a.AI)
	assert.Equal(t, geometry.Point{X: 10, Y: 20}, a.Anchor)
	assert.False(t, a.Synthesized)
	assert.Equal(t, fixedClock()(), a.CreatedAt)
}

func TestAddNoteRejectsBlankHeading(t *testing.T) {
	s := NewStore()
	s.AddNote("doc-1", 1, "kept", "", "", Anchor{})

	for _, heading := range []string{"", "   ", "\t\n"} {
		_, ok := s.AddNote("doc-1", 1, heading, "body", "src", Anchor{})
		assert.False(t, ok, "heading %q", heading)
	}
	assert.Equal(t, 1, s.Len())
}

func TestAddAIAnnotation(t *testing.T) {
	s := NewStore()

	a := s.AddAIAnnotation("doc-1", 2, ActionDefine, "[selection]", "", "", Anchor{Synthesized: true})

	assert.Equal(t, KindAIResponse, a.Kind)
	assert.Equal(t, ActionDefine, a.AI.Action)
	assert.True(t, a.Synthesized)
	assert.Nil(t, a.Note)
	assert.Equal(t, 1, s.Len())
}

func TestIDsAreMonotonic(t *testing.T) {
	s := NewStore()
	n1, _ := s.AddNote("d", 1, "a", "", "", Anchor{})
	n2 := s.AddAIAnnotation("d", 1, ActionStory, "", "once", "", Anchor{})
	s.Delete(n2.ID)
	n3, _ := s.AddNote("d", 1, "c", "", "", Anchor{})

	assert.Less(t, n1.ID, n2.ID)
	assert.Less(t, n2.ID, n3.ID)
}

func TestByPageFiltersOnBothKeys(t *testing.T) {
	s := NewStore()
	s.AddNote("doc-1", 3, "first", "", "", Anchor{})
	s.AddNote("doc-1", 4, "other page", "", "", Anchor{})
	s.AddNote("doc-2", 3, "other doc", "", "", Anchor{})
	s.AddAIAnnotation("doc-1", 3, ActionSummary, "", "sum", "", Anchor{})

	var titles []string
	for a := range s.ByPage("doc-1", 3) {
		assert.Equal(t, 3, a.PageNumber)
		assert.Equal(t, "doc-1", a.DocumentID)
		titles = append(titles, a.Title())
	}

	assert.Equal(t, []string{"first", "summary"}, titles)
}

func TestByPageIsRestartable(t *testing.T) {
	s := NewStore()
	s.AddNote("doc", 1, "a", "", "", Anchor{})
	s.AddNote("doc", 1, "b", "", "", Anchor{})

	seq := s.ByPage("doc", 1)
	first := slices.Collect(seq)
	second := slices.Collect(seq)

	assert.Len(t, first, 2)
	assert.Equal(t, first, second)

	s.AddNote("doc", 1, "c", "", "", Anchor{})
	assert.Len(t, slices.Collect(seq), 3)
}

func TestByPageEarlyStop(t *testing.T) {
	s := NewStore()
	for range 5 {
		s.AddNote("doc", 1, "x", "", "", Anchor{})
	}

	count := 0
	for range s.ByPage("doc", 1) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestDeleteDuringIteration(t *testing.T) {
	s := NewStore()
	a, _ := s.AddNote("doc", 1, "a", "", "", Anchor{})
	s.AddNote("doc", 1, "b", "", "", Anchor{})

	var seen []string
	for ann := range s.ByPage("doc", 1) {
		s.Delete(a.ID)
		seen = append(seen, ann.Title())
	}

	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, 1, s.Len())
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := NewStore()
	a, _ := s.AddNote("doc", 1, "a", "", "", Anchor{})

	s.Delete(a.ID)
	s.Delete(a.ID)
	s.Delete(999)

	_, found := s.Get(a.ID)
	assert.False(t, found)
	assert.Equal(t, 0, s.Len())
}

func TestRestoreKeepsOrderAndCounter(t *testing.T) {
	s := NewStore()
	s.Restore(Annotation{ID: 7, Kind: KindNote, Note: &NotePayload{Heading: "seven"}, DocumentID: "doc", PageNumber: 1})
	s.Restore(Annotation{ID: 3, Kind: KindNote, Note: &NotePayload{Heading: "three"}, DocumentID: "doc", PageNumber: 1})
	s.Restore(Annotation{ID: 3, Kind: KindNote, Note: &NotePayload{Heading: "dup"}, DocumentID: "doc", PageNumber: 1})

	next, _ := s.AddNote("doc", 1, "next", "", "", Anchor{})

	var titles []string
	for a := range s.ByPage("doc", 1) {
		titles = append(titles, a.Title())
	}
	assert.Equal(t, []string{"three", "seven", "next"}, titles)
	assert.Equal(t, uint64(8), next.ID)
}

func TestActionValid(t *testing.T) {
	for _, a := range Actions() {
		assert.True(t, a.Valid())
	}
	assert.False(t, Action("translate").Valid())
	assert.Len(t, Actions(), 8)
}
