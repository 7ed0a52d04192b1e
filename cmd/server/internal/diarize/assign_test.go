package diarize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/whisper"
)

func TestAssignSpeakersMaxOverlap(t *testing.T) {
	segments := []whisper.Segment{
		{Start: 0, End: 10, Text: "hello"},
	}
	turns := []Turn{
		{Start: 0, End: 4, Speaker: "A"},
		{Start: 4, End: 10, Speaker: "B"},
	}

	AssignSpeakers(segments, turns)

	// B overlaps 6s against A's 4s.
	assert.Equal(t, "B", segments[0].Speaker)
}

func TestAssignSpeakersTieKeepsFirstTurn(t *testing.T) {
	segments := []whisper.Segment{
		{Start: 0, End: 8},
	}
	turns := []Turn{
		{Start: 0, End: 4, Speaker: "A"},
		{Start: 4, End: 8, Speaker: "B"},
	}

	AssignSpeakers(segments, turns)

	assert.Equal(t, "A", segments[0].Speaker)
}

func TestAssignSpeakersZeroOverlapLeavesUnset(t *testing.T) {
	segments := []whisper.Segment{
		{Start: 20, End: 25, Text: "late"},
		{Start: 10, End: 10, Text: "empty span"},
	}
	turns := []Turn{
		{Start: 0, End: 10, Speaker: "A"},
		{Start: 10, End: 20, Speaker: "B"},
	}

	AssignSpeakers(segments, turns)

	assert.Empty(t, segments[0].Speaker)
	assert.Empty(t, segments[1].Speaker, "touching boundaries is not an overlap")
}

func TestAssignSpeakersEmptyInputs(t *testing.T) {
	segments := []whisper.Segment{{Start: 0, End: 5, Text: "hi"}}

	AssignSpeakers(segments, nil)
	assert.Empty(t, segments[0].Speaker)

	// Must not panic either way.
	AssignSpeakers(nil, []Turn{{Start: 0, End: 5, Speaker: "A"}})
}

func TestAssignSpeakersDeterministic(t *testing.T) {
	build := func() []whisper.Segment {
		return []whisper.Segment{
			{Start: 0, End: 3},
			{Start: 3, End: 7},
			{Start: 7, End: 12},
		}
	}
	turns := []Turn{
		{Start: 0, End: 5, Speaker: "A"},
		{Start: 5, End: 12, Speaker: "B"},
	}

	first := build()
	second := build()
	AssignSpeakers(first, turns)
	AssignSpeakers(second, turns)

	assert.Equal(t, first, second)
	assert.Equal(t, "A", first[0].Speaker)
	assert.Equal(t, "A", first[1].Speaker) // 2s in A vs 2s in B, tie -> first
	assert.Equal(t, "B", first[2].Speaker)
}

func TestSpeakers(t *testing.T) {
	segments := []whisper.Segment{
		{Speaker: "B"},
		{Speaker: ""},
		{Speaker: "A"},
		{Speaker: "B"},
	}

	assert.Equal(t, []string{"B", "A"}, Speakers(segments))
	assert.Equal(t, []string{}, Speakers(nil))
}
