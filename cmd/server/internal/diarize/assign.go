package diarize

import "github.com/houzhh15/transcribe-gateway/cmd/server/internal/whisper"

// AssignSpeakers labels each transcript segment with the speaker of the turn
// it overlaps most. A label is assigned only when the best overlap is
// strictly positive; ties keep the first turn encountered. Segments with no
// overlapping turn are left unlabeled. Empty input on either side is a
// no-op, and the function is deterministic for identical inputs.
func AssignSpeakers(segments []whisper.Segment, turns []Turn) {
	if len(segments) == 0 || len(turns) == 0 {
		return
	}

	for i := range segments {
		best := 0.0
		speaker := ""
		for _, turn := range turns {
			if ov := overlap(segments[i].Start, segments[i].End, turn.Start, turn.End); ov > best {
				best = ov
				speaker = turn.Speaker
			}
		}
		if best > 0 {
			segments[i].Speaker = speaker
		}
	}
}

// Speakers returns the distinct labels present in segments, in order of
// first appearance.
func Speakers(segments []whisper.Segment) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, seg := range segments {
		if seg.Speaker == "" {
			continue
		}
		if _, ok := seen[seg.Speaker]; ok {
			continue
		}
		seen[seg.Speaker] = struct{}{}
		out = append(out, seg.Speaker)
	}
	return out
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}
