package pipeline

// Event is one record of the streaming response. Concrete events marshal to
// the NDJSON objects the streaming endpoints emit; the sequence for one
// request is `queued? progress* (done|error)` and nothing follows the
// terminal event.
type Event interface {
	isEvent()
}

// Queued is emitted once, before the request blocks on admission, and only
// when it actually has to wait (position > 0).
type Queued struct {
	Event    string `json:"event"`
	JobID    int64  `json:"job_id"`
	Position int    `json:"position"`
}

func (Queued) isEvent() {}

// Progress is emitted per transcribed segment.
type Progress struct {
	Event string `json:"event"`
	// Progress is percent complete in [0,100], rounded to 2 decimals,
	// 0 when the audio duration is unknown.
	Progress    float64 `json:"progress"`
	PartialText string  `json:"partial_text"`
}

func (Progress) isEvent() {}

// Done carries the full pipeline result inline and terminates the stream.
type Done struct {
	Event string `json:"event"`
	*Result
}

func (Done) isEvent() {}

// Error terminates the stream when a fatal failure occurs after it started.
type Error struct {
	Event   string `json:"event"`
	Message string `json:"error"`
}

func (Error) isEvent() {}

func newQueued(jobID int64, position int) Queued {
	return Queued{Event: "queued", JobID: jobID, Position: position}
}

func newProgress(progress float64, partial string) Progress {
	return Progress{Event: "progress", Progress: progress, PartialText: partial}
}

func newDone(result *Result) Done {
	return Done{Event: "done", Result: result}
}

func newError(err error) Error {
	return Error{Event: "error", Message: err.Error()}
}
