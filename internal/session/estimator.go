package session

// BaseSlotSeconds is the assumed duration of one full analysis slot on the
// backend. The wait estimate scales linearly with queue position.
const BaseSlotSeconds = 120

// QueueEstimate is a derived, display-only view of the server queue at the
// moment the waiting stage was entered. SecondsRemaining counts down while
// waiting and never goes below zero.
type QueueEstimate struct {
	PositionInQueue  int
	SecondsRemaining int
}

// EstimateQueue derives the wait estimate from the server-reported count of
// analyses already in progress.
func EstimateQueue(activeCount int) QueueEstimate {
	if activeCount < 0 {
		activeCount = 0
	}
	position := activeCount + 1
	return QueueEstimate{
		PositionInQueue:  position,
		SecondsRemaining: position * BaseSlotSeconds,
	}
}
