package status

// Status represents one processing phase state of a diary entry
type Status int

const (
	// Pending - no processing started
	Pending Status = iota + 1
	// Processing - a task id was minted, work happens on the next result poll
	Processing
	// Completed - final step
	Completed
	// Failed - final step, re-entered only by an explicit restart
	Failed
)

var (
	statusName = map[Status]string{Pending: "pending", Processing: "processing",
		Completed: "completed", Failed: "failed"}
	nameStatus = map[string]Status{"pending": Pending, "processing": Processing,
		"completed": Completed, "failed": Failed}
)

func (st Status) String() string {
	return statusName[st]
}

// From returns status obj from string
func From(st string) Status {
	return nameStatus[st]
}

// Terminal indicates no further automatic transition
func (st Status) Terminal() bool {
	return st == Completed || st == Failed
}
