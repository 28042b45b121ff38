package service

const (
	// Stage duration assumed when neither the test file nor the config gives one (minutes)
	DefaultStageDurationMinutes = 3.0

	// Note stored on results that come from a manual override
	NoteAdjusted = "manually adjusted"

	// Note on a final-stage correction whose theoretical load came from the test file
	NoteRecordedTheoreticalLoad = "theoretical load recorded with the test"

	// Subject recorded for imports without one
	UnknownSubject = "unknown"
)
