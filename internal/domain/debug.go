package domain

// DebugRun is an ephemeral group of sibling agent sessions spawned
// together for multi-agent bug investigation. It is tracked only until
// all member sessions reach a terminal status, at which point the group
// is consumed exactly once to trigger a synthesis session.
type DebugRun struct {
	ID         string   // Debug-run id
	TaskPath   string   // Task the investigation belongs to
	SessionIDs []string // Sibling sessions spawned under this run
}

// DebugRunStatus is the aggregate status of a debug run's members.
type DebugRunStatus struct {
	Sessions    []Session // Last observed member sessions
	AllTerminal bool      // True once every member is terminal
}
