package model

// ContainerState is the lifecycle state reported by the container daemon
// (the State.Status field of an inspect response).
type ContainerState string

const (
	StateCreated    ContainerState = "created"
	StateRunning    ContainerState = "running"
	StatePaused     ContainerState = "paused"
	StateRestarting ContainerState = "restarting"
	StateRemoving   ContainerState = "removing"
	StateExited     ContainerState = "exited"
	StateDead       ContainerState = "dead"
)

// KeepPolling reports whether the shipper should keep reading output from a
// container in this state. Every other state, including ones the daemon may
// add later, is terminal for the shipper.
func (s ContainerState) KeepPolling() bool {
	return s == StateCreated || s == StateRunning
}

func (s ContainerState) String() string {
	if s == "" {
		return "unknown"
	}
	return string(s)
}
