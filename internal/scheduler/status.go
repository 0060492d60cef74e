package scheduler

type Status string

const (
	StatusReady    Status = "ready"
	StatusPaused   Status = "paused"
	StatusWaiting  Status = "waiting"
	StatusCooldown Status = "cooldown"
)

// Color is the UI badge variant for the status.
func (s Status) Color() string {
	switch s {
	case StatusCooldown:
		return "warning"
	case StatusWaiting:
		return "danger"
	case StatusReady:
		return "success"
	case StatusPaused:
		return "secondary"
	default:
		return ""
	}
}

// CanDispatch reports whether the dispatcher may pop in this status.
func (s Status) CanDispatch() bool {
	return s == StatusReady
}
