package monitor

import "time"

// Status is the outcome of the latest upstream probe.
type Status struct {
	Reachable  bool      `json:"reachable"`
	StatusCode int       `json:"status_code,omitempty"`
	Latency    string    `json:"latency,omitempty"`
	Error      string    `json:"error,omitempty"`
	LastCheck  time.Time `json:"last_check"`
}

// Checked reports whether at least one probe has completed.
func (s Status) Checked() bool {
	return !s.LastCheck.IsZero()
}
