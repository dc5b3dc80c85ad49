package models

import (
	"fmt"
	"time"
)

// ExecutionStatus is the lifecycle state of a bulk execution
type ExecutionStatus string

const (
	ExecutionStarting  ExecutionStatus = "starting"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionPartial   ExecutionStatus = "partial"
	ExecutionError     ExecutionStatus = "error"
)

// Execution tracks the progress of one bulk job. It is owned exclusively
// by the worker goroutine that created it; the polling boundary only ever
// reads snapshot copies handed out by the registry.
type Execution struct {
	ID            string          `json:"execution_id"`
	Status        ExecutionStatus `json:"status"`
	Progress      float64         `json:"progress"` // percent, 0-100, monotone while not in error
	Stage         string          `json:"stage"`
	Log           []string        `json:"log"`
	CampaignID    string          `json:"campaign_id,omitempty"`
	AdsCreated    int             `json:"ads_created"`
	AdsFailed     int             `json:"ads_failed"`
	AdsTarget     int             `json:"ads_target"`
	MediaUploaded int             `json:"media_uploaded"`
	MediaReady    int             `json:"media_ready"`
	Error         string          `json:"error,omitempty"`
	StartTime     time.Time       `json:"start_time"`
	ExecutionTime float64         `json:"execution_time_seconds"`
}

// AppendLog appends a timestamped log line
func (e *Execution) AppendLog(msg string) {
	e.Log = append(e.Log, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), msg))
}

// Clone returns a deep copy suitable for handing to the polling boundary
func (e *Execution) Clone() *Execution {
	c := *e
	c.Log = make([]string, len(e.Log))
	copy(c.Log, e.Log)
	return &c
}
