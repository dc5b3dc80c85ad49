package common

import (
	"github.com/google/uuid"
)

// NewExecutionID generates a unique execution ID with the "exec_" prefix
// Format: exec_<uuid>
func NewExecutionID() string {
	return "exec_" + uuid.New().String()
}
