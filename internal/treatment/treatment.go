// Package treatment keeps clinical treatment records in step with the
// appointments they are performed in.
package treatment

import "github.com/hackgods/dental-clinic-scheduling/internal/appointment"

type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// StatusFor maps an appointment status onto the treatment status it implies.
// Statuses that say nothing about the treatment report false.
func StatusFor(s appointment.Status) (Status, bool) {
	switch s {
	case appointment.StatusInProgress:
		return StatusInProgress, true
	case appointment.StatusCompleted:
		return StatusCompleted, true
	case appointment.StatusCancelled:
		return StatusCancelled, true
	}
	return "", false
}
