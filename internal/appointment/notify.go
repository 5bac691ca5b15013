package appointment

import (
	"fmt"

	"github.com/hackgods/dental-clinic-scheduling/internal/notification"
)

var statusLabels = map[Status]string{
	StatusScheduled:  "scheduled",
	StatusInProgress: "in progress",
	StatusCompleted:  "completed",
	StatusCancelled:  "cancelled",
	StatusNoShow:     "marked as missed",
}

func when(a Appointment) string {
	return fmt.Sprintf("%s at %s", FormatDate(a.ScheduledDate), a.ScheduledTime)
}

func requestReceivedContent(r AppointmentRequest, patientName string) notification.Content {
	title, priority := "New Appointment Request", notification.PriorityNormal
	switch r.Urgency {
	case UrgencyEmergency:
		title, priority = "EMERGENCY: New Appointment Request", notification.PriorityUrgent
	case UrgencyUrgent:
		title, priority = "URGENT: New Appointment Request", notification.PriorityHigh
	}

	return notification.Content{
		Title: title,
		Message: fmt.Sprintf("%s requested a %s appointment: %s (pain level %d/10), preferred date %s.",
			patientName, r.AppointmentType, r.ChiefComplaint, r.PainLevel, FormatDate(r.PreferredDate)),
		RelatedID: r.ID,
		Priority:  priority,
	}
}

func confirmedContent(a Appointment, dentistName string) notification.Content {
	return notification.Content{
		Title:     "Appointment Confirmed",
		Message:   fmt.Sprintf("Your appointment has been scheduled for %s with %s.", when(a), dentistName),
		RelatedID: a.ID,
	}
}

func newAppointmentContent(a Appointment, patientName string) notification.Content {
	return notification.Content{
		Title: "New Appointment Scheduled",
		Message: fmt.Sprintf("%s has been scheduled with you on %s (%d minutes, %s).",
			patientName, when(a), a.DurationMinutes, a.AppointmentType),
		RelatedID: a.ID,
	}
}

func statusChangedContent(a Appointment) notification.Content {
	return notification.Content{
		Title:     "Appointment Status Updated",
		Message:   fmt.Sprintf("Your appointment on %s is now %s.", when(a), statusLabels[a.Status]),
		RelatedID: a.ID,
	}
}

func cancelledContent(a Appointment, by CancellationType, patientName, reason string) notification.Content {
	c := notification.Content{RelatedID: a.ID, Priority: notification.PriorityHigh}
	switch by {
	case CancelledByPatient:
		c.Title = "Appointment Cancelled by Patient"
		c.Message = fmt.Sprintf("%s cancelled the appointment on %s. Reason: %s", patientName, when(a), reason)
	case CancelledBySystem:
		c.Title = "Appointment Cancelled"
		c.Message = fmt.Sprintf("Your appointment on %s was cancelled automatically. Reason: %s", when(a), reason)
	default:
		c.Title = "Appointment Cancelled"
		c.Message = fmt.Sprintf("Your appointment on %s has been cancelled by the clinic. Reason: %s", when(a), reason)
	}
	return c
}

func declinedContent(r AppointmentRequest) notification.Content {
	msg := fmt.Sprintf("Your appointment request for %s could not be scheduled.", FormatDate(r.PreferredDate))
	if r.DeclineReason != "" {
		msg += " Reason: " + r.DeclineReason
	}
	return notification.Content{
		Title:     "Appointment Request Declined",
		Message:   msg,
		RelatedID: r.ID,
	}
}
