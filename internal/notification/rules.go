package notification

import (
	"fmt"
	"time"
)

// Event describes a committed domain change the dispatcher should fan out.
// It carries plain identifiers rather than domain structs so this package
// stays decoupled from the action packages that produce events.
type Event struct {
	Type        Type
	RecordID    string
	PatientID   string
	PatientName string
	DoctorID    string // empty when no doctor is assigned
	Detail      string // reason, test name, company name
	When        time.Time
}

// fanOut applies the event-specific recipient rules. activeAdmins is resolved
// once per event by the dispatcher.
func fanOut(ev Event, activeAdmins []string) []Notification {
	var out []Notification

	add := func(recipient string, priority Priority, title, message string) {
		out = append(out, Notification{
			RecipientID: recipient,
			Type:        ev.Type,
			Channel:     ChannelInApp,
			Priority:    priority,
			Title:       title,
			Message:     message,
			Data:        map[string]any{"record_id": ev.RecordID},
			CreatedAt:   ev.When,
		})
	}

	switch ev.Type {
	case TypeAppointment:
		msg := fmt.Sprintf("Appointment scheduled for %s: %s", ev.PatientName, ev.Detail)
		if ev.DoctorID != "" {
			add(ev.DoctorID, PriorityHigh, "New appointment assigned", msg)
		}
		for _, adminID := range activeAdmins {
			add(adminID, PriorityMedium, "New appointment", msg)
		}

	case TypeLabResultReady:
		msg := fmt.Sprintf("Lab result ready: %s", ev.Detail)
		add(ev.PatientID, PriorityHigh, "Your lab result is ready", msg)
		if ev.DoctorID != "" {
			add(ev.DoctorID, PriorityMedium, "Lab result completed",
				fmt.Sprintf("%s for patient %s", msg, ev.PatientName))
		}

	case TypeAffiliation:
		msg := fmt.Sprintf("New affiliation for %s (%s)", ev.PatientName, ev.Detail)
		for _, adminID := range activeAdmins {
			add(adminID, PriorityMedium, "New affiliation", msg)
		}
	}

	return out
}
