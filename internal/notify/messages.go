package notify

import (
	"fmt"

	"github.com/saif-byte/event-website/internal/model"
)

// EnqueueRegistrationNotice queues a registration confirmation for the
// user. Paid events get pending-payment wording, free events a plain
// confirmation. Implements registration.Notifier.
func (m *Mailer) EnqueueRegistrationNotice(user model.User, event model.Event, paid bool) {
	msg := &message{
		To: []recipient{{Email: user.Email, Name: user.Name}},
	}

	if paid {
		msg.Subject = fmt.Sprintf("Complete your payment for %s", event.Name)
		msg.TextContent = fmt.Sprintf(
			"Hi %s,\n\n"+
				"Thank you for registering for %s!\n\n"+
				"Your registration has been received. Since this is a paid event, your "+
				"spot will only be confirmed after we receive the payment of $%.2f.\n\n"+
				"Event date: %s\nLocation: %s\n\n"+
				"Please complete the payment at your earliest convenience to secure your seat.\n\n"+
				"Best regards,\nThe Event Team\n",
			user.Name, event.Name, event.Price,
			event.StartDate.Format("January 2, 2006"), event.Location)
	} else {
		msg.Subject = fmt.Sprintf("You're registered for %s!", event.Name)
		msg.TextContent = fmt.Sprintf(
			"Welcome, %s!\n\n"+
				"You're all set for %s.\n\n"+
				"Date: %s\nLocation: %s\n\n"+
				"Get ready for an amazing experience!\n\n"+
				"Cheers,\nThe Event Team\n",
			user.Name, event.Name,
			event.StartDate.Format("January 2, 2006"), event.Location)
	}

	m.enqueue(msg)
}

// EnqueueEventReminder queues an upcoming-event reminder for one
// registrant.
func (m *Mailer) EnqueueEventReminder(email, name string, event model.Event) {
	m.enqueue(&message{
		To:      []recipient{{Email: email, Name: name}},
		Subject: fmt.Sprintf("Reminder: %s is coming up", event.Name),
		TextContent: fmt.Sprintf(
			"Hi %s,\n\n"+
				"Just a reminder that %s starts on %s.\n\n"+
				"Location: %s\n\n"+
				"See you there!\nThe Event Team\n",
			name, event.Name,
			event.StartDate.Format("January 2, 2006 at 15:04"), event.Location),
	})
}
