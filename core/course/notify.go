package course

import (
	"net/mail"
	"time"

	"github.com/trezcool/kozi/core"
)

const reservationTemplate = "reservation"

// Notifier emails reservation notices to venues.
type Notifier struct {
	mailer core.EmailService
	from   mail.Address
	logger core.Logger
}

func NewNotifier(mailer core.EmailService, conf *core.Config, logger core.Logger) *Notifier {
	return &Notifier{
		mailer: mailer,
		from:   mail.Address{Name: conf.AppName, Address: conf.Email.DefaultFromEmail},
		logger: logger,
	}
}

type reservationData struct {
	VenueName       string
	CourseName      string
	Date            string
	EndTime         string
	MaxStudents     int
	ReservationInfo string
	Rider           string
}

// ReservationMessage builds the notice for the date. It returns nil if the venue has no email address.
// date.Venue must be set.
func (n *Notifier) ReservationMessage(crs Course, date CourseDate) *core.EmailMessage {
	venue := date.Venue
	if venue == nil || venue.Email1 == "" {
		return nil
	}

	msg := &core.EmailMessage{
		From:         n.from,
		To:           []mail.Address{{Name: venue.Name, Address: venue.Email1}},
		Subject:      "Reservation request: " + crs.Name,
		TemplateName: reservationTemplate,
	}
	if venue.Email2 != "" {
		msg.Cc = append(msg.Cc, mail.Address{Address: venue.Email2})
	}
	for _, c := range []*Contact{venue.Contact1, venue.Contact2} {
		if c != nil && c.Email != "" {
			msg.Cc = append(msg.Cc, mail.Address{Name: c.Name, Address: c.Email})
		}
	}

	data := reservationData{
		VenueName:       venue.Name,
		CourseName:      crs.Name,
		Date:            date.Date.Format(time.RFC1123),
		MaxStudents:     crs.MaxStudents,
		ReservationInfo: date.ReservationInfo,
		Rider:           date.Rider,
	}
	if date.EndTime != nil {
		data.EndTime = date.EndTime.Format(time.RFC1123)
	}
	msg.TemplateData = data
	return msg
}

// NotifyReservation sends the notice in the background; failures are only logged by the email service.
func (n *Notifier) NotifyReservation(crs Course, date CourseDate) {
	msg := n.ReservationMessage(crs, date)
	if msg == nil {
		n.logger.Warn("venue has no email, reservation notice skipped", "venue_id", date.VenueID, "course_date_id", date.ID)
		return
	}
	n.mailer.SendMessages(msg)
}
