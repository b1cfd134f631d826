package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/services/logger"
)

var conf = &core.Config{AppName: "Kozi", Email: core.EmailConfig{DefaultFromEmail: "noreply@test.cd"}}

func TestConsoleService_SendMessages(t *testing.T) {
	from := mail.Address{Name: "Kozi", Address: "noreply@test.cd"}
	to := []mail.Address{{Name: "Main Hall", Address: "hall@test.cd"}}

	tests := []struct {
		name         string
		msg          core.EmailMessage
		wantSent     bool
		wantText     []string
		wantHTMLPart bool
	}{
		{
			name:     "plain body",
			msg:      core.EmailMessage{From: from, To: to, Subject: "Hi", BodyStr: "Hello there"},
			wantSent: true,
			wantText: []string{"Hello there"},
		},
		{
			name: "template",
			msg: core.EmailMessage{
				From:         from,
				To:           to,
				Subject:      "Reservation request: Course7",
				TemplateName: "reservation",
				TemplateData: map[string]interface{}{
					"VenueName":       "Main Hall",
					"CourseName":      "Course7",
					"Date":            "Mon, 02 Mar 2026 09:00:00 UTC",
					"EndTime":         "",
					"MaxStudents":     12,
					"ReservationInfo": "Room 4",
					"Rider":           "",
				},
			},
			wantSent:     true,
			wantText:     []string{"Hello Main Hall", `"Course7"`, "Participants (max): 12", "Room 4", "Kozi"},
			wantHTMLPart: true,
		},
		{
			name: "no recipients",
			msg:  core.EmailMessage{From: from, Subject: "Hi", BodyStr: "Hello there"},
		},
		{
			name: "no content",
			msg:  core.EmailMessage{From: from, To: to, Subject: "Hi"},
		},
		{
			name: "unknown template",
			msg:  core.EmailMessage{From: from, To: to, Subject: "Hi", TemplateName: "lol"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewConsoleServiceMock(conf, logsvc.NewNopLogger())
			msg := tt.msg
			svc.SendMessages(&msg)

			sent := svc.SentMessages()
			if !tt.wantSent {
				assert.Empty(t, sent)
				return
			}
			require.Len(t, sent, 1)
			for _, want := range tt.wantText {
				assert.Contains(t, sent[0].TextContent, want)
			}
			assert.Equal(t, tt.wantHTMLPart, sent[0].HTMLContent != "")
		})
	}
}

func TestConsoleService_format(t *testing.T) {
	svc := NewConsoleService(conf, logsvc.NewNopLogger())
	body, err := svc.format(core.EmailMessage{
		From:        mail.Address{Name: "Kozi", Address: "noreply@test.cd"},
		To:          []mail.Address{{Address: "hall@test.cd"}, {Address: "annex@test.cd"}},
		Cc:          []mail.Address{{Name: "Jane Doe", Address: "jane@test.cd"}},
		Subject:     "Hi",
		TextContent: "Hello there",
		HTMLContent: "<p>Hello there</p>",
	})
	require.NoError(t, err)

	for _, want := range []string{
		"Subject: [Kozi] Hi\r\n",
		"To: <hall@test.cd>, <annex@test.cd>\r\n",
		`CC: "Jane Doe" <jane@test.cd>` + "\r\n",
		"Content-Type: multipart/alternative; boundary=",
		"Content-Type: text/plain",
		"Content-Type: text/html",
		"<p>Hello there</p>",
	} {
		assert.Contains(t, body, want)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		want    core.EmailService
	}{
		{backend: "console", want: &ConsoleService{}},
		{backend: "", want: &ConsoleService{}},
		{backend: "sendgrid", want: &sendgridService{}},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c := *conf
			c.Email.Backend = tt.backend
			assert.IsType(t, tt.want, New(&c, logsvc.NewNopLogger()))
		})
	}
}
