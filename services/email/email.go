// Package emailsvc holds the notification sinks: console, SMTP & Sendgrid.
// Every sink sends synchronously and logs delivery failures instead of returning them.
package emailsvc

import (
	"mime"
	"strings"
	"unicode"

	"github.com/trezcool/coachdesk/core"
)

// NewService returns the sink matching conf.Mail.Provider.
func NewService(conf *core.Config, logger core.Logger) core.EmailService {
	switch conf.Mail.Provider {
	case core.MailProviderSendgrid:
		return NewSendgridService(conf, logger)
	case core.MailProviderSMTP:
		return NewSMTPService(conf, logger)
	default:
		return NewConsoleService(conf, logger)
	}
}

// singleLine replaces control characters (CR & LF included) with spaces.
func singleLine(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

// subjectHeader returns a subject that is safe to write as a raw header value.
// Non-ASCII text is Q-encoded.
func subjectHeader(s string) string {
	return mime.QEncoding.Encode("utf-8", singleLine(s))
}
