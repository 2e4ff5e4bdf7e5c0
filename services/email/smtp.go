package emailsvc

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core"
)

// smtpService delivers messages through an authenticated STARTTLS relay (e.g. Gmail on port 587).
type smtpService struct {
	addr       string
	host       string
	username   string
	password   string
	from       mail.Address
	subjPrefix string
	logger     core.Logger

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ core.EmailService = (*smtpService)(nil)

func NewSMTPService(conf *core.Config, logger core.Logger) core.EmailService {
	return &smtpService{
		addr:       net.JoinHostPort(conf.Mail.SMTPHost, strconv.Itoa(conf.Mail.SMTPPort)),
		host:       conf.Mail.SMTPHost,
		username:   conf.Mail.SenderEmail,
		password:   conf.Mail.SenderPassword,
		from:       conf.DefaultFromEmail(),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
		sendMail:   sendMailTLS,
	}
}

func (svc *smtpService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if err := msg.Render(); err != nil {
			svc.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
			continue
		}
		if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
			continue
		}
		if err := svc.send(*msg); err != nil {
			svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
		}
	}
}

func (svc *smtpService) send(msg core.EmailMessage) error {
	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.from.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", subjectHeader(svc.subjPrefix+msg.Subject))
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		_, _ = fmt.Fprintf(body, "CC: %s\r\n", joinAddresses(msg.Cc))
	}
	if err := writeMIMEBody(body, msg); err != nil {
		return err
	}

	rcpts := make([]string, 0, len(msg.To)+len(msg.Cc)+len(msg.Bcc))
	for _, list := range [][]mail.Address{msg.To, msg.Cc, msg.Bcc} {
		for _, a := range list {
			rcpts = append(rcpts, a.Address)
		}
	}

	auth := smtp.PlainAuth("", svc.username, svc.password, svc.host)
	return errors.Wrap(svc.sendMail(svc.addr, auth, svc.from.Address, rcpts, []byte(body.String())), "smtp")
}

func sendMailTLS(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	c, err := smtp.Dial(addr)
	if err != nil {
		return errors.Wrap(err, "dialing")
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err = c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return errors.Wrap(err, "starting tls")
		}
	}
	if err = c.Auth(a); err != nil {
		return errors.Wrap(err, "authenticating")
	}
	if err = c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err = c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
