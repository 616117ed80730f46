package mailer

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/stablelink/stablelink/conf"
	"github.com/stablelink/stablelink/models"
)

// Mailer notifies a creator about activity on their links. Only links
// with notifications enabled ever trigger a mail.
type Mailer interface {
	SaleNotificationMail(owner *models.User, link *models.Link, sale *models.Sale) error
}

// NewMailer returns a mailer for the given configuration. Without an
// SMTP host configured all notifications are silently dropped.
func NewMailer(config *conf.Configuration) Mailer {
	if config.Mailer.Host == "" {
		return &noopMailer{}
	}

	return &smtpMailer{
		from:    config.Mailer.From,
		siteURL: config.SiteURL,
		dialer:  gomail.NewDialer(config.Mailer.Host, config.Mailer.Port, config.Mailer.User, config.Mailer.Pass),
	}
}

type smtpMailer struct {
	from    string
	siteURL string
	dialer  *gomail.Dialer
}

// SaleNotificationMail sends the owner a short notice about a recorded sale.
func (m *smtpMailer) SaleNotificationMail(owner *models.User, link *models.Link, sale *models.Sale) error {
	if owner.Email == "" {
		return nil
	}

	body := fmt.Sprintf(
		"You received a payment of %v %s on %s.\n\nLink: %s%s\nTotal sales so far: %d\n",
		sale.Amount, sale.Currency, link.Name, m.siteURL, link.Path, link.Sales+1,
	)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", owner.Email)
	msg.SetHeader("Subject", fmt.Sprintf("New sale on %s", link.Name))
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}
