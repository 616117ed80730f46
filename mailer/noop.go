package mailer

import "github.com/stablelink/stablelink/models"

type noopMailer struct{}

func (m *noopMailer) SaleNotificationMail(owner *models.User, link *models.Link, sale *models.Sale) error {
	return nil
}
