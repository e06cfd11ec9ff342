// Package mailer implements a client for sending mail through an HTTP relay.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/nexaplatform/nexa-rewards/internal/config"
)

// Mailer defines attributes of a struct available to its methods.
type Mailer struct {
	client     *resty.Client
	mailConfig *config.MailConfig
	log        *zerolog.Logger
}

// InitMailer initializes a resty client for the mail relay.
func InitMailer(mailConfig *config.MailConfig, log *zerolog.Logger) *Mailer {
	relayClient := resty.New()
	log.Info().Msg("mail relay client initialized")
	return &Mailer{client: relayClient, mailConfig: mailConfig, log: log}
}

type relayMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send posts one message to the relay.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if m.mailConfig.RelayAddress == "" {
		return errors.New("mail relay address is not configured")
	}
	response, err := m.client.R().SetContext(ctx).SetBody(relayMessage{
		From:    m.mailConfig.FromAddress,
		To:      to,
		Subject: subject,
		HTML:    body,
	}).Post(m.mailConfig.RelayAddress + "/api/send")
	if err != nil {
		m.log.Err(err).Msg(fmt.Sprintf("mail delivery failed for %s", to))
		return err
	}
	if response.IsError() {
		err = fmt.Errorf("mail relay answered %s", response.Status())
		m.log.Err(err).Msg(fmt.Sprintf("mail delivery failed for %s", to))
		return err
	}
	m.log.Info().Msg(fmt.Sprintf("mail delivery done for %s", to))
	return nil
}
