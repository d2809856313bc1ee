package notify

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/mail"
	"net/url"

	"github.com/dajohi/goemail"
)

// SMTPConfig holds mail server settings.
type SMTPConfig struct {
	Host        string
	User        string
	Password    string
	From        string
	SystemCerts *x509.CertPool
	SkipVerify  bool
}

// SMTP delivers messages through an SMTPS server.
type SMTP struct {
	client      *goemail.SMTP
	mailName    string
	mailAddress string
}

// NewSMTP returns an SMTP notifier. Host, user and password are required.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" {
		return nil, errors.New("smtp host, user and password are required")
	}

	u, err := url.Parse(fmt.Sprintf("smtps://%v:%v@%v",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password), cfg.Host))
	if err != nil {
		return nil, err
	}

	a, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("parse from address: %w", err)
	}

	tlsConfig := &tls.Config{}
	if cfg.SystemCerts == nil && cfg.SkipVerify {
		tlsConfig.InsecureSkipVerify = true
	} else if cfg.SystemCerts != nil {
		tlsConfig.RootCAs = cfg.SystemCerts
	}

	client, err := goemail.NewSMTP(u.String(), tlsConfig)
	if err != nil {
		return nil, err
	}

	return &SMTP{
		client:      client,
		mailName:    a.Name,
		mailAddress: a.Address,
	}, nil
}

// Send delivers msg. The goemail client has no context support, so ctx is
// only checked before the send starts.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := goemail.NewHTMLMessage(s.mailAddress, msg.Subject, msg.HTML)
	m.AddTo(msg.To)
	if s.mailName != "" {
		m.SetName(s.mailName)
	}
	return s.client.Send(m)
}
