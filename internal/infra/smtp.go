package infra

import (
	"bytes"
	"fmt"
	"net/smtp"

	"obraspm/internal/config"

	"github.com/jordan-wright/email"
)

// Adjunto is an in-memory attachment.
type Adjunto struct {
	Nombre      string
	ContentType string
	Datos       []byte
}

// Mensaje is one outgoing email.
type Mensaje struct {
	Para     []string
	Asunto   string
	Texto    string
	Adjuntos []Adjunto
}

// Mailer sends mail through the configured SMTP relay, guarded by a
// circuit breaker.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
	breaker  *CircuitBreaker
}

func NewMailer(cfg *config.Config, breaker *CircuitBreaker) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		breaker:  breaker,
	}
}

// Habilitado reports whether an SMTP host is configured.
func (m *Mailer) Habilitado() bool { return m != nil && m.host != "" }

// Breaker exposes the breaker for health reporting.
func (m *Mailer) Breaker() *CircuitBreaker { return m.breaker }

func (m *Mailer) Enviar(msg Mensaje) error {
	e := email.NewEmail()
	e.From = m.from
	if e.From == "" {
		e.From = m.user
	}
	e.To = msg.Para
	e.Subject = msg.Asunto
	e.Text = []byte(msg.Texto)
	for _, a := range msg.Adjuntos {
		if _, err := e.Attach(bytes.NewReader(a.Datos), a.Nombre, a.ContentType); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", a.Nombre, err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	send := func() error { return e.Send(m.addr, auth) }
	if m.breaker == nil {
		return send()
	}
	return m.breaker.Execute(send)
}
