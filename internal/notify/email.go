package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
)

// EmailNotifier envia o digest por SMTP como multipart/alternative
// (texto simples + HTML). E-mail não tem limite de payload.
type EmailNotifier struct {
	host string
	port int
	user string
	pass string
	from string
	to   string
}

// NewEmail cria um notificador SMTP
func NewEmail(host string, port int, user, pass, from, to string) *EmailNotifier {
	if from == "" {
		from = user
	}
	return &EmailNotifier{host: host, port: port, user: user, pass: pass, from: from, to: to}
}

// Kind retorna o tipo do destino
func (n *EmailNotifier) Kind() Kind {
	return KindEmail
}

// Send monta e envia o e-mail do digest
func (n *EmailNotifier) Send(ctx context.Context, d Digest) error {
	if d.Empty() {
		return nil
	}

	msg := n.buildMessage(d)
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	auth := smtp.PlainAuth("", n.user, n.pass, n.host)

	// smtp.SendMail negocia STARTTLS quando o servidor anuncia suporte
	if err := smtp.SendMail(addr, auth, n.from, []string{n.to}, msg); err != nil {
		return errors.Wrapf(ErrDeliveryFailure, "smtp %s: %v", addr, err)
	}
	return nil
}

const mimeBoundary = "----=_digest_boundary"

func (n *EmailNotifier) buildMessage(d Digest) []byte {
	text := strings.Join(d.TextLines(), "\n")
	html := d.HTML()

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", n.to)
	fmt.Fprintf(&b, "Subject: %s\r\n", d.Subject())
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", mimeBoundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(text)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(html)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return []byte(b.String())
}
