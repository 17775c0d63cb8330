package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/ndquotes/quote-api/internal/config"
	"github.com/ndquotes/quote-api/internal/domain/keyrequest"
	"go.uber.org/zap"
)

// SMTPNotifier sends mail over submission (STARTTLS + SASL PLAIN). A new
// connection is dialed per message; volume here is a handful of mails per
// approval, not a queue.
type SMTPNotifier struct {
	cfg        *config.SMTPConfig
	adminEmail string
	baseURL    string
	logger     *zap.Logger
}

func NewSMTPNotifier(cfg *config.SMTPConfig, adminEmail, baseURL string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:        cfg,
		adminEmail: adminEmail,
		baseURL:    baseURL,
		logger:     logger.Named("SMTPNotifier"),
	}
}

var _ Notifier = (*SMTPNotifier)(nil)

func (n *SMTPNotifier) SendAPIKey(ctx context.Context, email, name, rawKey string) error {
	body := fmt.Sprintf(`<h1>Your API Key is Ready</h1>
<p>Hello %s,</p>
<p>Thanks for your interest in the Quote API! Your API key has been generated:</p>
<p style="background-color:#f0f0f0;padding:15px;font-family:monospace;word-break:break-all;">%s</p>
<h2>Quick Start</h2>
<p>Add this key to your request headers as <code>X-API-Key</code> and call:</p>
<pre style="background-color:#f0f0f0;padding:10px;">%s/api/quotes/random</pre>
<p>Best regards,<br>The Quote API Team</p>`,
		html.EscapeString(name), rawKey, n.baseURL)

	return n.send(ctx, email, "Your Quote API Key", body)
}

func (n *SMTPNotifier) SendRejection(ctx context.Context, email, name string) error {
	body := fmt.Sprintf(`<h1>API Key Request Update</h1>
<p>Hello %s,</p>
<p>Thank you for your interest in the Quote API.</p>
<p>After reviewing your request, we are unable to provide an API key at this time.</p>
<p>If you would like to provide additional information about your use case, please reply to this email.</p>
<p>Best regards,<br>The Quote API Team</p>`,
		html.EscapeString(name))

	return n.send(ctx, email, "Update on Your Quote API Key Request", body)
}

func (n *SMTPNotifier) SendAdminAlert(ctx context.Context, req *keyrequest.KeyRequest) error {
	if n.adminEmail == "" {
		n.logger.Debug("Admin email not configured, skipping new request alert")
		return nil
	}

	body := fmt.Sprintf(`<h1>New API Key Request</h1>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Usage:</strong> %s</p>
<p><strong>Request ID:</strong> %s</p>`,
		html.EscapeString(req.Name), html.EscapeString(req.Email), html.EscapeString(req.Usage), req.ID)

	return n.send(ctx, n.adminEmail, "New API Key Request", body)
}

func (n *SMTPNotifier) SendPendingDigest(ctx context.Context, requests []*keyrequest.KeyRequest) error {
	if n.adminEmail == "" || len(requests) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<h1>%d API Key Requests Awaiting Review</h1><ul>", len(requests)))
	for _, req := range requests {
		sb.WriteString(fmt.Sprintf("<li><strong>%s</strong> (%s) &ndash; %s, submitted %s</li>",
			html.EscapeString(req.Name),
			html.EscapeString(req.Email),
			html.EscapeString(req.Usage),
			req.CreatedAt.Format("2006-01-02 15:04 MST"),
		))
	}
	sb.WriteString("</ul>")

	return n.send(ctx, n.adminEmail, "Pending API Key Requests", sb.String())
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(n.cfg.Host, fmt.Sprintf("%d", n.cfg.Port))

	client, err := smtp.DialStartTLS(addr, &tls.Config{ServerName: n.cfg.Host})
	if err != nil {
		n.logger.Error("Failed to connect to SMTP server", zap.String("addr", addr), zap.Error(err))
		return fmt.Errorf("smtp dial failed: %w", err)
	}
	defer client.Close()

	client.CommandTimeout = n.cfg.Timeout
	client.SubmissionTimeout = n.cfg.Timeout

	if err := client.Auth(sasl.NewPlainClient("", n.cfg.User, n.cfg.Password)); err != nil {
		n.logger.Error("SMTP authentication failed", zap.Error(err))
		return fmt.Errorf("smtp auth failed: %w", err)
	}

	msg := buildMessage(n.cfg.From, to, subject, htmlBody)
	if err := client.SendMail(envelopeAddress(n.cfg.From), []string{to}, strings.NewReader(msg)); err != nil {
		n.logger.Error("Failed to send email", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("smtp send failed: %w", err)
	}

	n.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return client.Quit()
}

func buildMessage(from, to, subject, htmlBody string) string {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)
	sb.WriteString("\r\n")
	return sb.String()
}

// envelopeAddress strips an optional display name from a configured
// sender like `Quote API <noreply@example.com>`.
func envelopeAddress(from string) string {
	if start := strings.LastIndex(from, "<"); start != -1 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return from
}
