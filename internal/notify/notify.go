// Package notify emails the operator when scans are marked failed. Failed
// events are never retried automatically, so someone has to look at them;
// this is the nudge.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/inbucket/html2text"
	mail "github.com/wneessen/go-mail"

	"attendance-kiosk/internal/config"
)

// Notifier sends rate-limited failure notifications. A nil Notifier is
// valid and does nothing.
type Notifier struct {
	cfg     config.EmailConfig
	station string
	logger  *slog.Logger

	mu          sync.Mutex
	lastSent    time.Time
	minInterval time.Duration
}

// New returns a notifier, or nil when SMTP is not configured.
func New(cfg config.EmailConfig, station string) *Notifier {
	if cfg.Host == "" || cfg.To == "" {
		slog.Debug("Email notifications disabled")
		return nil
	}

	minInterval := time.Duration(cfg.MinInterval) * time.Second

	return &Notifier{
		cfg:         cfg,
		station:     station,
		logger:      slog.With("component", "notify"),
		minInterval: minInterval,
	}
}

// SyncFailures notifies the operator that failed events need attention.
// Suppressed when a notification went out within the minimum interval, so
// a flapping server does not flood the inbox.
func (n *Notifier) SyncFailures(failed int, detail string) {
	if n == nil {
		return
	}

	n.mu.Lock()
	if time.Since(n.lastSent) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("Failure notification suppressed by rate limit")
		return
	}
	n.lastSent = time.Now()
	n.mu.Unlock()

	subject := fmt.Sprintf("[%s] %d attendance scans failed to sync", n.station, failed)
	htmlBody := fmt.Sprintf(
		`<html><body>
<p>Station <b>%s</b> marked <b>%d</b> scan(s) as failed during sync.</p>
<p>Last error:</p>
<pre>%s</pre>
<p>Failed scans are not retried automatically. Review them and run
<code>queue reset-failed</code> to re-queue once the cause is fixed.</p>
</body></html>`,
		html.EscapeString(n.station), failed, html.EscapeString(detail))

	if err := n.send(subject, htmlBody); err != nil {
		n.logger.Error("Failed to send notification email", "error", err)
	}
}

func (n *Notifier) send(subject, htmlBody string) error {
	text, err := html2text.FromString(htmlBody, html2text.Options{
		PrettyTables: true,
		OmitLinks:    false,
	})
	if err != nil {
		return fmt.Errorf("failed to convert HTML to text: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}

	recipients := strings.Split(n.cfg.To, ",")
	for i := range recipients {
		recipients[i] = strings.TrimSpace(recipients[i])
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}

	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return client.DialAndSendWithContext(ctx, msg)
}
