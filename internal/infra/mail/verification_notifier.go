// Package mail turns verification requests into outbound email events.
package mail

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/url"
	"sync"

	"authbase/config"
	deliverycontext "authbase/internal/delivery/context"
	"authbase/internal/domain/entity"
	"authbase/internal/domain/lifecycle"
	"authbase/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const verifyEmailPath = "/auth/verify-email"

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Welcome, {{.FirstName}}!</h2>
  <p>Please confirm your email address to activate your account.</p>
  <p><a href="{{.Link}}" style="display:inline-block;padding:12px 24px;background:#4f46e5;color:#fff;text-decoration:none;border-radius:4px;">Verify email</a></p>
  <p>Or paste this link into your browser:<br>{{.Link}}</p>
  <p>This link expires in {{.ExpiresIn}}.</p>
  <p>If you did not create an account, you can ignore this email.</p>
</body>
</html>`))

type templateData struct {
	FirstName string
	Link      string
	ExpiresIn string
}

// NotifierParams holds dependencies for the verification notifier, injected by Fx
type NotifierParams struct {
	fx.In

	Lc        fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
	Publisher service.EventPublisher
}

// VerificationNotifier publishes verification emails in the background.
type VerificationNotifier struct {
	publisher   service.EventPublisher
	logger      *slog.Logger
	frontendURL string
	from        string
	subject     string
	expiresIn   string

	inflight sync.WaitGroup
}

// NewVerificationNotifier creates the notifier and drains in-flight sends on shutdown.
func NewVerificationNotifier(params NotifierParams) service.VerificationNotifier {
	n := newVerificationNotifier(params.Config, params.Publisher, params.Logger)

	params.Lc.Append(fx.Hook{
		OnStop: n.Drain,
	})

	return n
}

func newVerificationNotifier(cfg *config.Config, publisher service.EventPublisher, logger *slog.Logger) *VerificationNotifier {
	expiresIn := "24 hours"
	if cfg.Auth != nil && cfg.Auth.VerificationTTL > 0 {
		expiresIn = cfg.Auth.VerificationTTL.String()
	}

	return &VerificationNotifier{
		publisher:   publisher,
		logger:      logger,
		frontendURL: cfg.Frontend.URL,
		from:        cfg.Mail.From,
		subject:     cfg.Mail.Subject,
		expiresIn:   expiresIn,
	}
}

// SendVerification renders the email and publishes it without blocking the caller.
// Failures are logged and never reach the caller.
func (n *VerificationNotifier) SendVerification(ctx context.Context, user *entity.User, token string) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, n.logger)

	event, err := n.buildEvent(ctx, user, token)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build verification email",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)

		return
	}

	// The request context ends with the response; keep its values but not its cancellation.
	sendCtx := context.WithoutCancel(ctx)

	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()

		publishCtx, cancel := context.WithTimeout(sendCtx, lifecycle.DefaultTimeout)
		defer cancel()

		if err := n.publisher.PublishEmailEvent(publishCtx, event); err != nil {
			logger.ErrorContext(publishCtx, "Failed to publish verification email",
				slog.String("user_id", event.UserID),
				slog.String("event_id", event.EventID),
				slog.Any("error", err),
			)

			return
		}

		logger.DebugContext(publishCtx, "Verification email published",
			slog.String("user_id", event.UserID),
			slog.String("event_id", event.EventID),
		)
	}()
}

func (n *VerificationNotifier) buildEvent(ctx context.Context, user *entity.User, token string) (*service.EmailEvent, error) {
	link := VerificationLink(n.frontendURL, token)

	var body bytes.Buffer
	err := verificationTemplate.Execute(&body, templateData{
		FirstName: user.FirstName,
		Link:      link,
		ExpiresIn: n.expiresIn,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to render verification template")
	}

	return &service.EmailEvent{
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		EventID:   uuid.NewString(),
		Type:      service.EmailEventVerification,
		UserID:    user.ID.String(),
		From:      n.from,
		To:        user.Email,
		Subject:   n.subject,
		HTMLBody:  body.String(),
		Link:      link,
	}, nil
}

// Drain waits for in-flight sends until ctx is done.
func (n *VerificationNotifier) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "verification emails still in flight")
	}
}

// VerificationLink builds the frontend URL that consumes token.
func VerificationLink(frontendURL, token string) string {
	return frontendURL + verifyEmailPath + "?token=" + url.QueryEscape(token)
}
