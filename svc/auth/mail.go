package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/email/templates"
	"github.com/dmitrymomot/authkit/pkg/queue"
	"github.com/dmitrymomot/authkit/svc/account"
)

// Enqueuer submits a task for background execution.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) error
}

// WelcomeEmail is queued after sign-up.
type WelcomeEmail struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (WelcomeEmail) TaskName() string { return "auth.welcome_email" }

// PasswordResetEmail carries the reset link for one account.
type PasswordResetEmail struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	ResetURL string `json:"reset_url"`
}

func (PasswordResetEmail) TaskName() string { return "auth.password_reset_email" }

// MailHandlers render and deliver the queued auth emails through sender.
func MailHandlers(sender email.Sender) []queue.Handler {
	return []queue.Handler{
		queue.NewTaskHandler(func(ctx context.Context, p WelcomeEmail) error {
			html, err := templates.Render(ctx, templates.Welcome(p.Name))
			if err != nil {
				return err
			}
			return sender.SendEmail(ctx, email.Message{
				To:       p.Email,
				Subject:  templates.WelcomeSubject,
				BodyHTML: html,
				BodyText: templates.WelcomeText(p.Name),
				Tag:      "welcome",
			})
		}),
		queue.NewTaskHandler(func(ctx context.Context, p PasswordResetEmail) error {
			html, err := templates.Render(ctx, templates.PasswordReset(p.Name, p.ResetURL))
			if err != nil {
				return err
			}
			return sender.SendEmail(ctx, email.Message{
				To:       p.Email,
				Subject:  templates.PasswordResetSubject,
				BodyHTML: html,
				BodyText: templates.PasswordResetText(p.Name, p.ResetURL),
				Tag:      "password-reset",
			})
		}),
	}
}

const PurgeResetTokensTask = "purge_expired_reset_tokens"

// PurgeResetTokensHandler clears expired reset tokens. The scheduler runs
// it under PurgeResetTokensTask.
func PurgeResetTokensHandler(store account.Store, now func() time.Time) queue.Handler {
	if now == nil {
		now = time.Now
	}
	return queue.NewPeriodicTaskHandler(PurgeResetTokensTask, func(ctx context.Context) error {
		if _, err := store.PurgeExpiredResetTokens(ctx, now()); err != nil {
			return fmt.Errorf("purge reset tokens: %w", err)
		}
		return nil
	})
}
