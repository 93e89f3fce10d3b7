package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const (
	WelcomeSubject       = "Welcome to Your App"
	PasswordResetSubject = "Password Reset Request"
)

// Welcome is the HTML body sent after sign-up.
func Welcome(name string) templ.Component {
	return layout(WelcomeSubject, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<h1>Welcome, %s!</h1><p>Thank you for signing up. We're excited to have you on board.</p>`,
			templ.EscapeString(name))
		return err
	}))
}

func WelcomeText(name string) string {
	return fmt.Sprintf("Welcome, %s!\n\nThank you for signing up. We're excited to have you on board.\n", name)
}

// PasswordReset is the HTML body carrying the reset link.
func PasswordReset(name, resetURL string) templ.Component {
	return layout(PasswordResetSubject, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		href := templ.EscapeString(string(templ.URL(resetURL)))
		_, err := fmt.Fprintf(w,
			`<h1>Password Reset</h1><p>Hello %s,</p>`+
				`<p>You requested a password reset. Click the link below to choose a new password:</p>`+
				`<p><a href="%s">Reset Password</a></p>`+
				`<p>This link will expire in 1 hour.</p>`+
				`<p>If you did not request this, please ignore this email.</p>`,
			templ.EscapeString(name), href)
		return err
	}))
}

func PasswordResetText(name, resetURL string) string {
	return fmt.Sprintf("Hello %s,\n\nYou requested a password reset. Open the link below to choose a new password:\n%s\n\n"+
		"This link will expire in 1 hour. If you did not request this, please ignore this email.\n", name, resetURL)
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s</title></head><body>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}
