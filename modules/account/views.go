package account

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

type SignInPageParams struct {
	SiteKey       string
	GoogleEnabled bool
	Flash         string
}

type SignUpPageParams struct {
	SiteKey       string
	GoogleEnabled bool
	Flash         string
}

type ForgotPasswordPageParams struct {
	Flash string
}

type ResetPasswordPageParams struct {
	Token string
}

type ChangePasswordPageParams struct {
	Email string
}

type HomePageParams struct {
	Email string
}

// Views renders the HTML pages. Any nil field falls back to DefaultViews.
type Views struct {
	SignIn         func(SignInPageParams) templ.Component
	SignUp         func(SignUpPageParams) templ.Component
	ForgotPassword func(ForgotPasswordPageParams) templ.Component
	ResetPassword  func(ResetPasswordPageParams) templ.Component
	ChangePassword func(ChangePasswordPageParams) templ.Component
	Home           func(HomePageParams) templ.Component
}

// DefaultViews are minimal pages whose forms post to the JSON API.
func DefaultViews() Views {
	return Views{
		SignIn:         signInPage,
		SignUp:         signUpPage,
		ForgotPassword: forgotPasswordPage,
		ResetPassword:  resetPasswordPage,
		ChangePassword: changePasswordPage,
		Home:           homePage,
	}
}

func (v Views) withDefaults() Views {
	d := DefaultViews()
	if v.SignIn == nil {
		v.SignIn = d.SignIn
	}
	if v.SignUp == nil {
		v.SignUp = d.SignUp
	}
	if v.ForgotPassword == nil {
		v.ForgotPassword = d.ForgotPassword
	}
	if v.ResetPassword == nil {
		v.ResetPassword = d.ResetPassword
	}
	if v.ChangePassword == nil {
		v.ChangePassword = d.ChangePassword
	}
	if v.Home == nil {
		v.Home = d.Home
	}
	return v
}

func signInPage(p SignInPageParams) templ.Component {
	return page("Sign in", p.SiteKey, raw(
		flash(p.Flash),
		apiForm("/api/v1/signin", "signin", p.SiteKey, "/auth/home",
			`<label>Email <input type="email" name="email" required></label>`+
				`<label>Password <input type="password" name="password" required></label>`,
			"Sign in"),
		googleLink(p.GoogleEnabled),
		`<p><a href="/auth/forgot-password">Forgot password?</a> · <a href="/auth/signup">Create an account</a></p>`,
	))
}

func signUpPage(p SignUpPageParams) templ.Component {
	return page("Sign up", p.SiteKey, raw(
		flash(p.Flash),
		apiForm("/api/v1/signup", "signup", p.SiteKey, "/auth/home",
			`<label>Name <input type="text" name="name" required></label>`+
				`<label>Email <input type="email" name="email" required></label>`+
				`<label>Password <input type="password" name="password" minlength="6" required></label>`,
			"Sign up"),
		googleLink(p.GoogleEnabled),
		`<p><a href="/auth/signin">Already have an account?</a></p>`,
	))
}

func forgotPasswordPage(p ForgotPasswordPageParams) templ.Component {
	return page("Forgot password", "", raw(
		flash(p.Flash),
		apiForm("/api/v1/forgot-password", "", "", "",
			`<label>Email <input type="email" name="email" required></label>`,
			"Send reset link"),
	))
}

func resetPasswordPage(p ResetPasswordPageParams) templ.Component {
	action := "/api/v1/reset-password/" + templ.EscapeString(p.Token)
	return page("Reset password", "", raw(
		apiForm(action, "", "", "/auth/signin",
			`<label>New password <input type="password" name="newPassword" minlength="6" required></label>`,
			"Reset password"),
	))
}

func changePasswordPage(p ChangePasswordPageParams) templ.Component {
	return page("Change password", "", raw(
		fmt.Sprintf(`<p>Signed in as %s</p>`, templ.EscapeString(p.Email)),
		apiForm("/api/v1/reset-password", "", "", "/auth/home",
			`<label>Current password <input type="password" name="oldPassword" required></label>`+
				`<label>New password <input type="password" name="newPassword" minlength="6" required></label>`,
			"Change password"),
	))
}

func homePage(p HomePageParams) templ.Component {
	return page("Home", "", raw(
		fmt.Sprintf(`<p>Welcome, %s</p>`, templ.EscapeString(p.Email)),
		`<p><a href="/auth/reset-password">Change password</a></p>`,
		apiForm("/api/v1/signout", "", "", "/auth/signin", "", "Sign out"),
	))
}

// apiForm posts urlencoded fields with fetch and follows next on success.
// When siteKey is set the reCAPTCHA proof for action is added first.
func apiForm(endpoint, action, siteKey, next, fields, submit string) string {
	return fmt.Sprintf(`<form method="post" action="%s" data-api data-action="%s" data-sitekey="%s" data-next="%s">`+
		`%s<input type="hidden" name="%s"><p class="message" role="alert"></p><button type="submit">%s</button></form>`,
		endpoint, templ.EscapeString(action), templ.EscapeString(siteKey), next, fields, CaptchaField, templ.EscapeString(submit))
}

func googleLink(enabled bool) string {
	if !enabled {
		return ""
	}
	return `<p><a href="/auth/google">Continue with Google</a></p>`
}

func flash(msg string) string {
	if msg == "" {
		return ""
	}
	return fmt.Sprintf(`<p class="flash" role="alert">%s</p>`, templ.EscapeString(msg))
}

func raw(parts ...string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		for _, p := range parts {
			if _, err := io.WriteString(w, p); err != nil {
				return err
			}
		}
		return nil
	})
}

const formScript = `<script>
document.querySelectorAll('form[data-api]').forEach(function (f) {
  f.addEventListener('submit', async function (e) {
    e.preventDefault();
    var key = f.dataset.sitekey;
    if (key && window.grecaptcha) {
      await new Promise(function (r) { grecaptcha.ready(r); });
      f.elements['` + CaptchaField + `'].value = await grecaptcha.execute(key, {action: f.dataset.action});
    }
    var res = await fetch(f.action, {method: 'POST', credentials: 'same-origin', body: new URLSearchParams(new FormData(f))});
    var body = await res.json();
    if (body.success && f.dataset.next) { location.href = f.dataset.next; return; }
    f.querySelector('.message').textContent = body.message;
  });
});
</script>`

func page(title, siteKey string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s</title>`, templ.EscapeString(title)); err != nil {
			return err
		}
		if siteKey != "" {
			if _, err := fmt.Fprintf(w, `<script src="https://www.google.com/recaptcha/api.js?render=%s"></script>`, templ.EscapeString(siteKey)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `</head><body><h1>%s</h1>`, templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, formScript+`</body></html>`)
		return err
	})
}
