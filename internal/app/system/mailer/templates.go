// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"html/template"
	"strconv"
)

// WelcomeEmailData contains the data for a welcome email sent to new users.
type WelcomeEmailData struct {
	AppName  string
	UserName string
	LoginURL string
}

// WelcomeEmail generates both plain text and HTML versions of the welcome email.
func WelcomeEmail(data WelcomeEmailData) (textBody, htmlBody string) {
	textBody = "Hi " + data.UserName + ",\n\n" +
		"Welcome to " + data.AppName + "! Your account has been created.\n\n" +
		"Sign in here: " + data.LoginURL + "\n"

	htmlBody = render(welcomeTmpl, data)
	return textBody, htmlBody
}

// PasswordResetEmailData contains the data for a password reset email.
type PasswordResetEmailData struct {
	AppName   string
	UserName  string
	ResetURL  string
	ExpiryMin int
}

// PasswordResetEmail generates both plain text and HTML versions of a
// password reset email.
func PasswordResetEmail(data PasswordResetEmailData) (textBody, htmlBody string) {
	textBody = "Hi " + data.UserName + ",\n\n" +
		"We received a request to reset your " + data.AppName + " password.\n\n" +
		"Reset it here: " + data.ResetURL + "\n\n" +
		"This link expires in " + strconv.Itoa(data.ExpiryMin) + " minutes. " +
		"If you did not request this, you can safely ignore this email.\n"

	htmlBody = render(passwordResetTmpl, data)
	return textBody, htmlBody
}

// InvitationEmailData contains the data for a repository invitation email.
type InvitationEmailData struct {
	AppName        string
	InviterName    string
	RepositoryName string
	Role           string
	AcceptURL      string
	ExpiresIn      string // e.g. "7 days"
}

// InvitationEmail generates both plain text and HTML versions of an
// invitation email.
func InvitationEmail(data InvitationEmailData) (textBody, htmlBody string) {
	textBody = data.InviterName + " invited you to join \"" + data.RepositoryName +
		"\" on " + data.AppName + " as " + data.Role + ".\n\n" +
		"Accept the invitation here: " + data.AcceptURL + "\n\n" +
		"The invitation expires in " + data.ExpiresIn + ".\n"

	htmlBody = render(invitationTmpl, data)
	return textBody, htmlBody
}

// NotificationEmailData contains the data for a generic notification email.
type NotificationEmailData struct {
	AppName    string
	Title      string
	Message    string
	ActionURL  string // optional
	ActionText string // optional, defaults handled by template
}

// NotificationEmail generates both plain text and HTML versions of a
// notification email.
func NotificationEmail(data NotificationEmailData) (textBody, htmlBody string) {
	textBody = data.Title + "\n\n" + data.Message + "\n"
	if data.ActionURL != "" {
		textBody += "\n" + data.ActionURL + "\n"
	}

	htmlBody = render(notificationTmpl, data)
	return textBody, htmlBody
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		// Templates are static and parsed at init; execution only fails on
		// writer errors, which bytes.Buffer does not produce.
		return ""
	}
	return buf.String()
}

const emailStyle = `font-family:Arial,Helvetica,sans-serif;max-width:560px;margin:0 auto;color:#222`
const buttonStyle = `display:inline-block;padding:10px 22px;background:#9D0045;color:#fff;text-decoration:none;border-radius:4px`

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<div style="` + emailStyle + `">
  <h2>Welcome to {{.AppName}}</h2>
  <p>Hi {{.UserName}},</p>
  <p>Your account has been created. You can sign in right away and start
  exploring repositories.</p>
  <p><a href="{{.LoginURL}}" style="` + buttonStyle + `">Sign in</a></p>
</div>`))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`
<div style="` + emailStyle + `">
  <h2>Reset your password</h2>
  <p>Hi {{.UserName}},</p>
  <p>We received a request to reset your {{.AppName}} password. The link
  below expires in {{.ExpiryMin}} minutes.</p>
  <p><a href="{{.ResetURL}}" style="` + buttonStyle + `">Reset password</a></p>
  <p style="color:#666;font-size:13px">If you did not request this, you can
  safely ignore this email.</p>
</div>`))

var invitationTmpl = template.Must(template.New("invitation").Parse(`
<div style="` + emailStyle + `">
  <h2>You have been invited</h2>
  <p>{{.InviterName}} invited you to join <strong>{{.RepositoryName}}</strong>
  on {{.AppName}} as <strong>{{.Role}}</strong>.</p>
  <p><a href="{{.AcceptURL}}" style="` + buttonStyle + `">Accept invitation</a></p>
  <p style="color:#666;font-size:13px">The invitation expires in {{.ExpiresIn}}.</p>
</div>`))

var notificationTmpl = template.Must(template.New("notification").Parse(`
<div style="` + emailStyle + `">
  <h2>{{.Title}}</h2>
  <p>{{.Message}}</p>
  {{if .ActionURL}}<p><a href="{{.ActionURL}}" style="` + buttonStyle + `">{{if .ActionText}}{{.ActionText}}{{else}}View{{end}}</a></p>{{end}}
</div>`))
