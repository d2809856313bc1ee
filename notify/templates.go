package notify

import (
	"bytes"
	"html/template"
)

const (
	SubjectVerifyEmail        = "Verify your email"
	SubjectResetPassword      = "Reset your password"
	SubjectConfirmEmailChange = "Confirm your new email address"
	SubjectAccountActivated   = "Account activated"
	SubjectAccountDeactivated = "Account deactivated"
)

const layoutRaw = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background: #f4f4f4; padding: 24px;">
<div style="max-width: 560px; margin: 0 auto; background: #ffffff; padding: 32px; border-radius: 8px;">
<h2 style="color: #2d3748;">{{.Brand}}</h2>
{{block "content" .}}{{end}}
<p style="color: #718096; font-size: 12px;">If you did not request this email you can ignore it.</p>
</div>
</body>
</html>
`

const verifyEmailRaw = `{{define "content"}}<p>Welcome! Use the code below to verify your email address.</p>
<p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Code}}</p>{{end}}`

const resetPasswordRaw = `{{define "content"}}<p>We received a request to reset your password. Use the code below within {{.Validity}}.</p>
<p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Code}}</p>{{end}}`

const emailChangeRaw = `{{define "content"}}<p>Use the code below to confirm this address as your new login email.</p>
<p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Code}}</p>{{end}}`

const accountStatusRaw = `{{define "content"}}{{if .Active}}<p>Your account has been activated. You can log in again.</p>{{else}}<p>Your account has been deactivated.</p>{{end}}
{{if .Motive}}<p>Reason: {{.Motive}}</p>{{end}}{{end}}`

// Templates renders account email bodies.
type Templates struct {
	brand         string
	verifyEmail   *template.Template
	resetPassword *template.Template
	emailChange   *template.Template
	accountStatus *template.Template
}

type templateData struct {
	Brand    string
	Code     string
	Validity string
	Active   bool
	Motive   string
}

// NewTemplates parses the built-in templates.
func NewTemplates(brand string) *Templates {
	return &Templates{
		brand:         brand,
		verifyEmail:   mustParse("verify_email", verifyEmailRaw),
		resetPassword: mustParse("reset_password", resetPasswordRaw),
		emailChange:   mustParse("email_change", emailChangeRaw),
		accountStatus: mustParse("account_status", accountStatusRaw),
	}
}

func mustParse(name, content string) *template.Template {
	return template.Must(template.Must(template.New(name).Parse(layoutRaw)).Parse(content))
}

func (t *Templates) render(tpl *template.Template, data templateData) (string, error) {
	data.Brand = t.brand
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// VerifyEmail builds the registration verification mail.
func (t *Templates) VerifyEmail(to, code string) (Message, error) {
	body, err := t.render(t.verifyEmail, templateData{Code: code})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: SubjectVerifyEmail, HTML: body}, nil
}

// ResetPassword builds the password reset mail.
func (t *Templates) ResetPassword(to, code, validity string) (Message, error) {
	body, err := t.render(t.resetPassword, templateData{Code: code, Validity: validity})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: SubjectResetPassword, HTML: body}, nil
}

// EmailChange builds the mail sent to a pending new address.
func (t *Templates) EmailChange(to, code string) (Message, error) {
	body, err := t.render(t.emailChange, templateData{Code: code})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: SubjectConfirmEmailChange, HTML: body}, nil
}

// AccountStatus builds the activation or deactivation notice.
func (t *Templates) AccountStatus(to string, active bool, motive string) (Message, error) {
	body, err := t.render(t.accountStatus, templateData{Active: active, Motive: motive})
	if err != nil {
		return Message{}, err
	}
	subject := SubjectAccountDeactivated
	if active {
		subject = SubjectAccountActivated
	}
	return Message{To: to, Subject: subject, HTML: body}, nil
}
