package notifications

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/tradepulse/tradepulse-backend/pkg/enums"
)

type emailTemplate struct {
	subject string
	body    *template.Template
}

func mustTemplate(name, body string) *template.Template {
	return template.Must(template.New(name).Option("missingkey=zero").Parse(body))
}

// registry maps template keys to subject lines and plain-text bodies.
// Params render through text/template; missing keys render empty.
var registry = map[enums.EmailTemplate]emailTemplate{
	enums.EmailTemplateInvitePending: {
		subject: "Your signal channel invite is on its way",
		body: mustTemplate("invite_pending",
			"Hi,\n\nYour subscription{{if .symbol}} for {{.symbol}}{{end}} is confirmed. "+
				"We are preparing your signal channel invite and will send it shortly.\n\n— TradePulse"),
	},
	enums.EmailTemplateInviteSent: {
		subject: "Your signal channel invite has been sent",
		body: mustTemplate("invite_sent",
			"Hi,\n\nWe just sent your invite{{if .symbol}} for {{.symbol}}{{end}}. "+
				"Accept it to start receiving signals.\n\n— TradePulse"),
	},
	enums.EmailTemplateInviteCompleted: {
		subject: "Welcome aboard — your subscription is live",
		body: mustTemplate("invite_completed",
			"Hi,\n\nYour invite is complete and your subscription{{if .symbol}} for {{.symbol}}{{end}} is now active."+
				"{{if .expiry_date}} It runs until {{.expiry_date}}.{{end}}\n\n— TradePulse"),
	},
	enums.EmailTemplateInviteCanceled: {
		subject: "Your subscription invite was cancelled",
		body: mustTemplate("invite_canceled",
			"Hi,\n\nYour invite{{if .symbol}} for {{.symbol}}{{end}} has been cancelled. "+
				"Contact support if this is unexpected.\n\n— TradePulse"),
	},
	enums.EmailTemplatePaymentReceived: {
		subject: "Payment received",
		body: mustTemplate("payment_received",
			"Hi,\n\nWe received your payment{{if .amount}} of {{.amount}}{{end}}. Thank you.\n\n— TradePulse"),
	},
	enums.EmailTemplatePaymentFailed: {
		subject: "Payment failed",
		body: mustTemplate("payment_failed",
			"Hi,\n\nYour payment could not be processed. Please try again or contact support.\n\n— TradePulse"),
	},
}

// Render produces the subject and plain-text body for a templated email.
func Render(email Email) (subject, body string, err error) {
	entry, ok := registry[email.Template]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", email.Template)
	}

	params := map[string]string{}
	for k, v := range email.Params {
		params[k] = v
	}

	var buf bytes.Buffer
	if err := entry.body.Execute(&buf, params); err != nil {
		return "", "", fmt.Errorf("render template %q: %w", email.Template, err)
	}
	return entry.subject, buf.String(), nil
}
