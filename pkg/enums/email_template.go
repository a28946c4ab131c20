package enums

// EmailTemplate identifies a registered notification template.
type EmailTemplate string

const (
	EmailTemplateInvitePending   EmailTemplate = "invite_pending"
	EmailTemplateInviteSent      EmailTemplate = "invite_sent"
	EmailTemplateInviteCompleted EmailTemplate = "invite_completed"
	EmailTemplateInviteCanceled  EmailTemplate = "invite_canceled"
	EmailTemplatePaymentReceived EmailTemplate = "payment_received"
	EmailTemplatePaymentFailed   EmailTemplate = "payment_failed"
)

// String implements fmt.Stringer.
func (t EmailTemplate) String() string {
	return string(t)
}

// TemplateForInviteStatus picks the notification template for an invite
// transition. Unknown statuses fall back to the pending template.
func TemplateForInviteStatus(status InviteStatus) EmailTemplate {
	switch status {
	case InviteStatusCompleted:
		return EmailTemplateInviteCompleted
	case InviteStatusSent:
		return EmailTemplateInviteSent
	case InviteStatusCancelled:
		return EmailTemplateInviteCanceled
	case InviteStatusPending:
		return EmailTemplateInvitePending
	default:
		return EmailTemplateInvitePending
	}
}
