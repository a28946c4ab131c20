package subscriptions

// ResolveInviteStatusAlias collapses the current invite_status field and the
// legacy invite_state alias into one canonical value. The modern field wins
// when both are present. This runs once at the HTTP boundary; nothing past
// it ever sees the alias.
func ResolveInviteStatusAlias(inviteStatus, inviteState *string) *string {
	if inviteStatus != nil {
		return inviteStatus
	}
	return inviteState
}
