package provision

import "context"

// logNotifier is the fallback InvitationNotifier. It logs the registration
// link so local setups work without a mail collaborator wired in.
type logNotifier struct {
	logger Logger
}

func (n logNotifier) NotifyInvitation(_ context.Context, invitation *Invitation) error {
	n.logger.Info(
		"invitation issued",
		"email", invitation.Email,
		"link", "/register/"+invitation.Token.String(),
	)
	return nil
}
