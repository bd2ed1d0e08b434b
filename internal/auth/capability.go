package auth

// Action names a capability an actor may exercise. Both the REST layer
// and the Telegram callback handler consult Can, so the two entry points
// cannot drift on who is allowed to do what.
type Action string

const (
	// ActionSubmit covers filing requests, expenses, and notes.
	ActionSubmit Action = "submit"
	// ActionReview covers approving, rejecting, and reprioritizing.
	ActionReview Action = "review"
	// ActionManageTeam covers roster changes and user search.
	ActionManageTeam Action = "manage_team"
	// ActionViewDashboard covers the aggregate stats view.
	ActionViewDashboard Action = "view_dashboard"
	// ActionConfigure covers bot token and global reminder settings.
	ActionConfigure Action = "configure"
)

// Can is the single capability check. Admins can do everything; team
// members can submit; everyone else is read-only on their own data.
func Can(actor *User, action Action) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin {
		return true
	}
	switch action {
	case ActionSubmit:
		return actor.IsMember
	default:
		return false
	}
}
