package user

import "errors"

// MemberResponse is the roster entry shape returned to admins.
type MemberResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Registered string `json:"registered"`
	IsAdmin    bool   `json:"is_admin"`
}

func ToMemberResponse(u *User) MemberResponse {
	return MemberResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Registered: u.CreatedAt.Format("2006-01-02"),
		IsAdmin:    u.IsAdmin,
	}
}

// AddMemberDTO is the payload for adding an existing user to the team.
type AddMemberDTO struct {
	UserID int64 `json:"user_id"`
}

func (d AddMemberDTO) Validate() error {
	if d.UserID <= 0 {
		return errors.New("user_id is required")
	}
	return nil
}
