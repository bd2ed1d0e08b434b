package postgres

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/officeteam/office-utilities/internal/auth"
	"github.com/officeteam/office-utilities/internal/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetPasswordForEmail(email string) (string, int64, error) {
	var passwordHash string
	var userID int64
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", 0, fmt.Errorf("user not found")
		}
		return "", 0, err
	}
	return passwordHash, userID, nil
}

// GetUser loads the directory row plus the team-membership meta flag
// into the actor shape used by the capability checks.
func (r *Repository) GetUser(userID int64) (*auth.User, error) {
	var u user.User
	if err := r.db.Where("id = ? AND is_active = ?", userID, true).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	var meta user.Meta
	isMember := false
	err := r.db.Where("user_id = ? AND meta_key = ?", userID, user.MetaKeyMember).First(&meta).Error
	if err == nil && meta.Value == "1" {
		isMember = true
	}

	return &auth.User{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		IsAdmin:  u.IsAdmin,
		IsMember: isMember,
	}, nil
}
