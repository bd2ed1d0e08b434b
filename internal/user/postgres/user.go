package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/officeteam/office-utilities/internal/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(id int64) (*user.User, error) {
	var u user.User
	if err := r.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByEmail(email string) (*user.User, error) {
	var u user.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) ListAdmins() ([]*user.User, error) {
	var users []*user.User
	err := r.db.
		Where("is_admin = ? AND is_active = ?", true, true).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

func (r *Repository) ListMembers() ([]*user.User, error) {
	var users []*user.User
	err := r.db.
		Joins("JOIN user_meta ON user_meta.user_id = users.id").
		Where("user_meta.meta_key = ? AND user_meta.meta_value = ?", user.MetaKeyMember, "1").
		Where("users.is_active = ?", true).
		Order("users.name ASC").
		Find(&users).Error
	return users, err
}

// SearchNonMembers matches name or email against active users that have
// no team-membership row yet.
func (r *Repository) SearchNonMembers(term string, limit int) ([]*user.User, error) {
	var users []*user.User
	pattern := "%" + term + "%"
	err := r.db.
		Where("is_active = ?", true).
		Where("(name LIKE ? OR email LIKE ?)", pattern, pattern).
		Where("NOT EXISTS (SELECT 1 FROM user_meta WHERE user_meta.user_id = users.id AND user_meta.meta_key = ? AND user_meta.meta_value = ?)",
			user.MetaKeyMember, "1").
		Order("name ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *Repository) CountMembers() (int64, error) {
	var count int64
	err := r.db.Model(&user.Meta{}).
		Where("meta_key = ? AND meta_value = ?", user.MetaKeyMember, "1").
		Count(&count).Error
	return count, err
}

func (r *Repository) GetMeta(userID int64, key string) (string, error) {
	var m user.Meta
	err := r.db.Where("user_id = ? AND meta_key = ?", userID, key).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", user.ErrMetaNotFound
		}
		return "", err
	}
	return m.Value, nil
}

// SetMeta upserts on the (user_id, meta_key) pair so regenerating a
// value never leaves duplicate rows behind.
func (r *Repository) SetMeta(userID int64, key, value string) error {
	m := user.Meta{UserID: userID, Key: key, Value: value}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"meta_value"}),
	}).Create(&m).Error
}

func (r *Repository) DeleteMeta(userID int64, key string) error {
	return r.db.
		Where("user_id = ? AND meta_key = ?", userID, key).
		Delete(&user.Meta{}).Error
}

func (r *Repository) FindByMeta(key, value string) (*user.User, error) {
	var m user.Meta
	err := r.db.Where("meta_key = ? AND meta_value = ?", key, value).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(m.UserID)
}
