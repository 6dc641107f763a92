package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/djloghub/portfolio-backend/internal/models"
)

// GetAdminByLoginName returns ErrNotFound when no account has that login name.
func (r *GormRepo) GetAdminByLoginName(ctx context.Context, loginName string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.DB.WithContext(ctx).Where("username = ?", loginName).First(&admin).Error; err != nil {
		return nil, notFound(err)
	}
	return &admin, nil
}

// EnsureAdmin creates the account when absent. An existing account is left
// untouched, including its password hash.
func (r *GormRepo) EnsureAdmin(ctx context.Context, loginName, passwordHash string) (created bool, err error) {
	// New-row fields go through Attrs; a preset primary key on the destination
	// would be added to the lookup and miss the existing row.
	var admin models.Admin
	tx := r.DB.WithContext(ctx).
		Where(models.Admin{Username: loginName}).
		Attrs(models.Admin{ID: uuid.New(), PasswordHash: passwordHash}).
		FirstOrCreate(&admin)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
