// Package db seeds and verifies user-account fixtures in the SQL instance
// backing the deployment under test. It owns no state of its own: rows are
// created for a test and removed again in teardown.
package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	"github.com/scimatic/scimcheck/libs"
)

// UserAccount mirrors the columns of the account table the suite seeds.
// Uniqueness is per username within an institution: OEM deployments host
// several tenants in one table.
type UserAccount struct {
	ID            uint   `gorm:"primaryKey"`
	UserName      string `gorm:"size:128;uniqueIndex:idx_user_institution"`
	InstitutionID string `gorm:"size:32;uniqueIndex:idx_user_institution"`
	DisplayName   string `gorm:"size:256"`
	Email         string `gorm:"size:256"`
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (UserAccount) TableName() string {
	return "scimcheck_user_accounts"
}

// Store is the fixture store, opened once per run and shared by the test
// workers that need database-backed setup or verification.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQL Server instance named by the resolved profile.
func Open(profile libs.EnvironmentProfile) (*Store, error) {
	if profile.DBServer == "" || profile.DBName == "" {
		return nil, &libs.ConfigurationError{
			Setting: "db_server",
			Reason:  "database server and name are required for fixture setup",
		}
	}

	dsn := fmt.Sprintf("sqlserver://%s:%s@%s?database=%s",
		url.QueryEscape(profile.DBUser),
		url.QueryEscape(profile.DBPassword),
		profile.DBServer,
		url.QueryEscape(profile.DBName),
	)

	return OpenWithDialector(sqlserver.Open(dsn))
}

// OpenWithDialector opens the store on any gorm dialector. Tests use sqlite
// here so the fixture logic runs without a SQL Server instance.
func OpenWithDialector(dialector gorm.Dialector) (*Store, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture database: %w", err)
	}

	if err := gdb.AutoMigrate(&UserAccount{}); err != nil {
		return nil, fmt.Errorf("failed to migrate fixture schema: %w", err)
	}

	return &Store{db: gdb}, nil
}

// EnsureUser creates the account row if it does not exist yet and returns
// the stored record.
func (s *Store) EnsureUser(ctx context.Context, account *UserAccount) error {
	return s.db.WithContext(ctx).
		Where(UserAccount{UserName: account.UserName, InstitutionID: account.InstitutionID}).
		Attrs(UserAccount{
			DisplayName: account.DisplayName,
			Email:       account.Email,
			Active:      account.Active,
		}).
		FirstOrCreate(account).Error
}

// UserExists reports whether an account row exists for the username within
// the institution.
func (s *Store) UserExists(ctx context.Context, userName, institutionID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&UserAccount{}).
		Where("user_name = ? AND institution_id = ?", userName, institutionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RemoveUser deletes the account row. Removing a row that is already gone
// is not an error; teardown must be idempotent.
func (s *Store) RemoveUser(ctx context.Context, userName, institutionID string) error {
	return s.db.WithContext(ctx).
		Where("user_name = ? AND institution_id = ?", userName, institutionID).
		Delete(&UserAccount{}).Error
}
