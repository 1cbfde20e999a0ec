package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/verto-app/verto/internal/config"
	"github.com/verto-app/verto/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.ProjectInvite{},
		&models.ActivityLog{},
		&models.Release{},
		&models.TransactionEvent{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  email,
	}
	require.NoError(t, db.Create(&user).Error)

	return &user
}

func newTestInviteService(db *gorm.DB, cfg config.Config) *InviteService {
	projects := NewProjectService(db)
	users := NewUserService(db)
	mailer := NewMailer(cfg)

	return NewInviteService(db, projects, users, mailer, cfg)
}
