package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/verto-app/verto/internal/config"
	"github.com/verto-app/verto/internal/errs"
	"github.com/verto-app/verto/internal/models"
)

func TestUpsertRelease_CreatesProjectAndActivity(t *testing.T) {
	db := getTestDatabase(t)
	projects := NewProjectService(db)
	svc := NewReleaseService(db, projects, NewMailer(config.Config{}))

	owner := createTestUser(t, db, "owner@example.com")

	response, err := svc.UpsertRelease(owner.ID, UpsertReleaseInput{
		Client:      "Acme",
		Environment: "PROD",
		Branch:      "main",
		Version:     "1.2.0",
		Build:       42,
		Date:        "2026-08-01",
	})
	require.NoError(t, err)

	require.Contains(t, response, "acme")
	require.Contains(t, response["acme"], "prod")
	require.Equal(t, "1.2.0", response["acme"]["prod"].Version)

	project, err := projects.FindAccessibleProjectBySlug(owner.ID, "acme")
	require.NoError(t, err)
	require.NotNil(t, project)

	var updated models.Project
	require.NoError(t, db.First(&updated, project.ID).Error)
	require.NotNil(t, updated.LastUpdatedByID)
	require.Equal(t, owner.ID, *updated.LastUpdatedByID)

	var logs []models.ActivityLog
	require.NoError(t, db.Where("project_id = ? AND action = ?", project.ID, models.ActionReleaseUpserted).Find(&logs).Error)
	require.Len(t, logs, 1)
}

func TestUpsertRelease_ReplacesExisting(t *testing.T) {
	db := getTestDatabase(t)
	projects := NewProjectService(db)
	svc := NewReleaseService(db, projects, NewMailer(config.Config{}))

	owner := createTestUser(t, db, "owner@example.com")

	input := UpsertReleaseInput{
		Client:      "Acme",
		Environment: "prod",
		Branch:      "main",
		Version:     "1.0.0",
		Build:       1,
		Date:        "2026-08-01",
	}

	_, err := svc.UpsertRelease(owner.ID, input)
	require.NoError(t, err)

	input.Version = "1.0.1"
	input.Build = 2

	response, err := svc.UpsertRelease(owner.ID, input)
	require.NoError(t, err)
	require.Equal(t, "1.0.1", response["acme"]["prod"].Version)

	var count int64
	require.NoError(t, db.Model(&models.Release{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestReleasesForUser_EmptyWithoutAccess(t *testing.T) {
	db := getTestDatabase(t)
	projects := NewProjectService(db)
	svc := NewReleaseService(db, projects, NewMailer(config.Config{}))

	loner := createTestUser(t, db, "loner@example.com")

	response, err := svc.ReleasesForUser(loner.ID)
	require.NoError(t, err)
	require.NotNil(t, response)
	require.Empty(t, response)
}

func TestDeleteRelease(t *testing.T) {
	db := getTestDatabase(t)
	projects := NewProjectService(db)
	svc := NewReleaseService(db, projects, NewMailer(config.Config{}))

	owner := createTestUser(t, db, "owner@example.com")
	outsider := createTestUser(t, db, "outsider@example.com")

	_, err := svc.UpsertRelease(owner.ID, UpsertReleaseInput{
		Client:      "Acme",
		Environment: "prod",
		Branch:      "main",
		Version:     "1.0.0",
		Build:       1,
		Date:        "2026-08-01",
	})
	require.NoError(t, err)

	_, err = svc.DeleteRelease(outsider.ID, "acme", "prod")
	require.ErrorIs(t, err, errs.ErrProjectForbidden)

	_, err = svc.DeleteRelease(owner.ID, "acme", "staging")
	require.ErrorIs(t, err, errs.ErrReleaseNotFound)

	response, err := svc.DeleteRelease(owner.ID, "acme", "prod")
	require.NoError(t, err)
	require.Empty(t, response["acme"])

	project, err := projects.FindAccessibleProjectBySlug(owner.ID, "acme")
	require.NoError(t, err)

	var logs []models.ActivityLog
	require.NoError(t, db.Where("project_id = ? AND action = ?", project.ID, models.ActionReleaseDeleted).Find(&logs).Error)
	require.Len(t, logs, 1)
}
