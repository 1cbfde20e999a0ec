package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/verto-app/verto/internal/errs"
	"github.com/verto-app/verto/internal/models"
)

func TestEnsureMembership_Idempotent(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")
	editor := createTestUser(t, db, "editor@example.com")

	project, err := svc.EnsureProjectForUser(owner.ID, "Acme")
	require.NoError(t, err)

	first, err := svc.EnsureMembership(project.ID, editor.ID, models.RoleEditor)
	require.NoError(t, err)
	require.Equal(t, models.RoleEditor, first.Role)

	second, err := svc.EnsureMembership(project.ID, editor.ID, models.RoleEditor)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ?", project.ID, editor.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestEnsureMembership_UpdatesRole(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	project, err := svc.EnsureProjectForUser(owner.ID, "Acme")
	require.NoError(t, err)

	_, err = svc.EnsureMembership(project.ID, other.ID, models.RoleEditor)
	require.NoError(t, err)

	updated, err := svc.EnsureMembership(project.ID, other.ID, models.RoleOwner)
	require.NoError(t, err)
	require.Equal(t, models.RoleOwner, updated.Role)
}

func TestAccessibleProjectIDs_UnionWithoutDuplicates(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")
	member := createTestUser(t, db, "member@example.com")

	owned, err := svc.EnsureProjectForUser(owner.ID, "Acme")
	require.NoError(t, err)

	shared, err := svc.EnsureProjectForUser(member.ID, "Globex")
	require.NoError(t, err)

	_, err = svc.EnsureMembership(owned.ID, member.ID, models.RoleEditor)
	require.NoError(t, err)

	ids, err := svc.AccessibleProjectIDs(member.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{owned.ID, shared.ID}, ids)
}

func TestFindAccessibleProjectBySlug_DeniesOutsider(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")
	outsider := createTestUser(t, db, "outsider@example.com")

	_, err := svc.EnsureProjectForUser(owner.ID, "Acme")
	require.NoError(t, err)

	project, err := svc.FindAccessibleProjectBySlug(outsider.ID, "acme")
	require.NoError(t, err)
	require.Nil(t, project)
}

func TestFindAccessibleProjectBySlug_MemberResolves(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")
	member := createTestUser(t, db, "member@example.com")

	project, err := svc.EnsureProjectForUser(owner.ID, "Acme Corp")
	require.NoError(t, err)
	require.Equal(t, "acme-corp", project.Slug)

	_, err = svc.EnsureMembership(project.ID, member.ID, models.RoleEditor)
	require.NoError(t, err)

	resolved, err := svc.FindAccessibleProjectBySlug(member.ID, "Acme Corp")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.Equal(t, project.ID, resolved.ID)
}

func TestIsUserInProject(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")
	outsider := createTestUser(t, db, "outsider@example.com")

	project, err := svc.EnsureProjectForUser(owner.ID, "Acme")
	require.NoError(t, err)

	isMember, err := svc.IsUserInProject(project.ID, owner.ID)
	require.NoError(t, err)
	require.True(t, isMember)

	isMember, err = svc.IsUserInProject(project.ID, outsider.ID)
	require.NoError(t, err)
	require.False(t, isMember)

	_, err = svc.IsUserInProject(9999, owner.ID)
	require.ErrorIs(t, err, errs.ErrProjectNotFound)
}

func TestEnsureProjectForUser_GetOrCreate(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")

	first, err := svc.EnsureProjectForUser(owner.ID, "Acme")
	require.NoError(t, err)

	second, err := svc.EnsureProjectForUser(owner.ID, "  ACME  ")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	isMember, err := svc.IsUserInProject(first.ID, owner.ID)
	require.NoError(t, err)
	require.True(t, isMember)

	var logs []models.ActivityLog
	require.NoError(t, db.Where("project_id = ?", first.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Equal(t, models.ActionProjectCreated, logs[0].Action)
}

func TestEnsureProjectForUser_RejectsBlankName(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")

	_, err := svc.EnsureProjectForUser(owner.ID, "   ")
	require.ErrorIs(t, err, errs.ErrCodeRequired)
}

func TestRecordActivity_UpdatesLastActivityPointer(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")

	project, err := svc.EnsureProjectForUser(owner.ID, "Acme")
	require.NoError(t, err)

	require.NoError(t, svc.RecordActivity(project.ID, &owner.ID, models.ActionReleaseUpserted, map[string]interface{}{
		"environment": "prod",
	}))

	var updated models.Project
	require.NoError(t, db.First(&updated, project.ID).Error)
	require.NotNil(t, updated.LastUpdatedByID)
	require.Equal(t, owner.ID, *updated.LastUpdatedByID)
	require.NotNil(t, updated.LastActivityAt)
	require.WithinDuration(t, time.Now(), *updated.LastActivityAt, time.Minute)
}

func TestActivitySummaries_EmptyForUserWithoutProjects(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	loner := createTestUser(t, db, "loner@example.com")

	summaries, err := svc.ActivitySummaries(loner.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, summaries)
	require.Empty(t, summaries)
}

func TestActivitySummaries_RecentFirstWithLimit(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")

	project, err := svc.EnsureProjectForUser(owner.ID, "Acme")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.RecordActivity(project.ID, &owner.ID, models.ActionReleaseUpserted, map[string]interface{}{
			"build": i,
		}))
	}

	summaries, err := svc.ActivitySummaries(owner.ID, 3)
	require.NoError(t, err)
	require.Contains(t, summaries, "acme")

	summary := summaries["acme"]
	require.Len(t, summary.RecentLogs, 3)

	// Entries arrive newest first; same-timestamp rows fall back to
	// insertion order.
	for i := 1; i < len(summary.RecentLogs); i++ {
		require.GreaterOrEqual(t, summary.RecentLogs[i-1].ID, summary.RecentLogs[i].ID)
	}
}

func TestProjectActivity_NotFoundForOutsider(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")
	outsider := createTestUser(t, db, "outsider@example.com")

	_, err := svc.EnsureProjectForUser(owner.ID, "Acme")
	require.NoError(t, err)

	_, err = svc.ProjectActivity(outsider.ID, "acme", 0)
	require.ErrorIs(t, err, errs.ErrProjectNotFound)
}

func TestCollaborators_DeduplicatesOwner(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")
	editor := createTestUser(t, db, "editor@example.com")

	project, err := svc.EnsureProjectForUser(owner.ID, "Acme")
	require.NoError(t, err)

	_, err = svc.EnsureMembership(project.ID, editor.ID, models.RoleEditor)
	require.NoError(t, err)

	collaborators, err := svc.Collaborators(project.ID)
	require.NoError(t, err)
	require.Len(t, collaborators, 2)

	_, err = svc.Collaborators(9999)
	require.ErrorIs(t, err, errs.ErrProjectNotFound)
}

func TestCreateOrganization(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewProjectService(db)

	owner := createTestUser(t, db, "owner@example.com")

	org, err := svc.CreateOrganization(owner.ID, "Acme Corp", "ACME")
	require.NoError(t, err)
	require.Equal(t, "acme", org.Code)
	require.Equal(t, "Acme Corp", org.Name)

	_, err = svc.CreateOrganization(owner.ID, "Acme Again", "acme")
	require.ErrorIs(t, err, errs.ErrOrganizationTaken)

	_, err = svc.CreateOrganization(owner.ID, "", "beta")
	require.ErrorIs(t, err, errs.ErrNameRequired)

	_, err = svc.CreateOrganization(owner.ID, "Beta", "  ")
	require.ErrorIs(t, err, errs.ErrCodeRequired)

	organizations, err := svc.AccessibleOrganizations(owner.ID)
	require.NoError(t, err)
	require.Len(t, organizations, 1)
}
