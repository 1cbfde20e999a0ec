package services

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/verto-app/verto/internal/errs"
	"github.com/verto-app/verto/internal/models"
	"github.com/verto-app/verto/internal/utils"
	"gorm.io/gorm"
)

type ReleasePayload struct {
	Branch        string `json:"branch"`
	Version       string `json:"version"`
	Build         int    `json:"build"`
	Date          string `json:"date"`
	CommitMessage string `json:"commit_message"`
}

type UpsertReleaseInput struct {
	Client        string `json:"client" binding:"required"`
	Environment   string `json:"environment" binding:"required"`
	Branch        string `json:"branch" binding:"required"`
	Version       string `json:"version" binding:"required"`
	Build         int    `json:"build" binding:"required"`
	Date          string `json:"date" binding:"required"`
	CommitMessage string `json:"commit_message"`
}

// ReleasesResponse maps client slug -> environment -> release.
type ReleasesResponse map[string]map[string]ReleasePayload

type ReleaseService struct {
	db       *gorm.DB
	projects *ProjectService
	mailer   *Mailer
}

func NewReleaseService(db *gorm.DB, projects *ProjectService, mailer *Mailer) *ReleaseService {
	return &ReleaseService{db: db, projects: projects, mailer: mailer}
}

func (s *ReleaseService) ReleasesForUser(userID uint) (ReleasesResponse, error) {
	response := ReleasesResponse{}

	projectIDs, err := s.projects.AccessibleProjectIDs(userID)

	if err != nil {
		return nil, err
	}

	if len(projectIDs) == 0 {
		return response, nil
	}

	var releases []models.Release

	if err := s.db.Where("project_id IN ?", projectIDs).
		Order("client ASC, environment ASC").
		Find(&releases).Error; err != nil {
		return nil, err
	}

	for _, release := range releases {
		if response[release.Client] == nil {
			response[release.Client] = map[string]ReleasePayload{}
		}
		response[release.Client][release.Environment] = buildReleasePayload(release)
	}

	return response, nil
}

// UpsertRelease creates or replaces the release for (project, environment),
// creating the project on first use. The write records an activity entry and
// fans out a best-effort notification to collaborators.
func (s *ReleaseService) UpsertRelease(userID uint, input UpsertReleaseInput) (ReleasesResponse, error) {
	client := utils.NormalizeKey(input.Client)
	environment := utils.NormalizeKey(input.Environment)

	project, err := s.projects.EnsureProjectForUser(userID, input.Client)

	if err != nil {
		return nil, err
	}

	var release models.Release

	err = s.db.Where("project_id = ? AND environment = ?", project.ID, environment).
		First(&release).Error

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		release = models.Release{
			ProjectID:   project.ID,
			Environment: environment,
		}
	}

	release.Client = client
	release.Branch = input.Branch
	release.Version = input.Version
	release.Build = input.Build
	release.Date = input.Date
	release.CommitMessage = input.CommitMessage

	if err := s.db.Save(&release).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a concurrent first-insert race for this environment.
			return nil, errs.ErrDuplicateRelease
		}
		return nil, err
	}

	if err := s.projects.RecordActivity(project.ID, &userID, models.ActionReleaseUpserted, map[string]interface{}{
		"environment": environment,
		"version":     release.Version,
		"build":       release.Build,
	}); err != nil {
		return nil, err
	}

	s.notifyCollaborators(project, release, userID)

	return s.ReleasesForUser(userID)
}

func (s *ReleaseService) DeleteRelease(userID uint, clientParam, envParam string) (ReleasesResponse, error) {
	client := utils.NormalizeKey(clientParam)
	environment := utils.NormalizeKey(envParam)

	project, err := s.projects.FindAccessibleProjectBySlug(userID, client)

	if err != nil {
		return nil, err
	}

	if project == nil {
		return nil, errs.ErrProjectForbidden
	}

	var release models.Release

	err = s.db.Where("project_id = ? AND environment = ?", project.ID, environment).
		First(&release).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrReleaseNotFound
		}
		return nil, err
	}

	if err := s.db.Unscoped().Delete(&release).Error; err != nil {
		return nil, err
	}

	if err := s.projects.RecordActivity(project.ID, &userID, models.ActionReleaseDeleted, map[string]interface{}{
		"environment": environment,
	}); err != nil {
		return nil, err
	}

	return s.ReleasesForUser(userID)
}

// notifyCollaborators never fails the release write; send errors are logged
// and dropped.
func (s *ReleaseService) notifyCollaborators(project *models.Project, release models.Release, actorID uint) {
	collaborators, err := s.projects.Collaborators(project.ID)

	if err != nil {
		log.Error().Err(err).Uint("project_id", project.ID).Msg("failed to resolve collaborators")
		return
	}

	var actorEmail string

	for _, user := range collaborators {
		if user.ID == actorID {
			actorEmail = user.Email
			break
		}
	}

	for _, user := range collaborators {
		if user.ID == actorID {
			continue
		}

		err := s.mailer.SendReleaseUpdate(user.Email, ReleaseUpdateEmail{
			ProjectName: project.Name,
			Environment: release.Environment,
			Version:     release.Version,
			UpdatedBy:   actorEmail,
		})

		if err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("failed to send release update")
		}
	}
}

func buildReleasePayload(release models.Release) ReleasePayload {
	return ReleasePayload{
		Branch:        release.Branch,
		Version:       release.Version,
		Build:         release.Build,
		Date:          release.Date,
		CommitMessage: release.CommitMessage,
	}
}
