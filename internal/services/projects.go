package services

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/verto-app/verto/internal/errs"
	"github.com/verto-app/verto/internal/models"
	"github.com/verto-app/verto/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultSummaryLogLimit  = 10
	DefaultActivityLogLimit = 50
)

type ActivityUser struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type ActivityEntry struct {
	ID        uint                   `json:"id"`
	Action    models.ActivityAction  `json:"action"`
	CreatedAt time.Time              `json:"created_at"`
	Metadata  map[string]interface{} `json:"metadata"`
	User      *ActivityUser          `json:"user"`
}

type ActivitySummary struct {
	ProjectID     uint            `json:"project_id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	LastUpdatedAt *time.Time      `json:"last_updated_at"`
	LastUpdatedBy *ActivityUser   `json:"last_updated_by"`
	RecentLogs    []ActivityEntry `json:"recent_logs"`
}

type OrganizationSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// AccessibleProjectIDs returns the deduplicated union of projects the user
// owns and projects shared with them through a membership.
func (s *ProjectService) AccessibleProjectIDs(userID uint) ([]uint, error) {
	var ownedIDs []uint

	if err := s.db.Model(&models.Project{}).
		Where("owner_id = ?", userID).
		Pluck("id", &ownedIDs).Error; err != nil {
		return nil, err
	}

	var memberIDs []uint

	if err := s.db.Model(&models.ProjectMembership{}).
		Where("user_id = ?", userID).
		Pluck("project_id", &memberIDs).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(ownedIDs)+len(memberIDs))
	ids := make([]uint, 0, len(ownedIDs)+len(memberIDs))

	for _, id := range append(ownedIDs, memberIDs...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, nil
}

// FindAccessibleProjectBySlug resolves a slug for a user who is either the
// owner or a member. Returns nil when the slug does not exist or the user has
// no access; the two cases are deliberately not distinguished.
func (s *ProjectService) FindAccessibleProjectBySlug(userID uint, slug string) (*models.Project, error) {
	normalized := utils.NormalizeKey(slug)

	var project models.Project

	err := s.db.
		Joins("LEFT JOIN project_memberships ON project_memberships.project_id = projects.id AND project_memberships.user_id = ? AND project_memberships.deleted_at IS NULL", userID).
		Where("projects.slug = ? AND (projects.owner_id = ? OR project_memberships.id IS NOT NULL)", normalized, userID).
		First(&project).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &project, nil
}

// FindOwnedProjectBySlug is the stricter variant used by invite creation:
// membership is not enough, the caller must own the project.
func (s *ProjectService) FindOwnedProjectBySlug(ownerID uint, slug string) (*models.Project, error) {
	var project models.Project

	err := s.db.
		Where("owner_id = ? AND slug = ?", ownerID, utils.NormalizeKey(slug)).
		First(&project).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &project, nil
}

// EnsureProjectForUser resolves the project for a display name, creating it
// (with owner membership and a project_created entry) on first use.
func (s *ProjectService) EnsureProjectForUser(userID uint, displayName string) (*models.Project, error) {
	slug := utils.NormalizeKey(displayName)

	if slug == "" {
		return nil, errs.ErrCodeRequired
	}

	existing, err := s.FindAccessibleProjectBySlug(userID, slug)

	if err != nil {
		return nil, err
	}

	if existing != nil {
		return existing, nil
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = slug
	}

	project := models.Project{
		OwnerID: userID,
		Slug:    slug,
		Name:    name,
	}

	if err := s.db.Create(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.ErrOrganizationTaken
		}
		return nil, err
	}

	if _, err := s.EnsureMembership(project.ID, userID, models.RoleOwner); err != nil {
		return nil, err
	}

	if err := s.RecordActivity(project.ID, &userID, models.ActionProjectCreated, map[string]interface{}{
		"name": project.Name,
	}); err != nil {
		return nil, err
	}

	return &project, nil
}

// EnsureMembership is an idempotent upsert: redundant calls with the same
// role are no-ops, a different role updates the existing row.
func (s *ProjectService) EnsureMembership(projectID, userID uint, role models.ProjectRole) (*models.ProjectMembership, error) {
	var existing models.ProjectMembership

	err := s.db.
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&existing).Error

	if err == nil {
		if existing.Role != role {
			existing.Role = role
			if err := s.db.Save(&existing).Error; err != nil {
				return nil, err
			}
		}
		return &existing, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	membership := models.ProjectMembership{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}

	if err := s.db.Create(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a concurrent insert race; the row exists now.
			if ferr := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&membership).Error; ferr != nil {
				return nil, ferr
			}
			return &membership, nil
		}
		return nil, err
	}

	return &membership, nil
}

// IsUserInProject reports whether the user is the owner or holds any
// membership row. The project itself must exist.
func (s *ProjectService) IsUserInProject(projectID, userID uint) (bool, error) {
	var project models.Project

	err := s.db.Select("id", "owner_id").First(&project, projectID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, errs.ErrProjectNotFound
		}
		return false, err
	}

	if project.OwnerID == userID {
		return true, nil
	}

	var count int64

	if err := s.db.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// RecordActivity appends one immutable log entry and refreshes the project's
// denormalized last-update pointer.
func (s *ProjectService) RecordActivity(projectID uint, userID *uint, action models.ActivityAction, metadata map[string]interface{}) error {
	entry := models.ActivityLog{
		ProjectID: projectID,
		UserID:    userID,
		Action:    action,
	}

	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		entry.Metadata = datatypes.JSON(raw)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		return tx.Model(&models.Project{}).
			Where("id = ?", projectID).
			Updates(map[string]interface{}{
				"last_updated_by_id": userID,
				"last_activity_at":   time.Now(),
			}).Error
	})
}

// ActivitySummaries returns the recent activity of every project accessible
// to the user, keyed by slug. Users with no projects get an empty map.
func (s *ProjectService) ActivitySummaries(userID uint, logLimit int) (map[string]ActivitySummary, error) {
	projectIDs, err := s.AccessibleProjectIDs(userID)

	if err != nil {
		return nil, err
	}

	summaries := make(map[string]ActivitySummary, len(projectIDs))

	if len(projectIDs) == 0 {
		return summaries, nil
	}

	if logLimit <= 0 {
		logLimit = DefaultSummaryLogLimit
	}

	var projects []models.Project

	if err := s.db.Preload("LastUpdatedBy").
		Where("id IN ?", projectIDs).
		Find(&projects).Error; err != nil {
		return nil, err
	}

	for _, project := range projects {
		summary, err := s.buildActivitySummary(project, logLimit)
		if err != nil {
			return nil, err
		}
		summaries[project.Slug] = summary
	}

	return summaries, nil
}

// ProjectActivity is the single-project variant of ActivitySummaries; the
// project must be accessible to the caller.
func (s *ProjectService) ProjectActivity(userID uint, slug string, logLimit int) (*ActivitySummary, error) {
	project, err := s.FindAccessibleProjectBySlug(userID, slug)

	if err != nil {
		return nil, err
	}

	if project == nil {
		return nil, errs.ErrProjectNotFound
	}

	if logLimit <= 0 {
		logLimit = DefaultActivityLogLimit
	}

	var full models.Project

	if err := s.db.Preload("LastUpdatedBy").First(&full, project.ID).Error; err != nil {
		return nil, err
	}

	summary, err := s.buildActivitySummary(full, logLimit)

	if err != nil {
		return nil, err
	}

	return &summary, nil
}

// Collaborators returns the deduplicated set of users with access to the
// project: the owner plus every membership holder.
func (s *ProjectService) Collaborators(projectID uint) ([]models.User, error) {
	var project models.Project

	err := s.db.Preload("Owner").First(&project, projectID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrProjectNotFound
		}
		return nil, err
	}

	var memberships []models.ProjectMembership

	if err := s.db.Preload("User").
		Where("project_id = ?", projectID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{})
	collaborators := make([]models.User, 0, len(memberships)+1)

	for _, membership := range memberships {
		if _, ok := seen[membership.User.ID]; ok {
			continue
		}
		seen[membership.User.ID] = struct{}{}
		collaborators = append(collaborators, membership.User)
	}

	if _, ok := seen[project.Owner.ID]; !ok {
		collaborators = append(collaborators, project.Owner)
	}

	return collaborators, nil
}

func (s *ProjectService) AccessibleOrganizations(userID uint) ([]OrganizationSummary, error) {
	projectIDs, err := s.AccessibleProjectIDs(userID)

	if err != nil {
		return nil, err
	}

	organizations := make([]OrganizationSummary, 0, len(projectIDs))

	if len(projectIDs) == 0 {
		return organizations, nil
	}

	var projects []models.Project

	if err := s.db.Where("id IN ?", projectIDs).Find(&projects).Error; err != nil {
		return nil, err
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Name < projects[j].Name
	})

	for _, project := range projects {
		organizations = append(organizations, OrganizationSummary{
			ID:   project.ID,
			Name: project.Name,
			Code: project.Slug,
		})
	}

	return organizations, nil
}

func (s *ProjectService) CreateOrganization(userID uint, name, code string) (*OrganizationSummary, error) {
	slug := utils.NormalizeKey(code)

	if slug == "" {
		return nil, errs.ErrCodeRequired
	}

	trimmedName := strings.TrimSpace(name)

	if trimmedName == "" {
		return nil, errs.ErrNameRequired
	}

	existing, err := s.FindAccessibleProjectBySlug(userID, slug)

	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, errs.ErrOrganizationTaken
	}

	project := models.Project{
		OwnerID: userID,
		Slug:    slug,
		Name:    trimmedName,
	}

	if err := s.db.Create(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.ErrOrganizationTaken
		}
		return nil, err
	}

	if _, err := s.EnsureMembership(project.ID, userID, models.RoleOwner); err != nil {
		return nil, err
	}

	if err := s.RecordActivity(project.ID, &userID, models.ActionProjectCreated, map[string]interface{}{
		"name": project.Name,
	}); err != nil {
		return nil, err
	}

	return &OrganizationSummary{
		ID:   project.ID,
		Name: project.Name,
		Code: project.Slug,
	}, nil
}

func (s *ProjectService) buildActivitySummary(project models.Project, logLimit int) (ActivitySummary, error) {
	var logs []models.ActivityLog

	// id DESC breaks creation-time ties in insertion order.
	if err := s.db.Preload("User").
		Where("project_id = ?", project.ID).
		Order("created_at DESC, id DESC").
		Limit(logLimit).
		Find(&logs).Error; err != nil {
		return ActivitySummary{}, err
	}

	entries := make([]ActivityEntry, 0, len(logs))

	for _, log := range logs {
		entry := ActivityEntry{
			ID:        log.ID,
			Action:    log.Action,
			CreatedAt: log.CreatedAt,
			User:      toActivityUser(log.User),
		}

		if len(log.Metadata) > 0 {
			if err := json.Unmarshal(log.Metadata, &entry.Metadata); err != nil {
				return ActivitySummary{}, err
			}
		}

		entries = append(entries, entry)
	}

	return ActivitySummary{
		ProjectID:     project.ID,
		Name:          project.Name,
		Slug:          project.Slug,
		LastUpdatedAt: project.LastActivityAt,
		LastUpdatedBy: toActivityUser(project.LastUpdatedBy),
		RecentLogs:    entries,
	}, nil
}

func toActivityUser(user *models.User) *ActivityUser {
	if user == nil || user.ID == 0 {
		return nil
	}

	return &ActivityUser{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
}
