package services

import (
	"errors"
	"strings"
	"time"

	"github.com/verto-app/verto/internal/errs"
	"github.com/verto-app/verto/internal/models"
	"github.com/verto-app/verto/internal/utils"
	"gorm.io/gorm"
)

type TransactionEventPayload struct {
	ID          uint      `json:"id"`
	Client      string    `json:"client"`
	ProjectID   uint      `json:"project_id"`
	ProjectName string    `json:"project_name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TransactionEventInput struct {
	Client      string `json:"client" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// TransactionEventsResponse maps client slug -> events ordered by code.
type TransactionEventsResponse map[string][]TransactionEventPayload

type TransactionEventService struct {
	db       *gorm.DB
	projects *ProjectService
}

func NewTransactionEventService(db *gorm.DB, projects *ProjectService) *TransactionEventService {
	return &TransactionEventService{db: db, projects: projects}
}

func (s *TransactionEventService) EventsForUser(userID uint) (TransactionEventsResponse, error) {
	response := TransactionEventsResponse{}

	projectIDs, err := s.projects.AccessibleProjectIDs(userID)

	if err != nil {
		return nil, err
	}

	if len(projectIDs) == 0 {
		return response, nil
	}

	var events []models.TransactionEvent

	if err := s.db.Preload("Project").
		Where("project_id IN ?", projectIDs).
		Order("code ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}

	for _, event := range events {
		client := event.Project.Slug
		response[client] = append(response[client], buildEventPayload(event))
	}

	return response, nil
}

// CreateEvent registers a transaction event code. Code keys are globally
// unique across projects.
func (s *TransactionEventService) CreateEvent(userID uint, input TransactionEventInput) (TransactionEventsResponse, error) {
	client := utils.NormalizeKey(input.Client)
	codeKey := utils.NormalizeKey(input.Code)

	var existing models.TransactionEvent

	err := s.db.Where("code_key = ?", codeKey).First(&existing).Error

	if err == nil {
		return nil, errs.ErrDuplicateEvent
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	project, err := s.projects.FindAccessibleProjectBySlug(userID, client)

	if err != nil {
		return nil, err
	}

	if project == nil {
		return nil, errs.ErrProjectNotFound
	}

	event := models.TransactionEvent{
		ProjectID:   project.ID,
		Code:        strings.TrimSpace(input.Code),
		CodeKey:     codeKey,
		Description: strings.TrimSpace(input.Description),
	}

	if err := s.db.Create(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.ErrDuplicateEvent
		}
		return nil, err
	}

	if err := s.projects.RecordActivity(project.ID, &userID, models.ActionTransactionEventCreated, map[string]interface{}{
		"transaction_id": event.ID,
		"code":           event.Code,
	}); err != nil {
		return nil, err
	}

	return s.EventsForUser(userID)
}

func (s *TransactionEventService) UpdateEvent(userID, eventID uint, input TransactionEventInput) (TransactionEventsResponse, error) {
	var event models.TransactionEvent

	err := s.db.Preload("Project").First(&event, eventID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrEventNotFound
		}
		return nil, err
	}

	canEdit, err := s.projects.IsUserInProject(event.ProjectID, userID)

	if err != nil {
		return nil, err
	}

	if !canEdit {
		return nil, errs.ErrEventForbidden
	}

	codeKey := utils.NormalizeKey(input.Code)

	if codeKey != event.CodeKey {
		var conflict models.TransactionEvent

		err := s.db.Where("code_key = ?", codeKey).First(&conflict).Error

		if err == nil && conflict.ID != event.ID {
			return nil, errs.ErrDuplicateEvent
		}

		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		event.CodeKey = codeKey
	}

	client := utils.NormalizeKey(input.Client)

	if client != event.Project.Slug {
		target, err := s.projects.FindAccessibleProjectBySlug(userID, client)

		if err != nil {
			return nil, err
		}

		if target == nil {
			return nil, errs.ErrProjectNotFound
		}

		event.ProjectID = target.ID
		event.Project = *target
	}

	event.Code = strings.TrimSpace(input.Code)
	event.Description = strings.TrimSpace(input.Description)

	if err := s.db.Omit("Project").Save(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.ErrDuplicateEvent
		}
		return nil, err
	}

	if err := s.projects.RecordActivity(event.ProjectID, &userID, models.ActionTransactionEventUpdated, map[string]interface{}{
		"transaction_id": event.ID,
		"code":           event.Code,
	}); err != nil {
		return nil, err
	}

	return s.EventsForUser(userID)
}

func buildEventPayload(event models.TransactionEvent) TransactionEventPayload {
	return TransactionEventPayload{
		ID:          event.ID,
		Client:      event.Project.Slug,
		ProjectID:   event.ProjectID,
		ProjectName: event.Project.Name,
		Code:        event.Code,
		Description: event.Description,
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}
