package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/verto-app/verto/internal/config"
	"github.com/verto-app/verto/internal/errs"
	"github.com/verto-app/verto/internal/models"
	"github.com/verto-app/verto/internal/utils"
	"gorm.io/gorm"
)

type InviteDetails struct {
	Email        string    `json:"email"`
	ProjectName  string    `json:"project_name"`
	Client       string    `json:"client"`
	InviterEmail string    `json:"inviter_email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type InviteService struct {
	db       *gorm.DB
	projects *ProjectService
	users    *UserService
	mailer   *Mailer
	cfg      config.Config
}

func NewInviteService(db *gorm.DB, projects *ProjectService, users *UserService, mailer *Mailer, cfg config.Config) *InviteService {
	return &InviteService{
		db:       db,
		projects: projects,
		users:    users,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// CreateInvite issues (or re-issues) the single pending invite for a
// (project, email) pair. The token only leaves the system through the email
// side channel; the caller gets an acknowledgement, never the token.
func (s *InviteService) CreateInvite(ownerID uint, slug, rawEmail string) error {
	project, err := s.projects.FindOwnedProjectBySlug(ownerID, slug)

	if err != nil {
		return err
	}

	if project == nil {
		return errs.ErrProjectNotFound
	}

	email := utils.NormalizeKey(rawEmail)

	if email == "" {
		return errs.ErrEmailRequired
	}

	inviter, err := s.users.FindByID(ownerID)

	if err != nil {
		return err
	}

	if inviter == nil {
		return errs.ErrInviterNotFound
	}

	if inviter.Email == email {
		return errs.ErrSelfInvite
	}

	invitee, err := s.users.FindByEmail(email)

	if err != nil {
		return err
	}

	if invitee != nil {
		member, err := s.projects.IsUserInProject(project.ID, invitee.ID)
		if err != nil {
			return err
		}
		if member {
			return errs.ErrAlreadyMember
		}
	}

	var invite models.ProjectInvite

	err = s.db.Where("project_id = ? AND email = ?", project.ID, email).First(&invite).Error

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		invite = models.ProjectInvite{
			ProjectID:   project.ID,
			InvitedByID: ownerID,
			Email:       email,
		}
	}

	token, err := generateInviteToken()

	if err != nil {
		return err
	}

	// Re-issuing invalidates the previous token and restarts the TTL.
	invite.Token = token
	invite.ExpiresAt = time.Now().Add(s.cfg.InviteTTL())
	invite.AcceptedAt = nil

	if err := s.db.Save(&invite).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		// Lost a concurrent create race for this (project, email) pair;
		// re-issue on top of the winning row.
		var current models.ProjectInvite
		if ferr := s.db.Where("project_id = ? AND email = ?", project.ID, email).First(&current).Error; ferr != nil {
			return ferr
		}
		current.Token = invite.Token
		current.ExpiresAt = invite.ExpiresAt
		current.AcceptedAt = nil
		if serr := s.db.Save(&current).Error; serr != nil {
			return serr
		}
		invite = current
	}

	sendErr := s.mailer.SendProjectInvite(email, InviteEmail{
		InviteLink:   s.mailer.InviteLink(invite.Token),
		ProjectName:  project.Name,
		InviterEmail: inviter.Email,
	})

	if sendErr != nil {
		if !s.cfg.InviteEmailBestEffort {
			return sendErr
		}
		log.Error().Err(sendErr).Str("email", email).Msg("failed to send invite email")
	}

	return nil
}

// InviteDetails resolves a token into what an acceptance screen needs,
// without authentication.
func (s *InviteService) InviteDetails(token string) (*InviteDetails, error) {
	invite, err := s.findActiveInvite(token)

	if err != nil {
		return nil, err
	}

	return &InviteDetails{
		Email:        invite.Email,
		ProjectName:  invite.Project.Name,
		Client:       invite.Project.Slug,
		InviterEmail: invite.InvitedBy.Email,
		ExpiresAt:    invite.ExpiresAt,
	}, nil
}

// ConsumeInvite grants editor membership and deletes the invite row. Tokens
// are single-use: a second consume fails NotFound, not "already used".
func (s *InviteService) ConsumeInvite(token string, userID uint) error {
	invite, err := s.findActiveInvite(token)

	if err != nil {
		return err
	}

	if _, err := s.projects.EnsureMembership(invite.ProjectID, userID, models.RoleEditor); err != nil {
		return err
	}

	return s.db.Unscoped().Delete(invite).Error
}

func (s *InviteService) findActiveInvite(token string) (*models.ProjectInvite, error) {
	var invite models.ProjectInvite

	err := s.db.Preload("Project").Preload("InvitedBy").
		Where("token = ?", strings.TrimSpace(token)).
		First(&invite).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrInviteNotFound
		}
		return nil, err
	}

	if invite.AcceptedAt != nil {
		return nil, errs.ErrInviteUsed
	}

	if invite.ExpiresAt.Before(time.Now()) {
		return nil, errs.ErrInviteExpired
	}

	return &invite, nil
}

// 256 bits of entropy, hex-encoded.
func generateInviteToken() (string, error) {
	raw := make([]byte, 32)

	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	return hex.EncodeToString(raw), nil
}
