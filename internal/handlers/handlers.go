package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/verto-app/verto/db"
	"github.com/verto-app/verto/internal/config"
	"github.com/verto-app/verto/internal/errs"
	"github.com/verto-app/verto/internal/services"
)

var (
	cfg    config.Config
	mailer *services.Mailer
)

// Init wires handler-level dependencies that outlive a single request.
func Init(c config.Config) {
	cfg = c
	mailer = services.NewMailer(c)
}

func projectService() *services.ProjectService {
	return services.NewProjectService(db.DB)
}

func userService() *services.UserService {
	return services.NewUserService(db.DB)
}

func inviteService() *services.InviteService {
	return services.NewInviteService(db.DB, projectService(), userService(), mailer, cfg)
}

func releaseService() *services.ReleaseService {
	return services.NewReleaseService(db.DB, projectService(), mailer)
}

func transactionEventService() *services.TransactionEventService {
	return services.NewTransactionEventService(db.DB, projectService())
}

// respondError maps a domain error onto its HTTP status; anything unknown is
// logged and reported as a 500.
func respondError(ctx *gin.Context, err error) {
	status := errs.Status(err)

	if status >= 500 {
		log.Error().Err(err).Str("path", ctx.Request.URL.Path).Msg("request failed")
		ctx.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(status, gin.H{"error": err.Error()})
}
