package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/verto-app/verto/internal/auth"
	"github.com/verto-app/verto/internal/errs"
	"github.com/verto-app/verto/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AcceptInviteRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password"`
}

func Signup(ctx *gin.Context) {
	var body SignupRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	users := userService()

	existing, err := users.FindByEmail(email)

	if err != nil {
		respondError(ctx, err)
		return
	}

	if existing != nil {
		respondError(ctx, errs.ErrEmailTaken)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)

	if err != nil {
		respondError(ctx, err)
		return
	}

	user, err := users.Create(email, string(hash))

	if err != nil {
		respondError(ctx, err)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  users.ToProfile(user),
	})
}

func Login(ctx *gin.Context) {
	var body LoginRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	users := userService()

	user, err := users.FindByEmail(email)

	if err != nil {
		respondError(ctx, err)
		return
	}

	if user == nil {
		respondError(ctx, errs.ErrInvalidCredentials)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		respondError(ctx, errs.ErrInvalidCredentials)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  users.ToProfile(user),
	})
}

func Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	profile, err := userService().ProfileByID(currentUser.ID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": profile})
}

// PreviewInvite resolves an invite token into what the acceptance screen
// renders. It deliberately requires no authentication.
func PreviewInvite(ctx *gin.Context) {
	token := ctx.Query("token")

	if token == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	details, err := inviteService().InviteDetails(token)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, details)
}

// AcceptInvite consumes an invite token, creating an account for the invited
// email first if none exists.
func AcceptInvite(ctx *gin.Context) {
	var body AcceptInviteRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	invites := inviteService()
	users := userService()

	details, err := invites.InviteDetails(body.Token)

	if err != nil {
		respondError(ctx, err)
		return
	}

	user, err := users.FindByEmail(details.Email)

	if err != nil {
		respondError(ctx, err)
		return
	}

	if user == nil {
		if body.Password == "" {
			respondError(ctx, errs.ErrPasswordRequired)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)

		if err != nil {
			respondError(ctx, err)
			return
		}

		user, err = users.Create(details.Email, string(hash))

		if err != nil {
			respondError(ctx, err)
			return
		}

		log.Info().Str("email", details.Email).Msg("account created from invite")
	}

	if err := invites.ConsumeInvite(body.Token, user.ID); err != nil {
		respondError(ctx, err)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  users.ToProfile(user),
	})
}
