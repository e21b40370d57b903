package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecotrail/api-go/logging"
	"github.com/ecotrail/api-go/models"
	"github.com/ecotrail/api-go/services"
	"github.com/ecotrail/api-go/store"
	"github.com/ecotrail/api-go/utils"
)

type AuthController struct {
	Store     store.Store
	Ledger    *services.Ledger
	JWTSecret string
	TokenTTL  time.Duration
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

// validateUsernamePattern validates username format and constraints
func validateUsernamePattern(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	if len(username) > 150 {
		return fmt.Errorf("username must be no more than 150 characters long")
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username must start with a letter and contain only letters, digits, '.', '-' and '_'")
	}
	return nil
}

func NewAuthController(s store.Store, ledger *services.Ledger, jwtSecret string, tokenTTL time.Duration) *AuthController {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthController{Store: s, Ledger: ledger, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	username := strings.TrimSpace(input.Username)
	if err := validateUsernamePattern(username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password", "success": false})
		return
	}

	user := models.User{
		Username: username,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}
	if err := ac.Store.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists", "success": false})
			return
		}
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create user", "success": false})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"profile_id": user.Profile.ID,
		},
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.Store.UserByUsername(c.Request.Context(), strings.TrimSpace(input.Username))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to load user")
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	accessToken, err := utils.GenerateToken(user, ac.JWTSecret, ac.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token_type":   "Bearer",
		"access_token": accessToken,
		"expires_in":   int(ac.TokenTTL.Seconds()),
		"user":         gin.H{"id": user.ID, "username": user.Username, "role": user.Role},
		"success":      true,
	})
}

// GetProfile returns the caller's own eco profile.
func (ac *AuthController) GetProfile(c *gin.Context) {
	user := utils.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	profile, err := ac.Ledger.ProfileForUser(c.Request.Context(), user.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"profile": profile,
		"role":    user.Role,
	})
}
