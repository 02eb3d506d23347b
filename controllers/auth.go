package controllers

import (
	"net/http"

	"homeserve-backend/config"
	"homeserve-backend/services"
	"homeserve-backend/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Accounts *services.AccountService
}

type WorkerProfileRequest struct {
	Profession      string      `json:"profession" binding:"required"`
	HourlyRate      looseNumber `json:"hourlyRate"`
	Skills          []string    `json:"skills"`
	ExperienceYears int         `json:"experienceYears"`
}

type RegisterRequest struct {
	Email    string                `json:"email" binding:"required,email"`
	Password string                `json:"password" binding:"required,min=8"`
	Name     string                `json:"name" binding:"required"`
	Phone    string                `json:"phone"`
	Role     string                `json:"role" binding:"required,oneof=client worker"`
	Location string                `json:"location"`
	Worker   *WorkerProfileRequest `json:"workerProfile"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	in := services.RegisterInput{
		Email:    input.Email,
		Password: input.Password,
		FullName: input.Name,
		Phone:    input.Phone,
		Role:     input.Role,
		Location: input.Location,
	}
	if input.Worker != nil {
		in.Worker = &services.WorkerProfileInput{
			Profession:      input.Worker.Profession,
			HourlyRate:      string(input.Worker.HourlyRate),
			Skills:          input.Worker.Skills,
			ExperienceYears: input.Worker.ExperienceYears,
		}
	}

	user, err := ac.Accounts.Register(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), user.Role, user.DisplayName())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	setTokenCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    userJSON(*user),
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	user, token, err := ac.Accounts.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if services.KindOf(err) == services.KindForbidden {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondServiceError(c, err)
		return
	}
	setTokenCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userJSON(*user),
	})
}

func (ac *AuthController) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := ac.Accounts.Me(c.Request.Context(), p)
	if err != nil {
		if services.KindOf(err) == services.KindNotFound {
			utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
			return
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userJSON(*user)})
}

func setTokenCookie(c *gin.Context, token string) {
	expiryHours := config.AppConfig.JWTExpiryHours
	if expiryHours <= 0 {
		expiryHours = 24
	}
	c.SetCookie("token", token, expiryHours*3600, "/", "", config.IsProduction(), true)
}
