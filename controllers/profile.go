package controllers

import (
	"net/http"
	"strings"

	"homeserve-backend/services"
	"homeserve-backend/utils"

	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	Accounts *services.AccountService
	Media    services.MediaStore
}

type UpdateProfileInput struct {
	FullName        *string      `json:"name" form:"name"`
	Phone           *string      `json:"phone" form:"phone"`
	Location        *string      `json:"location" form:"location"`
	HourlyRate      *looseNumber `json:"hourlyRate"`
	Skills          []string     `json:"skills"`
	ExperienceYears *int         `json:"experienceYears" form:"experienceYears"`
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	view, err := pc.Accounts.Profile(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := gin.H{
		"user":    userJSON(view.User),
		"stats":   statsJSON(view.Stats),
		"reviews": reviewsJSON(view.Reviews),
	}
	if p.Role == services.RoleClient {
		out["hiredCount"] = view.HiredCount
		out["uniqueWorkers"] = view.UniqueWorkers
	}
	c.JSON(http.StatusOK, out)
}

// UpdateProfile accepts JSON, or a multipart form carrying a new
// profile_pic file.
func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var input UpdateProfileInput
	var picURL string
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&input); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
			return
		}
		if fh, err := c.FormFile("profile_pic"); err == nil {
			if pc.Media == nil {
				utils.RespondWithError(c, http.StatusBadRequest, "photo uploads are not available")
				return
			}
			if fh.Size > maxPhotoBytes {
				utils.RespondWithError(c, http.StatusBadRequest, "profile picture too large")
				return
			}
			f, err := fh.Open()
			if err != nil {
				utils.RespondWithError(c, http.StatusBadRequest, "cannot read profile picture")
				return
			}
			picURL, err = pc.Media.Upload(c.Request.Context(), fh.Filename, f)
			f.Close()
			if err != nil {
				respondServiceError(c, err)
				return
			}
		}
	} else if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	in := services.UpdateProfileInput{
		FullName:        input.FullName,
		Phone:           input.Phone,
		Location:        input.Location,
		ProfilePic:      picURL,
		Skills:          input.Skills,
		ExperienceYears: input.ExperienceYears,
	}
	if input.HourlyRate != nil {
		rate := string(*input.HourlyRate)
		in.HourlyRate = &rate
	}

	user, err := pc.Accounts.UpdateProfile(c.Request.Context(), p, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": userJSON(*user)})
}
