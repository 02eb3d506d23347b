package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"homeserve-backend/models"
	"homeserve-backend/services"
	"homeserve-backend/utils"

	"github.com/gin-gonic/gin"
)

const maxPhotoBytes = 5 << 20

// ReviewController accepts reviews as JSON, or as a multipart form when
// photos are uploaded alongside.
type ReviewController struct {
	Reviews *services.ReviewService
	Media   services.MediaStore
}

type ReviewRequest struct {
	Rating  int      `json:"rating" form:"rating"`
	Comment string   `json:"comment" form:"comment"`
	Photos  []string `json:"photos"`
}

func (rc *ReviewController) SubmitReview(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var input ReviewRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&input); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}
		urls, err := rc.uploadPhotos(c)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		input.Photos = urls
	} else if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	review, err := rc.Reviews.SubmitReview(c.Request.Context(), p, jobID, services.ReviewInput{
		Rating:  input.Rating,
		Comment: input.Comment,
		Photos:  input.Photos,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review submitted", "review": reviewJSON(*review)})
}

func (rc *ReviewController) uploadPhotos(c *gin.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form")
	}
	files := form.File["photos"]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > models.MaxReviewPhotos {
		return nil, fmt.Errorf("at most %d photos allowed", models.MaxReviewPhotos)
	}
	if rc.Media == nil {
		return nil, fmt.Errorf("photo uploads are not available")
	}

	urls := make([]string, 0, len(files))
	for i, fh := range files {
		if fh.Size > maxPhotoBytes {
			return nil, fmt.Errorf("photo %s exceeds %d MB", fh.Filename, maxPhotoBytes>>20)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("cannot read photo %s", fh.Filename)
		}
		url, err := rc.Media.Upload(c.Request.Context(), fh.Filename, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("upload of photo %d failed", i+1)
		}
		urls = append(urls, url)
	}
	return urls, nil
}
