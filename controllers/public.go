package controllers

import (
	"net/http"

	"homeserve-backend/services"
	"homeserve-backend/utils"

	"github.com/gin-gonic/gin"
)

// PublicController serves the unauthenticated directory.
type PublicController struct {
	Directory    *services.DirectoryService
	Availability *services.AvailabilityService
}

func (pc *PublicController) GetServices(c *gin.Context) {
	list, err := pc.Directory.PopularServices(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (pc *PublicController) GetWorkers(c *gin.Context) {
	profession := c.Query("profession")
	if profession == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "profession is required")
		return
	}
	cards, err := pc.Directory.WorkersByProfession(c.Request.Context(), profession)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]gin.H, len(cards))
	for i, card := range cards {
		out[i] = gin.H{
			"worker": userJSON(card.Worker),
			"stats":  statsJSON(card.Stats),
		}
	}
	c.JSON(http.StatusOK, out)
}

func (pc *PublicController) GetWorker(c *gin.Context) {
	workerID, ok := idParam(c, "id")
	if !ok {
		return
	}
	view, err := pc.Directory.WorkerDetail(c.Request.Context(), workerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	calendar := make([]gin.H, len(view.Calendar))
	for i, d := range view.Calendar {
		calendar[i] = gin.H{"date": d.Date, "status": d.Status}
	}
	c.JSON(http.StatusOK, gin.H{
		"worker":   userJSON(view.Worker),
		"stats":    statsJSON(view.Stats),
		"calendar": calendar,
		"reviews":  reviewsJSON(view.Reviews),
	})
}

// GetFreeDates lists the worker's free dates from today through the
// booking horizon.
func (pc *PublicController) GetFreeDates(c *gin.Context) {
	workerID, ok := idParam(c, "id")
	if !ok {
		return
	}
	dates, err := pc.Availability.FreeDatesAhead(c.Request.Context(), workerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

func (pc *PublicController) GetTimeSlots(c *gin.Context) {
	workerID, ok := idParam(c, "id")
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "date is required")
		return
	}
	slots, err := pc.Availability.ListTimeSlots(c.Request.Context(), workerID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}
