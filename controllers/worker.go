package controllers

import (
	"net/http"
	"strconv"
	"time"

	"homeserve-backend/services"
	"homeserve-backend/utils"

	"github.com/gin-gonic/gin"
)

// WorkerController serves the worker dashboard: jobs, calendar, earnings.
type WorkerController struct {
	Bookings     *services.BookingService
	Invoices     *services.InvoiceService
	Availability *services.AvailabilityService
}

func (wc *WorkerController) GetJobs(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	board, err := wc.Bookings.WorkerJobs(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"new":        jobsJSON(board.Pending),
		"inProgress": jobsJSON(board.Started),
		"completed":  jobsJSON(board.Completed),
	})
}

func (wc *WorkerController) GetTodayJob(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	job, err := wc.Bookings.TodayJob(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if job == nil {
		c.JSON(http.StatusOK, gin.H{"job": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": jobJSON(*job)})
}

func (wc *WorkerController) AcceptJob(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := wc.Bookings.AcceptBooking(c.Request.Context(), p, jobID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job accepted", "job": jobJSON(*job)})
}

func (wc *WorkerController) RejectJob(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := wc.Bookings.RejectBooking(c.Request.Context(), p, jobID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job rejected", "job": jobJSON(*job)})
}

func (wc *WorkerController) GetInvoiceInfo(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := wc.Bookings.JobForInvoice(c.Request.Context(), p, jobID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"job":        jobJSON(*job),
		"hourlyRate": utils.FormatMoney(job.Worker.WorkerProfile.HourlyRate),
	})
}

type MaterialRequest struct {
	Name string      `json:"name"`
	Cost looseNumber `json:"cost"`
}

type CounterReviewRequest struct {
	Rating  int      `json:"rating"`
	Comment string   `json:"comment"`
	Photos  []string `json:"photos"`
}

type CompleteJobRequest struct {
	HoursWorked looseNumber           `json:"hoursWorked"`
	Materials   []MaterialRequest     `json:"materials"`
	Review      *CounterReviewRequest `json:"review"`
}

func (wc *WorkerController) CompleteJob(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var input CompleteJobRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	in := services.CompleteBookingInput{HoursWorked: string(input.HoursWorked)}
	for _, m := range input.Materials {
		in.Materials = append(in.Materials, services.MaterialInput{Name: m.Name, Cost: string(m.Cost)})
	}
	if input.Review != nil {
		in.Review = &services.CounterReviewInput{
			Rating:  input.Review.Rating,
			Comment: input.Review.Comment,
			Photos:  input.Review.Photos,
		}
	}

	result, err := wc.Bookings.CompleteBooking(c.Request.Context(), p, jobID, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Job completed and invoice sent",
		"job":         jobJSON(*result.Job),
		"reviewGiven": result.ReviewGiven,
	})
}

type AvailabilityRequest struct {
	Dates  []string `json:"dates" binding:"required"`
	Status string   `json:"status" binding:"required"`
}

func (wc *WorkerController) SetAvailability(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var input AvailabilityRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	result, err := wc.Availability.SetAvailability(c.Request.Context(), p, services.SetAvailabilityInput{
		Dates:  input.Dates,
		Status: input.Status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Availability updated",
		"status":  result.Status,
		"updated": nonNil(result.Updated),
		"skipped": nonNil(result.Skipped),
	})
}

// GetAvailability returns one month of the caller's calendar, defaulting
// to the current month.
func (wc *WorkerController) GetAvailability(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := services.Authorize(p, services.CapManageAvailability).Err(); err != nil {
		respondServiceError(c, err)
		return
	}

	now := time.Now()
	year, month := now.Year(), now.Month()
	if y, err := strconv.Atoi(c.Query("year")); err == nil {
		year = y
	}
	if m, err := strconv.Atoi(c.Query("month")); err == nil && m >= 1 && m <= 12 {
		month = time.Month(m)
	}

	rows, err := wc.Availability.MonthCalendar(c.Request.Context(), p.ID, year, month)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	days := make([]gin.H, len(rows))
	for i, r := range rows {
		days[i] = gin.H{"date": r.Date, "status": r.Status}
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": int(month), "days": days})
}

func (wc *WorkerController) GetEarnings(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sum, err := wc.Invoices.WorkerEarnings(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"today":       utils.FormatMoney(sum.Today),
		"thisWeek":    utils.FormatMoney(sum.ThisWeek),
		"thisMonth":   utils.FormatMoney(sum.ThisMonth),
		"total":       utils.FormatMoney(sum.Total),
		"outstanding": utils.FormatMoney(sum.Outstanding),
		"jobsPaid":    sum.JobsPaid,
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
