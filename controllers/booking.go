package controllers

import (
	"net/http"

	"homeserve-backend/services"
	"homeserve-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BookingController serves the client side of the job lifecycle.
type BookingController struct {
	Bookings *services.BookingService
	Invoices *services.InvoiceService
}

type BookingRequest struct {
	WorkerID string `json:"workerId" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
	Address  string `json:"address" binding:"required"`
	Notes    string `json:"notes"`
}

func (bc *BookingController) CreateBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var input BookingRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	workerID, err := uuid.Parse(input.WorkerID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid worker ID format")
		return
	}

	job, err := bc.Bookings.RequestBooking(c.Request.Context(), p, services.RequestBookingInput{
		WorkerID: workerID,
		Date:     input.Date,
		Time:     input.Time,
		Address:  input.Address,
		Notes:    input.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking request sent",
		"job":     jobJSON(*job),
	})
}

func (bc *BookingController) GetBookings(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	board, err := bc.Bookings.ClientBookings(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pending":   jobsJSON(board.Pending),
		"upcoming":  jobsJSON(board.Started),
		"completed": jobsJSON(board.Completed),
	})
}

func (bc *BookingController) CancelBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := bc.Bookings.CancelBooking(c.Request.Context(), p, jobID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "job": jobJSON(*job)})
}

func (bc *BookingController) PayInvoice(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := bc.Invoices.MarkPaid(c.Request.Context(), p, jobID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Payment successful",
		"transactionRef": job.TransactionRef,
		"job":            jobJSON(*job),
	})
}

func (bc *BookingController) GetInvoice(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := bc.Invoices.GetInvoice(c.Request.Context(), p, jobID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobJSON(*job))
}
