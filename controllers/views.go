package controllers

import (
	"homeserve-backend/models"
	"homeserve-backend/services"
	"homeserve-backend/utils"

	"github.com/gin-gonic/gin"
)

func userJSON(u models.User) gin.H {
	out := gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.DisplayName(),
		"phone":      u.Phone,
		"role":       u.Role,
		"location":   u.Location,
		"profilePic": u.ProfilePic,
	}
	if u.WorkerProfile != nil {
		out["workerProfile"] = gin.H{
			"profession":      u.WorkerProfile.Profession,
			"professionLabel": u.WorkerProfile.Profession.Label(),
			"hourlyRate":      u.WorkerProfile.HourlyRate.InexactFloat64(),
			"skills":          u.WorkerProfile.Skills,
			"experienceYears": u.WorkerProfile.ExperienceYears,
			"isApproved":      u.WorkerProfile.IsApproved,
		}
	}
	return out
}

// participantJSON is the short form of the other side of a job or chat.
func participantJSON(u models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"name":       u.DisplayName(),
		"phone":      u.Phone,
		"profilePic": u.ProfilePic,
	}
}

func statsJSON(s services.Stats) gin.H {
	return gin.H{
		"rating":       s.Rating.InexactFloat64(),
		"totalReviews": s.TotalReviews,
		"totalJobs":    s.TotalJobs,
	}
}

func jobJSON(j models.Job) gin.H {
	out := gin.H{
		"id":             j.ID,
		"serviceName":    j.ServiceName,
		"date":           j.Date,
		"displayDate":    utils.DisplayDate(j.Date),
		"time":           j.Time,
		"displayTime":    utils.DisplayTime(j.Time),
		"address":        j.Address,
		"notes":          j.Notes,
		"status":         j.Status,
		"isPaid":         j.IsPaid,
		"paidAt":         j.PaidAt,
		"transactionRef": j.TransactionRef,
		"createdAt":      j.CreatedAt,
		"startedAt":      j.StartedAt,
		"completedAt":    j.CompletedAt,
	}
	if j.Worker.ID == j.WorkerID {
		out["worker"] = participantJSON(j.Worker)
	}
	if j.Client.ID == j.ClientID {
		out["client"] = participantJSON(j.Client)
	}
	if j.Invoice != nil {
		out["invoice"] = invoiceJSON(*j.Invoice)
	}
	return out
}

func jobsJSON(jobs []models.Job) []gin.H {
	out := make([]gin.H, len(jobs))
	for i, j := range jobs {
		out[i] = jobJSON(j)
	}
	return out
}

func invoiceJSON(inv models.Invoice) gin.H {
	materials := make([]gin.H, len(inv.Materials))
	for i, m := range inv.Materials {
		materials[i] = gin.H{"name": m.Name, "cost": utils.FormatMoney(m.Cost)}
	}
	return gin.H{
		"id":             inv.ID,
		"hoursWorked":    inv.HoursWorked.String(),
		"hourlyRate":     utils.FormatMoney(inv.HourlyRate),
		"labor":          utils.FormatMoney(inv.Labor),
		"materials":      materials,
		"materialsTotal": utils.FormatMoney(inv.MaterialsTotal),
		"serviceCharge":  utils.FormatMoney(inv.ServiceCharge),
		"total":          utils.FormatMoney(inv.Total),
		"sentAt":         inv.SentAt,
	}
}

func reviewJSON(r models.Review) gin.H {
	out := gin.H{
		"id":        r.ID,
		"jobId":     r.JobID,
		"rating":    r.Rating,
		"comment":   r.Comment,
		"photos":    r.Photos,
		"createdAt": r.CreatedAt,
	}
	if r.Reviewer.ID == r.ReviewerID {
		out["reviewer"] = participantJSON(r.Reviewer)
	}
	return out
}

func reviewsJSON(reviews []models.Review) []gin.H {
	out := make([]gin.H, len(reviews))
	for i, r := range reviews {
		out[i] = reviewJSON(r)
	}
	return out
}
