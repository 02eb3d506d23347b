package services

import (
	"context"
	"testing"
	"time"

	"homeserve-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAvailability_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	worker := seedWorker(t, f.db, "bob", models.ProfessionCleaning, "25")
	in := SetAvailabilityInput{Dates: []string{"2025-06-02", "2025-06-01", "2025-06-01"}, Status: "free"}

	first, err := f.availability.SetAvailability(ctx, principalOf(worker), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-01", "2025-06-02"}, first.Updated)

	_, err = f.availability.SetAvailability(ctx, principalOf(worker), in)
	require.NoError(t, err)

	var rows []models.WorkerAvailability
	require.NoError(t, f.db.Where("worker_id = ?", worker.ID).Order("date").Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, models.AvailabilityFree, r.Status)
	}

	_, err = f.availability.SetAvailability(ctx, principalOf(worker), SetAvailabilityInput{
		Dates: []string{"2025-06-02"}, Status: "booked",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityBooked, f.availabilityOf(t, worker.ID, "2025-06-02"))
	assert.Equal(t, models.AvailabilityFree, f.availabilityOf(t, worker.ID, "2025-06-01"))
}

func TestSetAvailability_SkipsJobDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")
	job := f.request(t, client, worker, "2025-06-01", "10:00")
	_, err := f.bookings.AcceptBooking(ctx, principalOf(worker), job.ID)
	require.NoError(t, err)

	res, err := f.availability.SetAvailability(ctx, principalOf(worker), SetAvailabilityInput{
		Dates: []string{"2025-06-01", "2025-06-05"}, Status: "booked",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-05"}, res.Updated)
	assert.Equal(t, []string{"2025-06-01"}, res.Skipped)
	assert.Equal(t, models.AvailabilityJob, f.availabilityOf(t, worker.ID, "2025-06-01"))
}

func TestSetAvailability_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")

	_, err := f.availability.SetAvailability(ctx, principalOf(client), SetAvailabilityInput{
		Dates: []string{"2025-06-01"}, Status: "free",
	})
	assert.Equal(t, KindForbidden, KindOf(err))

	for _, in := range []SetAvailabilityInput{
		{Dates: nil, Status: "free"},
		{Dates: []string{"2025-06-01"}, Status: "job"},
		{Dates: []string{"June 1"}, Status: "free"},
	} {
		_, err := f.availability.SetAvailability(ctx, principalOf(worker), in)
		assert.Equal(t, KindValidation, KindOf(err), "%+v", in)
	}
}

func TestListTimeSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")
	f.request(t, client, worker, "2025-06-01", "14:00")

	day, err := f.availability.ListTimeSlots(ctx, worker.ID, "2025-06-01")
	require.NoError(t, err)
	assert.True(t, day.DateAvailable)
	require.Len(t, day.Slots, 12)
	assert.Equal(t, "08:00", day.Slots[0].Time)
	assert.Equal(t, "8:00 AM", day.Slots[0].Display)
	assert.Equal(t, "19:00", day.Slots[11].Time)

	for _, s := range day.Slots {
		if s.Time == "14:00" {
			assert.False(t, s.Available)
		} else {
			assert.True(t, s.Available, s.Time)
		}
	}
}

func TestListTimeSlots_DateNotFree(t *testing.T) {
	f := newFixture(t)
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")

	day, err := f.availability.ListTimeSlots(context.Background(), worker.ID, "2025-06-09")
	require.NoError(t, err)
	assert.False(t, day.DateAvailable)
	require.Len(t, day.Slots, 12)
	for _, s := range day.Slots {
		assert.False(t, s.Available)
	}
}

func TestListTimeSlots_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")

	_, err := f.availability.ListTimeSlots(ctx, uuid.New(), "2025-06-01")
	require.ErrorIs(t, err, ErrWorkerNotFound)

	_, err = f.availability.ListTimeSlots(ctx, worker.ID, "2025-13-01")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestFreeDatesAhead(t *testing.T) {
	f := newFixture(t)
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-05-01", "2025-06-01", "2025-06-15", "2025-12-01")
	_, err := f.availability.SetAvailability(context.Background(), principalOf(worker), SetAvailabilityInput{
		Dates: []string{"2025-06-10"}, Status: "booked",
	})
	require.NoError(t, err)

	dates, err := f.availability.FreeDatesAhead(context.Background(), worker.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-01", "2025-06-15"}, dates)
}

func TestListFreeDates_BadWindow(t *testing.T) {
	f := newFixture(t)
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	_, err := f.availability.ListFreeDates(context.Background(), worker.ID, testNow, testNow.Add(-time.Hour))
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestMonthCalendar(t *testing.T) {
	f := newFixture(t)
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-05-31", "2025-06-01", "2025-06-30", "2025-07-01")

	rows, err := f.availability.MonthCalendar(context.Background(), worker.ID, 2025, time.June)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-06-01", rows[0].Date)
	assert.Equal(t, "2025-06-30", rows[1].Date)
}
