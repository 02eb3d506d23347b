package services

import (
	"context"
	"testing"

	"homeserve-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingLifecycle_InvoiceTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")

	job := f.request(t, client, worker, "2025-06-01", "14:00")
	assert.Equal(t, models.JobPending, job.Status)
	assert.Equal(t, "Handyman", job.ServiceName)
	assert.Equal(t, models.AvailabilityFree, f.availabilityOf(t, worker.ID, "2025-06-01"),
		"a request alone does not reserve the date")

	accepted, err := f.bookings.AcceptBooking(ctx, principalOf(worker), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStarted, accepted.Status)
	assert.NotNil(t, accepted.StartedAt)
	assert.Equal(t, models.AvailabilityJob, f.availabilityOf(t, worker.ID, "2025-06-01"))

	res, err := f.bookings.CompleteBooking(ctx, principalOf(worker), job.ID, CompleteBookingInput{
		HoursWorked: "2",
		Materials:   []MaterialInput{{Name: "Pipe", Cost: "15"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, res.Job.Status)
	assert.Equal(t, "85.00", res.Invoice.Total.StringFixed(2))
	assert.Equal(t, "60.00", res.Invoice.Labor.StringFixed(2))
	assert.False(t, res.ReviewGiven)

	var stored models.Invoice
	require.NoError(t, f.db.Where("job_id = ?", job.ID).First(&stored).Error)
	assert.Equal(t, "85.00", stored.Total.StringFixed(2))
	assert.Equal(t, "30.00", stored.HourlyRate.StringFixed(2))
}

func TestRequestBooking_StartedSlotUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := seedClient(t, f.db, "alice")
	second := seedClient(t, f.db, "carol")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")

	job := f.request(t, first, worker, "2025-06-01", "14:00")
	_, err := f.bookings.AcceptBooking(ctx, principalOf(worker), job.ID)
	require.NoError(t, err)

	_, err = f.bookings.RequestBooking(ctx, principalOf(second), RequestBookingInput{
		WorkerID: worker.ID,
		Date:     "2025-06-01",
		Time:     "14:00",
		Address:  "1 Oak Road",
	})
	require.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestRequestBooking_DateNotFree(t *testing.T) {
	f := newFixture(t)
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionCleaning, "25")

	_, err := f.bookings.RequestBooking(context.Background(), principalOf(client), RequestBookingInput{
		WorkerID: worker.ID,
		Date:     "2025-06-01",
		Time:     "09:00",
		Address:  "1 Oak Road",
	})
	require.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestRequestBooking_OneActivePerPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionMoving, "40")
	f.setFree(t, worker, "2025-06-01", "2025-06-02")

	f.request(t, client, worker, "2025-06-01", "09:00")

	_, err := f.bookings.RequestBooking(ctx, principalOf(client), RequestBookingInput{
		WorkerID: worker.ID,
		Date:     "2025-06-02",
		Time:     "11:00",
		Address:  "12 Elm Street",
	})
	require.ErrorIs(t, err, ErrDuplicateBooking)

	var n int64
	require.NoError(t, f.db.Model(&models.Job{}).
		Where("client_id = ? AND worker_id = ? AND status IN ?", client.ID, worker.ID, models.ActiveJobStatuses).
		Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestRequestBooking_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")

	cases := []struct {
		name string
		in   RequestBookingInput
		want Kind
	}{
		{"bad date", RequestBookingInput{WorkerID: worker.ID, Date: "06/01/2025", Time: "10:00", Address: "x"}, KindValidation},
		{"off slate", RequestBookingInput{WorkerID: worker.ID, Date: "2025-06-01", Time: "10:30", Address: "x"}, KindValidation},
		{"after hours", RequestBookingInput{WorkerID: worker.ID, Date: "2025-06-01", Time: "20:00", Address: "x"}, KindValidation},
		{"past date", RequestBookingInput{WorkerID: worker.ID, Date: "2025-05-01", Time: "10:00", Address: "x"}, KindValidation},
		{"missing address", RequestBookingInput{WorkerID: worker.ID, Date: "2025-06-01", Time: "10:00", Address: "  "}, KindValidation},
		{"unknown worker", RequestBookingInput{WorkerID: uuid.New(), Date: "2025-06-01", Time: "10:00", Address: "x"}, KindNotFound},
		{"client as worker", RequestBookingInput{WorkerID: client.ID, Date: "2025-06-01", Time: "10:00", Address: "x"}, KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.bookings.RequestBooking(ctx, principalOf(client), tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.want, KindOf(err))
		})
	}
}

func TestRequestBooking_AcceptsSecondsInTime(t *testing.T) {
	f := newFixture(t)
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")

	job := f.request(t, client, worker, "2025-06-01", "14:00:00")
	assert.Equal(t, "14:00", job.Time)
}

func TestRequestBooking_WorkerCannotBook(t *testing.T) {
	f := newFixture(t)
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	other := seedWorker(t, f.db, "dan", models.ProfessionHandyman, "30")
	f.setFree(t, other, "2025-06-01")

	_, err := f.bookings.RequestBooking(context.Background(), principalOf(worker), RequestBookingInput{
		WorkerID: other.ID, Date: "2025-06-01", Time: "10:00", Address: "x",
	})
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestAcceptBooking_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")
	job := f.request(t, client, worker, "2025-06-01", "10:00")

	_, err := f.bookings.AcceptBooking(ctx, principalOf(worker), job.ID)
	require.NoError(t, err)
	_, err = f.bookings.AcceptBooking(ctx, principalOf(worker), job.ID)
	require.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestAcceptBooking_NotOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	stranger := seedWorker(t, f.db, "eve", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")
	job := f.request(t, client, worker, "2025-06-01", "10:00")

	_, err := f.bookings.AcceptBooking(ctx, principalOf(stranger), job.ID)
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestAcceptBooking_SlotAlreadyStarted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := seedClient(t, f.db, "alice")
	carol := seedClient(t, f.db, "carol")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")

	first := f.request(t, alice, worker, "2025-06-01", "10:00")
	second := f.request(t, carol, worker, "2025-06-01", "10:00")

	_, err := f.bookings.AcceptBooking(ctx, principalOf(worker), first.ID)
	require.NoError(t, err)
	_, err = f.bookings.AcceptBooking(ctx, principalOf(worker), second.ID)
	require.ErrorIs(t, err, ErrSlotUnavailable)

	var started int64
	require.NoError(t, f.db.Model(&models.Job{}).
		Where("worker_id = ? AND date = ? AND time = ? AND status = ?", worker.ID, "2025-06-01", "10:00", models.JobStarted).
		Count(&started).Error)
	assert.Equal(t, int64(1), started)
}

func TestRejectBooking_FreesDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")
	job := f.request(t, client, worker, "2025-06-01", "10:00")

	rejected, err := f.bookings.RejectBooking(ctx, principalOf(worker), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCancelled, rejected.Status)
	assert.Equal(t, models.AvailabilityFree, f.availabilityOf(t, worker.ID, "2025-06-01"))

	_, err = f.bookings.RejectBooking(ctx, principalOf(worker), job.ID)
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	// the pair is free to book again
	again := f.request(t, client, worker, "2025-06-01", "11:00")
	assert.Equal(t, models.JobPending, again.Status)
}

func TestRejectBooking_KeepsDateWithStartedJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := seedClient(t, f.db, "alice")
	carol := seedClient(t, f.db, "carol")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")

	kept := f.request(t, alice, worker, "2025-06-01", "09:00")
	dropped := f.request(t, carol, worker, "2025-06-01", "15:00")
	_, err := f.bookings.AcceptBooking(ctx, principalOf(worker), kept.ID)
	require.NoError(t, err)

	_, err = f.bookings.RejectBooking(ctx, principalOf(worker), dropped.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityJob, f.availabilityOf(t, worker.ID, "2025-06-01"))
}

func TestCancelBooking_ClientOwnPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	other := seedClient(t, f.db, "carol")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")
	job := f.request(t, client, worker, "2025-06-01", "10:00")

	_, err := f.bookings.CancelBooking(ctx, principalOf(other), job.ID)
	require.ErrorIs(t, err, ErrJobNotFound)

	cancelled, err := f.bookings.CancelBooking(ctx, principalOf(client), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
}

func TestCompleteBooking_RequiresStarted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")
	job := f.request(t, client, worker, "2025-06-01", "10:00")

	_, err := f.bookings.CompleteBooking(ctx, principalOf(worker), job.ID, CompleteBookingInput{HoursWorked: "1"})
	require.ErrorIs(t, err, ErrJobNotFound)

	var stored models.Job
	require.NoError(t, f.db.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, models.JobPending, stored.Status)

	var invoices int64
	require.NoError(t, f.db.Model(&models.Invoice{}).Count(&invoices).Error)
	assert.Zero(t, invoices)
}

func TestCompleteBooking_Twice(t *testing.T) {
	f := newFixture(t)
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	job := f.completedJob(t, client, worker, "2025-06-01")

	_, err := f.bookings.CompleteBooking(context.Background(), principalOf(worker), job.ID, CompleteBookingInput{HoursWorked: "1"})
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestCompleteBooking_InvalidInputLeavesJobStarted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")
	job := f.request(t, client, worker, "2025-06-01", "10:00")
	_, err := f.bookings.AcceptBooking(ctx, principalOf(worker), job.ID)
	require.NoError(t, err)

	for _, in := range []CompleteBookingInput{
		{HoursWorked: ""},
		{HoursWorked: "two"},
		{HoursWorked: "-1"},
		{HoursWorked: "1.255"},
		{HoursWorked: "25"},
		{HoursWorked: "1", Materials: []MaterialInput{{Name: "Crane", Cost: "100000000"}}},
		{HoursWorked: "1", Review: &CounterReviewInput{Rating: 6}},
		{HoursWorked: "1", Review: &CounterReviewInput{Rating: 4, Photos: make([]string, 6)}},
	} {
		_, err := f.bookings.CompleteBooking(ctx, principalOf(worker), job.ID, in)
		assert.Equal(t, KindValidation, KindOf(err))
	}

	var stored models.Job
	require.NoError(t, f.db.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, models.JobStarted, stored.Status)
}

func TestCompleteBooking_WithCounterReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	f.setFree(t, worker, "2025-06-01")
	job := f.request(t, client, worker, "2025-06-01", "10:00")
	_, err := f.bookings.AcceptBooking(ctx, principalOf(worker), job.ID)
	require.NoError(t, err)

	res, err := f.bookings.CompleteBooking(ctx, principalOf(worker), job.ID, CompleteBookingInput{
		HoursWorked: "1.5",
		Materials:   []MaterialInput{{Name: "Tape", Cost: "abc"}, {Name: "", Cost: "99"}},
		Review:      &CounterReviewInput{Rating: 5, Comment: "Friendly client"},
	})
	require.NoError(t, err)
	assert.True(t, res.ReviewGiven)
	assert.Equal(t, "154.00", res.Invoice.Total.StringFixed(2), "1.5 x 30 + 0 + 99 + 10")
	require.Len(t, res.Invoice.Materials, 2)
	assert.True(t, res.Invoice.Materials[0].Cost.IsZero())
	assert.Equal(t, DefaultMaterialName, res.Invoice.Materials[1].Name)

	var review models.Review
	require.NoError(t, f.db.Where("job_id = ?", job.ID).First(&review).Error)
	assert.Equal(t, worker.ID, review.ReviewerID)
	assert.Equal(t, client.ID, review.RevieweeID)
}

func TestJobBoards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := seedClient(t, f.db, "alice")
	carol := seedClient(t, f.db, "carol")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")

	f.completedJob(t, alice, worker, "2025-06-01")
	f.setFree(t, worker, "2025-06-03")
	pending := f.request(t, carol, worker, "2025-06-03", "09:00")

	board, err := f.bookings.WorkerJobs(ctx, principalOf(worker))
	require.NoError(t, err)
	require.Len(t, board.Pending, 1)
	assert.Equal(t, pending.ID, board.Pending[0].ID)
	assert.Empty(t, board.Started)
	assert.Len(t, board.Completed, 1)

	clientBoard, err := f.bookings.ClientBookings(ctx, principalOf(alice))
	require.NoError(t, err)
	assert.Empty(t, clientBoard.Pending)
	assert.Len(t, clientBoard.Completed, 1)

	_, err = f.bookings.ClientBookings(ctx, principalOf(worker))
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestTodayJobAndInvoiceInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := seedClient(t, f.db, "alice")
	worker := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	today := testNow.Format("2006-01-02")
	f.setFree(t, worker, today)

	none, err := f.bookings.TodayJob(ctx, principalOf(worker))
	require.NoError(t, err)
	assert.Nil(t, none)

	job := f.request(t, client, worker, today, "15:00")
	_, err = f.bookings.AcceptBooking(ctx, principalOf(worker), job.ID)
	require.NoError(t, err)

	got, err := f.bookings.TodayJob(ctx, principalOf(worker))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)

	info, err := f.bookings.JobForInvoice(ctx, principalOf(worker), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "30.00", info.Worker.WorkerProfile.HourlyRate.StringFixed(2))
}
