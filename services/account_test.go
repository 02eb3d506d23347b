package services

import (
	"context"
	"testing"

	"homeserve-backend/models"
	"homeserve-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerWorker(t *testing.T, a *AccountService, email string) *models.User {
	t.Helper()
	u, err := a.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "password123",
		FullName: "Bob Builder",
		Phone:    "+15551234567",
		Role:     "worker",
		Worker: &WorkerProfileInput{
			Profession:      "handyman",
			HourlyRate:      "42.50",
			Skills:          []string{"plumbing", "tiling"},
			ExperienceYears: 7,
		},
	})
	require.NoError(t, err)
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := NewAccountService(f.db, nil)

	u := registerWorker(t, a, " Bob@Example.com ")
	assert.Equal(t, "bob@example.com", u.Email)
	assert.NotEqual(t, "password123", u.Password)
	require.NotNil(t, u.WorkerProfile)
	assert.Equal(t, "42.5", u.WorkerProfile.HourlyRate.String())

	got, token, err := a.Login(ctx, "BOB@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims, err := utils.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.Subject)
	assert.Equal(t, models.RoleWorker, claims.Role)

	_, _, err = a.Login(ctx, "bob@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = a.Login(ctx, "nobody@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_EmailTaken(t *testing.T) {
	f := newFixture(t)
	a := NewAccountService(f.db, nil)
	registerWorker(t, a, "bob@example.com")

	_, err := a.Register(context.Background(), RegisterInput{
		Email:    "BOB@example.com",
		Password: "password123",
		FullName: "Someone Else",
		Role:     "client",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	a := NewAccountService(f.db, nil)
	ctx := context.Background()

	cases := map[string]RegisterInput{
		"bad email":      {Email: "nope", Password: "password123", FullName: "A", Role: "client"},
		"short password": {Email: "a@example.com", Password: "short", FullName: "A", Role: "client"},
		"unknown role":   {Email: "a@example.com", Password: "password123", FullName: "A", Role: "admin"},
		"bad phone":      {Email: "a@example.com", Password: "password123", FullName: "A", Role: "client", Phone: "call me"},
		"worker without profile": {
			Email: "a@example.com", Password: "password123", FullName: "A", Role: "worker",
		},
		"unknown profession": {
			Email: "a@example.com", Password: "password123", FullName: "A", Role: "worker",
			Worker: &WorkerProfileInput{Profession: "plumbing", HourlyRate: "20"},
		},
		"rate below a cent": {
			Email: "a@example.com", Password: "password123", FullName: "A", Role: "worker",
			Worker: &WorkerProfileInput{Profession: "moving", HourlyRate: "20.555"},
		},
		"zero rate": {
			Email: "a@example.com", Password: "password123", FullName: "A", Role: "worker",
			Worker: &WorkerProfileInput{Profession: "moving", HourlyRate: "0"},
		},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := a.Register(ctx, in)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := NewAccountService(f.db, nil)
	u := registerWorker(t, a, "bob@example.com")
	p := principalOf(*u)

	name := "Robert Builder"
	blank := "  "
	rate := "55"
	years := 9
	updated, err := a.UpdateProfile(ctx, p, UpdateProfileInput{
		FullName:        &name,
		Location:        &blank,
		ProfilePic:      "https://cdn.example.com/bob.png",
		HourlyRate:      &rate,
		Skills:          []string{"roofing"},
		ExperienceYears: &years,
	})
	require.NoError(t, err)
	assert.Equal(t, "Robert Builder", updated.FullName)
	assert.Equal(t, "https://cdn.example.com/bob.png", updated.ProfilePic)
	require.NotNil(t, updated.WorkerProfile)
	assert.Equal(t, "55", updated.WorkerProfile.HourlyRate.String())
	assert.Equal(t, []string{"roofing"}, updated.WorkerProfile.Skills)
	assert.Equal(t, 9, updated.WorkerProfile.ExperienceYears)
	assert.Equal(t, models.ProfessionHandyman, updated.WorkerProfile.Profession)

	bad := "-3"
	_, err = a.UpdateProfile(ctx, p, UpdateProfileInput{HourlyRate: &bad})
	assert.Equal(t, KindValidation, KindOf(err))

	phone := "not a phone"
	_, err = a.UpdateProfile(ctx, p, UpdateProfileInput{Phone: &phone})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestProfile_ClientCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := NewAccountService(f.db, nil)
	client := seedClient(t, f.db, "alice")
	bob := seedWorker(t, f.db, "bob", models.ProfessionHandyman, "30")
	dan := seedWorker(t, f.db, "dan", models.ProfessionMoving, "40")

	f.completedJob(t, client, bob, "2025-06-01")
	f.completedJob(t, client, bob, "2025-06-02")
	f.completedJob(t, client, dan, "2025-06-01")

	view, err := a.Profile(ctx, principalOf(client))
	require.NoError(t, err)
	assert.Equal(t, int64(3), view.HiredCount)
	assert.Equal(t, int64(2), view.UniqueWorkers)

	workerView, err := a.Profile(ctx, principalOf(bob))
	require.NoError(t, err)
	assert.Equal(t, int64(2), workerView.Stats.TotalJobs)
	assert.Zero(t, workerView.HiredCount)
}
