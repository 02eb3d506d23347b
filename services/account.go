package services

import (
	"context"
	"strings"

	"homeserve-backend/models"
	"homeserve-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AccountService struct {
	db        *gorm.DB
	directory *DirectoryService
}

// NewAccountService wires account management. directory may be nil; when
// set, its cached profession counts are dropped after a worker signs up.
func NewAccountService(db *gorm.DB, directory *DirectoryService) *AccountService {
	return &AccountService{db: db, directory: directory}
}

type WorkerProfileInput struct {
	Profession      string   `validate:"required,oneof=handyman cleaning moving homecare"`
	HourlyRate      string   `validate:"required"`
	Skills          []string `validate:"max=20"`
	ExperienceYears int      `validate:"gte=0,lte=80"`
}

type RegisterInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	FullName string `validate:"required"`
	Phone    string
	Role     string `validate:"required,oneof=client worker"`
	Location string
	Worker   *WorkerProfileInput
}

// Register creates a user and, for workers, their profile.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Phone != "" {
		phone, ok := utils.NormalizePhone(in.Phone)
		if !ok {
			return nil, validationError("invalid phone number format")
		}
		in.Phone = phone
	}

	role, err := ParseRole(in.Role)
	if err != nil {
		return nil, validationError("%v", err)
	}

	var profile *models.WorkerProfile
	if role == RoleWorker {
		if in.Worker == nil {
			return nil, validationError("worker profile is required")
		}
		if err := validateStruct(*in.Worker); err != nil {
			return nil, err
		}
		rate, err := parseHourlyRate(in.Worker.HourlyRate)
		if err != nil {
			return nil, err
		}
		profile = &models.WorkerProfile{
			Profession:      models.Profession(in.Worker.Profession),
			HourlyRate:      rate,
			Skills:          in.Worker.Skills,
			ExperienceYears: in.Worker.ExperienceYears,
		}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:    in.Email,
		Password: hash,
		FullName: in.FullName,
		Phone:    in.Phone,
		Role:     string(role),
		Location: strings.TrimSpace(in.Location),
		IsActive: true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrEmailTaken
		}
		if err := tx.Omit("WorkerProfile").Create(&user).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrEmailTaken
			}
			return err
		}
		if profile != nil {
			profile.UserID = user.ID
			if err := tx.Create(profile).Error; err != nil {
				return err
			}
			user.WorkerProfile = profile
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if profile != nil && s.directory != nil {
		s.directory.InvalidateServices(ctx)
	}
	return &user, nil
}

// Login checks the credentials and returns the user with a signed token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", validationError("email and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if isNotFound(err) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !user.IsActive || !utils.CheckPasswordHash(password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID.String(), user.Role, user.DisplayName())
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *AccountService) Me(ctx context.Context, p Principal) (*models.User, error) {
	return s.userByID(ctx, p.ID)
}

func (s *AccountService) userByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("WorkerProfile").First(&user, "id = ?", id).Error
	if isNotFound(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type UpdateProfileInput struct {
	FullName   *string
	Phone      *string
	Location   *string
	ProfilePic string

	// Worker only. Nil leaves the field unchanged.
	HourlyRate      *string
	Skills          []string
	ExperienceYears *int
}

// UpdateProfile applies the non-nil fields. Blank strings keep the old value.
func (s *AccountService) UpdateProfile(ctx context.Context, p Principal, in UpdateProfileInput) (*models.User, error) {
	if err := Authorize(p, CapManageProfile).Err(); err != nil {
		return nil, err
	}

	userUpdates := map[string]any{}
	if in.FullName != nil && strings.TrimSpace(*in.FullName) != "" {
		userUpdates["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil && strings.TrimSpace(*in.Phone) != "" {
		phone, ok := utils.NormalizePhone(*in.Phone)
		if !ok {
			return nil, validationError("invalid phone number format")
		}
		userUpdates["phone"] = phone
	}
	if in.Location != nil && strings.TrimSpace(*in.Location) != "" {
		userUpdates["location"] = strings.TrimSpace(*in.Location)
	}
	if in.ProfilePic != "" {
		userUpdates["profile_pic"] = in.ProfilePic
	}

	var (
		rate        *decimal.Decimal
		profileCols []string
	)
	if p.Role == RoleWorker {
		if in.HourlyRate != nil {
			r, err := parseHourlyRate(*in.HourlyRate)
			if err != nil {
				return nil, err
			}
			rate = &r
			profileCols = append(profileCols, "HourlyRate")
		}
		if in.Skills != nil {
			profileCols = append(profileCols, "Skills")
		}
		if in.ExperienceYears != nil {
			if *in.ExperienceYears < 0 {
				return nil, validationError("experience years cannot be negative")
			}
			profileCols = append(profileCols, "ExperienceYears")
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(userUpdates) > 0 {
			res := tx.Model(&models.User{}).Where("id = ?", p.ID).Updates(userUpdates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrUserNotFound
			}
		}
		if len(profileCols) > 0 {
			var profile models.WorkerProfile
			if err := tx.Where("user_id = ?", p.ID).First(&profile).Error; err != nil {
				if isNotFound(err) {
					return ErrWorkerNotFound
				}
				return err
			}
			if rate != nil {
				profile.HourlyRate = *rate
			}
			if in.Skills != nil {
				profile.Skills = in.Skills
			}
			if in.ExperienceYears != nil {
				profile.ExperienceYears = *in.ExperienceYears
			}
			if err := tx.Model(&profile).Select(profileCols).Updates(&profile).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.userByID(ctx, p.ID)
}

// ProfileView is the caller's own profile page.
type ProfileView struct {
	User    models.User
	Stats   Stats
	Reviews []models.Review

	// Client only.
	HiredCount    int64
	UniqueWorkers int64
}

const ownProfileReviewLimit = 10

func (s *AccountService) Profile(ctx context.Context, p Principal) (*ProfileView, error) {
	user, err := s.userByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	stats, err := WorkerStats(db, []uuid.UUID{user.ID})
	if err != nil {
		return nil, err
	}
	reviews, err := reviewsFor(db, user.ID, ownProfileReviewLimit)
	if err != nil {
		return nil, err
	}
	view := &ProfileView{User: *user, Stats: stats[user.ID], Reviews: reviews}

	if Role(user.Role) == RoleClient {
		completed := db.Model(&models.Job{}).Where("client_id = ? AND status = ?", user.ID, models.JobCompleted)
		if err := completed.Count(&view.HiredCount).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&models.Job{}).
			Where("client_id = ? AND status = ?", user.ID, models.JobCompleted).
			Distinct("worker_id").
			Count(&view.UniqueWorkers).Error; err != nil {
			return nil, err
		}
	}
	return view, nil
}
