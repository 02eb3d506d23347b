package services

import (
	"errors"
	"fmt"
	"strings"

	"homeserve-backend/models"
	"homeserve-backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs struct tag validation and folds failures into a
// single validation error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return validationError("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return validationError("%s", strings.Join(msgs, "; "))
}

func parseDate(s string) (string, error) {
	d, err := utils.ParseDate(s)
	if err != nil {
		return "", validationError("%v", err)
	}
	return d.Format(utils.DateLayout), nil
}

// parseSlotTime normalizes the time and requires it to be on the hourly slate.
func parseSlotTime(s string) (string, error) {
	t, err := utils.NormalizeTime(s)
	if err != nil {
		return "", validationError("%v", err)
	}
	if !utils.IsSlotTime(t) {
		return "", validationError("time %s is not a bookable slot (08:00-19:00, on the hour)", t)
	}
	return t, nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return validationError("rating must be 1-5")
	}
	return nil
}

func validatePhotos(photos []string) error {
	if len(photos) > models.MaxReviewPhotos {
		return validationError("at most %d photos allowed", models.MaxReviewPhotos)
	}
	return nil
}

// Invoice amounts are stored with two decimal places.
var (
	maxHoursWorked  = decimal.NewFromInt(24)
	maxHourlyRate   = decimal.RequireFromString("999999.99")
	maxInvoiceTotal = decimal.RequireFromString("99999999.99")
)

func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// ParseHours requires a non-negative decimal of at most 24 hours with no
// more than two decimal places.
func ParseHours(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, validationError("hours worked is required")
	}
	h, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, validationError("valid hours worked required")
	}
	if h.IsNegative() {
		return decimal.Zero, validationError("hours worked cannot be negative")
	}
	if h.GreaterThan(maxHoursWorked) {
		return decimal.Zero, validationError("hours worked cannot exceed %s", maxHoursWorked)
	}
	if !hasCents(h) {
		return decimal.Zero, validationError("hours worked allows at most two decimal places")
	}
	return h, nil
}

// parseHourlyRate requires a positive amount in whole cents.
func parseHourlyRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !rate.IsPositive() || !hasCents(rate) || rate.GreaterThan(maxHourlyRate) {
		return decimal.Zero, validationError("hourly rate must be a positive amount up to %s in whole cents", maxHourlyRate)
	}
	return rate, nil
}

// ParseMaterialCost never fails: malformed or negative costs count as zero.
// Valid costs are rounded to cents.
func ParseMaterialCost(raw string) decimal.Decimal {
	c, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || c.IsNegative() {
		return decimal.Zero
	}
	return c.Round(2)
}
