package services

import (
	"fmt"

	"homeserve-backend/models"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient Role = models.RoleClient
	RoleWorker Role = models.RoleWorker
)

// ParseRole accepts only the known roles.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient, RoleWorker:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Principal is the authenticated caller as supplied by the identity layer.
type Principal struct {
	ID   uuid.UUID
	Role Role
	Name string
}

type Capability int

const (
	CapRequestBooking Capability = iota + 1
	CapPayInvoice
	CapManageJobs
	CapManageAvailability
	CapReviewJob
	CapViewInvoice
	CapMessage
	CapManageProfile
)

var capabilityRoles = map[Capability][]Role{
	CapRequestBooking:     {RoleClient},
	CapPayInvoice:         {RoleClient},
	CapManageJobs:         {RoleWorker},
	CapManageAvailability: {RoleWorker},
	CapReviewJob:          {RoleClient, RoleWorker},
	CapViewInvoice:        {RoleClient, RoleWorker},
	CapMessage:            {RoleClient, RoleWorker},
	CapManageProfile:      {RoleClient, RoleWorker},
}

type Decision int

const (
	Granted Decision = iota
	DeniedUnauthenticated
	DeniedRole
	DeniedUnknownCapability
)

// Authorization is the outcome of a capability check.
type Authorization struct {
	Capability Capability
	Role       Role
	Decision   Decision
}

func (a Authorization) OK() bool { return a.Decision == Granted }

// Err converts a denial into a forbidden service error.
func (a Authorization) Err() error {
	switch a.Decision {
	case Granted:
		return nil
	case DeniedUnauthenticated:
		return &Error{Kind: KindForbidden, Code: "unauthenticated", Message: "authentication required"}
	case DeniedRole:
		return &Error{Kind: KindForbidden, Code: "role_denied", Message: fmt.Sprintf("action not allowed for role %q", a.Role)}
	}
	return &Error{Kind: KindForbidden, Code: "capability_unknown", Message: "action not allowed"}
}

// Authorize checks whether the principal's role carries the capability.
func Authorize(p Principal, c Capability) Authorization {
	a := Authorization{Capability: c, Role: p.Role}
	if p.ID == uuid.Nil {
		a.Decision = DeniedUnauthenticated
		return a
	}
	roles, ok := capabilityRoles[c]
	if !ok {
		a.Decision = DeniedUnknownCapability
		return a
	}
	for _, r := range roles {
		if r == p.Role {
			a.Decision = Granted
			return a
		}
	}
	a.Decision = DeniedRole
	return a
}
