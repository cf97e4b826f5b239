// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role is one of the fixed set of account roles.
type Role string

// Known roles.
const (
	RoleAdmin       Role = "admin"
	RoleCaseManager Role = "case_manager"
	RoleAnalyst     Role = "analyst"
	RoleViewer      Role = "viewer"
)

// Valid reports whether the role belongs to the fixed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCaseManager, RoleAnalyst, RoleViewer:
		return true
	}
	return false
}

// RiskLevel classifies the current threat level of a record.
type RiskLevel string

// Known risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether the risk level belongs to the fixed enumeration.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// VictimType discriminates victims, witnesses, or both.
type VictimType string

// Known victim types.
const (
	TypeVictim  VictimType = "victim"
	TypeWitness VictimType = "witness"
	TypeBoth    VictimType = "both"
)

// Valid reports whether the victim type belongs to the fixed enumeration.
func (t VictimType) Valid() bool {
	switch t {
	case TypeVictim, TypeWitness, TypeBoth:
		return true
	}
	return false
}

// User represents a stored account. Passwords are never stored in plaintext.
type User struct {
	ID        uuid.UUID // PK
	Username  string    // unique
	PwdHash   []byte    // Argon2id(password, SaltAuth)
	SaltAuth  []byte    // per-user auth salt
	Roles     []Role    // non-empty
	IsActive  bool
	CreatedAt time.Time
}

// Principal is the authenticated actor attached to a request.
type Principal struct {
	Username string
	Roles    []Role
	IsActive bool
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(r Role) bool {
	for _, have := range p.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// Tokens collects an issued access token and its expiry (for diagnostics).
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// ContactInfo holds contact attributes. Email and Phone are sensitive: their
// at-rest representation is always authenticated ciphertext.
type ContactInfo struct {
	Email            *string `json:"email,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	SecureMessaging  *string `json:"secure_messaging,omitempty"`
	PreferredContact *string `json:"preferred_contact,omitempty"`
}

// Demographics holds optional demographic attributes.
type Demographics struct {
	Gender     *string `json:"gender,omitempty"`
	Age        *int    `json:"age,omitempty"`
	Ethnicity  *string `json:"ethnicity,omitempty"`
	Occupation *string `json:"occupation,omitempty"`
}

// RiskAssessment is the current assessment embedded in a record.
type RiskAssessment struct {
	Level            RiskLevel `json:"level"`
	Threats          []string  `json:"threats"`
	ProtectionNeeded bool      `json:"protection_needed"`
	Notes            *string   `json:"notes,omitempty"`
	AssessedBy       string    `json:"assessed_by,omitempty"`
	AssessedAt       time.Time `json:"assessed_at"`
}

// SupportService is one support engagement (legal, medical, psychological, social).
type SupportService struct {
	Type      string     `json:"type"`
	Provider  string     `json:"provider"`
	Status    string     `json:"status"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// VictimRecord is a single victim/witness record as stored. ContactInfo email
// and phone hold ciphertext here; decryption happens only during redaction.
type VictimRecord struct {
	ID              uuid.UUID
	Type            VictimType
	Anonymous       bool
	Pseudonym       *string
	Demographics    *Demographics
	ContactInfo     *ContactInfo
	CasesInvolved   []uuid.UUID
	RiskAssessment  RiskAssessment
	SupportServices []SupportService
	Notes           *string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewVictim is the creation intent for a record. The risk assessment is
// required; the service stamps identity, author, and timestamps.
type NewVictim struct {
	Type            VictimType
	Anonymous       bool
	Pseudonym       *string
	Demographics    *Demographics
	ContactInfo     *ContactInfo
	RiskAssessment  RiskAssessment
	SupportServices []SupportService
	Notes           *string
}

// UpdateVictim is a partial-update intent. Nil fields are left unchanged
// (absence is not a null-out).
type UpdateVictim struct {
	Type            *VictimType
	Anonymous       *bool
	Pseudonym       *string
	Demographics    *Demographics
	ContactInfo     *ContactInfo
	RiskAssessment  *RiskAssessment
	SupportServices *[]SupportService
	Notes           *string
}

// VictimFilter selects records for listing. Zero Limit means the default page size.
type VictimFilter struct {
	RiskLevel *RiskLevel
	Type      *VictimType
	Skip      int
	Limit     int
}

// RiskAuditEntry is one immutable risk assessment event. PreviousLevel is nil
// for the entry written at record creation.
type RiskAuditEntry struct {
	ID            int64
	VictimID      uuid.UUID
	RiskLevel     RiskLevel
	PreviousLevel *RiskLevel
	AssessedBy    string
	AssessedAt    time.Time
	Notes         *string
}
