package httpserver

import (
	"time"

	"github.com/openhrm/victimdb/internal/model"
)

// loginRequest is the POST /auth/login body.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse carries the issued session token.
type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// createVictimRequest is the POST /victims body. RiskAssessment is required.
type createVictimRequest struct {
	Type            model.VictimType        `json:"type"`
	Anonymous       bool                    `json:"anonymous"`
	Pseudonym       *string                 `json:"pseudonym"`
	Demographics    *model.Demographics     `json:"demographics"`
	ContactInfo     *model.ContactInfo      `json:"contact_info"`
	RiskAssessment  *model.RiskAssessment   `json:"risk_assessment"`
	SupportServices []model.SupportService  `json:"support_services"`
	Notes           *string                 `json:"notes"`
}

// updateVictimRequest is the PATCH /victims/{id} body. Absent fields are left
// unchanged.
type updateVictimRequest struct {
	Type            *model.VictimType       `json:"type"`
	Anonymous       *bool                   `json:"anonymous"`
	Pseudonym       *string                 `json:"pseudonym"`
	Demographics    *model.Demographics     `json:"demographics"`
	ContactInfo     *model.ContactInfo      `json:"contact_info"`
	RiskAssessment  *model.RiskAssessment   `json:"risk_assessment"`
	SupportServices *[]model.SupportService `json:"support_services"`
	Notes           *string                 `json:"notes"`
}

// victimView is the JSON shape of a redacted record.
type victimView struct {
	ID              string                 `json:"id"`
	Type            model.VictimType       `json:"type"`
	Anonymous       bool                   `json:"anonymous"`
	Pseudonym       *string                `json:"pseudonym,omitempty"`
	Demographics    *model.Demographics    `json:"demographics,omitempty"`
	ContactInfo     *model.ContactInfo     `json:"contact_info,omitempty"`
	CasesInvolved   []string               `json:"cases_involved"`
	RiskAssessment  model.RiskAssessment   `json:"risk_assessment"`
	SupportServices []model.SupportService `json:"support_services"`
	Notes           *string                `json:"notes,omitempty"`
	CreatedBy       string                 `json:"created_by"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// auditEntryView is the JSON shape of one risk audit entry.
type auditEntryView struct {
	ID            int64            `json:"id"`
	VictimID      string           `json:"victim_id"`
	RiskLevel     model.RiskLevel  `json:"risk_level"`
	PreviousLevel *model.RiskLevel `json:"previous_level,omitempty"`
	AssessedBy    string           `json:"assessed_by"`
	AssessedAt    time.Time        `json:"assessed_at"`
	Notes         *string          `json:"notes,omitempty"`
}

func toVictimView(rec model.VictimRecord) victimView {
	cases := make([]string, len(rec.CasesInvolved))
	for i, c := range rec.CasesInvolved {
		cases[i] = c.String()
	}
	services := rec.SupportServices
	if services == nil {
		services = []model.SupportService{}
	}
	return victimView{
		ID:              rec.ID.String(),
		Type:            rec.Type,
		Anonymous:       rec.Anonymous,
		Pseudonym:       rec.Pseudonym,
		Demographics:    rec.Demographics,
		ContactInfo:     rec.ContactInfo,
		CasesInvolved:   cases,
		RiskAssessment:  rec.RiskAssessment,
		SupportServices: services,
		Notes:           rec.Notes,
		CreatedBy:       rec.CreatedBy,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

func toVictimViews(recs []model.VictimRecord) []victimView {
	out := make([]victimView, len(recs))
	for i := range recs {
		out[i] = toVictimView(recs[i])
	}
	return out
}

func toAuditViews(entries []model.RiskAuditEntry) []auditEntryView {
	out := make([]auditEntryView, len(entries))
	for i, e := range entries {
		out[i] = auditEntryView{
			ID:            e.ID,
			VictimID:      e.VictimID.String(),
			RiskLevel:     e.RiskLevel,
			PreviousLevel: e.PreviousLevel,
			AssessedBy:    e.AssessedBy,
			AssessedAt:    e.AssessedAt,
			Notes:         e.Notes,
		}
	}
	return out
}
