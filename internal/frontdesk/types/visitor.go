package types

import (
	"strings"
	"time"
)

type VisitorStatus string

const (
	StatusCheckedIn  VisitorStatus = "checked_in"
	StatusCheckedOut VisitorStatus = "checked_out"
)

// Visitor is one visit instance. Rows are never physically removed by this
// service; DeletedAt marks a soft delete.
type Visitor struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Phone        string        `json:"phone,omitempty"`
	Email        string        `json:"email,omitempty"`
	IDNumber     string        `json:"id_number,omitempty"`
	Institution  string        `json:"institution,omitempty"`
	Purpose      string        `json:"purpose,omitempty"`
	HostName     string        `json:"host_name,omitempty"`
	Unit         string        `json:"unit,omitempty"`
	PhotoRef     string        `json:"photo_ref,omitempty"`
	SignatureRef string        `json:"signature_ref,omitempty"`
	Status       VisitorStatus `json:"status"`
	CheckInTime  time.Time     `json:"check_in_time"`
	CheckOutTime *time.Time    `json:"check_out_time,omitempty"`
	CheckedInBy  string        `json:"checked_in_by,omitempty"`
	CheckoutBy   string        `json:"checkout_by,omitempty"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty"`
	DeletedBy    string        `json:"deleted_by,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (v Visitor) IsDeleted() bool { return v.DeletedAt != nil }

// CheckInRequest is the caller-supplied data for a new visit. Required-field
// rules beyond the name come from CheckInPolicy.
type CheckInRequest struct {
	Name         string `json:"name" validate:"max=200"`
	Phone        string `json:"phone" validate:"omitempty,max=50"`
	Email        string `json:"email" validate:"omitempty,email,max=200"`
	IDNumber     string `json:"id_number" validate:"omitempty,max=100"`
	Institution  string `json:"institution" validate:"omitempty,max=200"`
	Purpose      string `json:"purpose" validate:"omitempty,max=500"`
	HostName     string `json:"host_name" validate:"omitempty,max=200"`
	Unit         string `json:"unit" validate:"omitempty,max=200"`
	PhotoRef     string `json:"photo_ref" validate:"omitempty,max=1000"`
	SignatureRef string `json:"signature_ref" validate:"omitempty,max=1000"`
}

// Normalize trims surrounding whitespace from every field so that absent,
// empty and blank values compare equal.
func (r CheckInRequest) Normalize() CheckInRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.IDNumber = strings.TrimSpace(r.IDNumber)
	r.Institution = strings.TrimSpace(r.Institution)
	r.Purpose = strings.TrimSpace(r.Purpose)
	r.HostName = strings.TrimSpace(r.HostName)
	r.Unit = strings.TrimSpace(r.Unit)
	r.PhotoRef = strings.TrimSpace(r.PhotoRef)
	r.SignatureRef = strings.TrimSpace(r.SignatureRef)
	return r
}

// CheckInPolicy is passed on every CheckIn call.
type CheckInPolicy struct {
	RequirePhoto     bool
	RequireSignature bool
}

// VisitorPatch carries the fields proposed by an edit request. A nil field is
// absent and leaves the stored value untouched.
type VisitorPatch struct {
	Name         *string `json:"name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	IDNumber     *string `json:"id_number,omitempty"`
	Institution  *string `json:"institution,omitempty"`
	Purpose      *string `json:"purpose,omitempty"`
	HostName     *string `json:"host_name,omitempty"`
	Unit         *string `json:"unit,omitempty"`
	PhotoRef     *string `json:"photo_ref,omitempty"`
	SignatureRef *string `json:"signature_ref,omitempty"`
}

type patchField struct {
	name string
	src  *string
	dst  *string
}

func (p *VisitorPatch) fields(v *Visitor) []patchField {
	return []patchField{
		{"name", p.Name, &v.Name},
		{"phone", p.Phone, &v.Phone},
		{"email", p.Email, &v.Email},
		{"id_number", p.IDNumber, &v.IDNumber},
		{"institution", p.Institution, &v.Institution},
		{"purpose", p.Purpose, &v.Purpose},
		{"host_name", p.HostName, &v.HostName},
		{"unit", p.Unit, &v.Unit},
		{"photo_ref", p.PhotoRef, &v.PhotoRef},
		{"signature_ref", p.SignatureRef, &v.SignatureRef},
	}
}

// Fields returns the json names of the fields present in the patch.
func (p VisitorPatch) Fields() []string {
	var out []string
	for _, f := range p.fields(&Visitor{}) {
		if f.src != nil {
			out = append(out, f.name)
		}
	}
	return out
}

func (p VisitorPatch) IsEmpty() bool { return len(p.Fields()) == 0 }

// Normalize trims every present value.
func (p VisitorPatch) Normalize() VisitorPatch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		t := strings.TrimSpace(*s)
		return &t
	}
	return VisitorPatch{
		Name:         trim(p.Name),
		Phone:        trim(p.Phone),
		Email:        trim(p.Email),
		IDNumber:     trim(p.IDNumber),
		Institution:  trim(p.Institution),
		Purpose:      trim(p.Purpose),
		HostName:     trim(p.HostName),
		Unit:         trim(p.Unit),
		PhotoRef:     trim(p.PhotoRef),
		SignatureRef: trim(p.SignatureRef),
	}
}

// ApplyTo copies the present fields onto v.
func (p VisitorPatch) ApplyTo(v *Visitor) {
	for _, f := range p.fields(v) {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
}
