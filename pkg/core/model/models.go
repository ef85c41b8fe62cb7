package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state shared by ship nominations and sampling rosters
type Status string

const (
	StatusDraft      Status = "draft"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []Status{
	StatusDraft,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// DisplayName returns the human-readable label for a status
func (s Status) DisplayName() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusConfirmed:
		return "Confirmed"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// ParseStatus converts a raw string to a Status, returning an error for unknown values
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// BlockType marks a line sampling turn as a day or night shift
type BlockType string

const (
	BlockDay   BlockType = "day"
	BlockNight BlockType = "night"
)

func (b BlockType) IsValid() bool {
	return b == BlockDay || b == BlockNight
}

const (
	// OfficeSamplingHours is the fixed length of the office sampling block
	OfficeSamplingHours = 6

	// MaxHoursPerSampler is the per-person cap across a single roster
	MaxHoursPerSampler = 12

	MinTurnHours = 1
	MaxTurnHours = 12
)

// RoleRef is a denormalized {id, name} reference to a registry entity
type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IsZero reports whether the reference is unset
func (r RoleRef) IsZero() bool {
	return r.ID == ""
}

// ShipNomination represents a vessel's port call
type ShipNomination struct {
	ID           string     `json:"id"`
	VesselName   string     `json:"vesselName" validate:"required"`
	Reference    string     `json:"reference" validate:"required"`
	Agent        *RoleRef   `json:"agent,omitempty"`
	Terminal     *RoleRef   `json:"terminal,omitempty"`
	Berth        *RoleRef   `json:"berth,omitempty"`
	Surveyor     *RoleRef   `json:"surveyor,omitempty"`
	Sampler      *RoleRef   `json:"sampler,omitempty"`
	Chemist      *RoleRef   `json:"chemist,omitempty"`
	Clients      []RoleRef  `json:"clients" validate:"min=1"`
	ProductTypes []RoleRef  `json:"productTypes" validate:"min=1"`
	PilotOnBoard *time.Time `json:"pilotOnBoard,omitempty"`
	ETB          *time.Time `json:"etb,omitempty"`
	ETC          *time.Time `json:"etc,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// OfficeSampling is the fixed block preceding line sampling
type OfficeSampling struct {
	Sampler RoleRef   `json:"sampler"`
	Start   time.Time `json:"start"`
	Finish  time.Time `json:"finish"`
	Hours   float64   `json:"hours"`
}

// Turn is one scheduled line sampling shift
type Turn struct {
	Sampler   RoleRef   `json:"sampler"`
	Start     time.Time `json:"start"`
	Finish    time.Time `json:"finish"`
	Hours     float64   `json:"hours"`
	BlockType BlockType `json:"blockType"`
	TurnOrder int       `json:"turnOrder"`
}

// SamplingRoster is the generated shift schedule for one ship nomination
type SamplingRoster struct {
	ID           string `json:"id"`
	NominationID string `json:"nominationId"`
	VesselName   string `json:"vesselName"`
	Reference    string `json:"reference"`

	// StartDischarge and EtcTime are the operative window; initialised from the
	// nomination's ETB/ETC and independently editable
	StartDischarge       *time.Time `json:"startDischarge,omitempty"`
	EtcTime              *time.Time `json:"etcTime,omitempty"`
	StartDischargeCustom bool       `json:"startDischargeCustom"`
	EtcTimeCustom        bool       `json:"etcTimeCustom"`
	DischargeTimeHours   float64    `json:"dischargeTimeHours"`

	OfficeSampling *OfficeSampling `json:"officeSampling,omitempty"`
	LineSampling   []Turn          `json:"lineSampling"`

	Status        Status `json:"status"`
	TotalSamplers int    `json:"totalSamplers"`
	TotalTurns    int    `json:"totalTurns"`

	CreatedBy      string    `json:"createdBy,omitempty"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	LastStatusUpdate   *time.Time `json:"lastStatusUpdate,omitempty"`
	StatusUpdateReason string     `json:"statusUpdateReason,omitempty"`
}

// RecomputeTotals refreshes the derived sampler and turn counts
func (r *SamplingRoster) RecomputeTotals() {
	samplers := make(map[string]bool)
	if r.OfficeSampling != nil && !r.OfficeSampling.Sampler.IsZero() {
		samplers[r.OfficeSampling.Sampler.ID] = true
	}
	for _, turn := range r.LineSampling {
		if !turn.Sampler.IsZero() {
			samplers[turn.Sampler.ID] = true
		}
	}
	r.TotalSamplers = len(samplers)
	r.TotalTurns = len(r.LineSampling)

	if r.StartDischarge != nil && r.EtcTime != nil {
		r.DischargeTimeHours = r.EtcTime.Sub(*r.StartDischarge).Hours()
	}
}

// Sampler is a person who can be assigned to sampling blocks
type Sampler struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	// WeeklyLimit24h marks samplers subject to a 24-hour weekly limit.
	// Recorded only; nothing enforces it yet.
	WeeklyLimit24h bool `json:"weeklyLimit24h"`
}

// Ref returns the denormalized reference for this sampler
func (s Sampler) Ref() RoleRef {
	return RoleRef{ID: s.ID, Name: s.Name}
}
