package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LayoutTypeGrid     = "grid"
	LayoutTypeFlexible = "flexible"
)

type Layout struct {
	ID             uuid.UUID   `json:"id"`
	CampaignID     uuid.UUID   `json:"campaign_id"`
	LayoutType     string      `json:"layout_type"`
	TotalPositions int         `json:"total_positions"`
	Columns        int         `json:"columns"`
	MaxSponsors    int         `json:"max_sponsors"` // flexible only, 0 = unlimited
	Placements     []Placement `json:"placements,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (l *Layout) IsGrid() bool {
	return l.LayoutType == LayoutTypeGrid
}

func (l *Layout) Placement(positionID string) (*Placement, bool) {
	for i := range l.Placements {
		if l.Placements[i].PositionID == positionID {
			return &l.Placements[i], true
		}
	}
	return nil, false
}

// Available counts placements that are not taken.
func (l *Layout) Available() int {
	n := 0
	for _, p := range l.Placements {
		if !p.IsTaken {
			n++
		}
	}
	return n
}

type Placement struct {
	LayoutID      uuid.UUID       `json:"-"`
	PositionID    string          `json:"position_id"`
	Row           int             `json:"row"`
	Column        int             `json:"column"`
	Section       *string         `json:"section,omitempty"`
	Price         decimal.Decimal `json:"price"`
	IsTaken       bool            `json:"is_taken"`
	SponsorshipID *uuid.UUID      `json:"sponsorship_id,omitempty"`
}
