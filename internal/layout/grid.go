// Package layout holds the grid geometry of a sponsor wall: position ids,
// row/column math, and placement generation from a pricing config.
package layout

import (
	"fmt"

	"github.com/sponsorwall/backend/internal/apperr"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/pricing"
)

const MaxPositions = 10000

type Dimensions struct {
	TotalPositions int `json:"total_positions"`
	Columns        int `json:"columns"`
}

func (d Dimensions) Validate() error {
	if d.TotalPositions <= 0 {
		return apperr.InvalidRequest("total_positions must be greater than 0")
	}
	if d.TotalPositions > MaxPositions {
		return apperr.InvalidRequest("total_positions must not exceed %d", MaxPositions)
	}
	if d.Columns <= 0 {
		return apperr.InvalidRequest("columns must be greater than 0")
	}
	return nil
}

// Rows is the number of rows needed to hold every position.
func (d Dimensions) Rows() int {
	return (d.TotalPositions + d.Columns - 1) / d.Columns
}

// PositionID formats a 1-indexed cell as R{row}C{col}.
func PositionID(row, col int) string {
	return fmt.Sprintf("R%dC%d", row, col)
}

func ParsePositionID(id string) (row, col int, err error) {
	var rest string
	n, _ := fmt.Sscanf(id, "R%dC%d%s", &row, &col, &rest)
	if n != 2 || row < 1 || col < 1 || id != PositionID(row, col) {
		return 0, 0, apperr.InvalidRequest("invalid position id %q", id)
	}
	return row, col, nil
}

// Index returns the 1-indexed row-major position of a cell.
func Index(row, col, columns int) int {
	return (row-1)*columns + col
}

// IndexOf parses id and returns its row-major position within the grid.
func IndexOf(id string, d Dimensions) (int, error) {
	row, col, err := ParsePositionID(id)
	if err != nil {
		return 0, err
	}
	if col > d.Columns {
		return 0, apperr.PositionNotFound(id)
	}
	idx := Index(row, col, d.Columns)
	if idx > d.TotalPositions {
		return 0, apperr.PositionNotFound(id)
	}
	return idx, nil
}

// BuildPlacements generates one free placement per cell, priced by cfg.
func BuildPlacements(d Dimensions, cfg pricing.Config) ([]models.Placement, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if pc, ok := cfg.(pricing.PositionalConfig); ok && pc.Sections != nil {
		if slots := pc.Sections.TotalSlots(); slots > 0 && slots < d.TotalPositions {
			return nil, apperr.InvalidPricing("sections cover %d slots but the grid has %d positions", slots, d.TotalPositions)
		}
	}

	placements := make([]models.Placement, 0, d.TotalPositions)
	for idx := 1; idx <= d.TotalPositions; idx++ {
		row := (idx-1)/d.Columns + 1
		col := (idx-1)%d.Columns + 1
		placements = append(placements, models.Placement{
			PositionID: PositionID(row, col),
			Row:        row,
			Column:     col,
		})
	}
	if err := Reprice(placements, d, cfg); err != nil {
		return nil, err
	}
	return placements, nil
}

// Reprice recomputes every placement price in place from its position id.
func Reprice(placements []models.Placement, d Dimensions, cfg pricing.Config) error {
	if err := pricing.Validate(cfg); err != nil {
		return err
	}
	sections := sectionsOf(cfg)

	// computed first so a failure leaves placements untouched
	repriced := make([]models.Placement, len(placements))
	for i, p := range placements {
		idx, err := IndexOf(p.PositionID, d)
		if err != nil {
			return err
		}
		price, err := pricing.PositionPrice(cfg, idx, d.TotalPositions)
		if err != nil {
			return fmt.Errorf("price %s: %w", p.PositionID, err)
		}
		p.Price = price
		p.Section = nil
		if sections != nil {
			name, _, err := pricing.SectionForPosition(sections, idx)
			if err != nil {
				return err
			}
			p.Section = &name
		}
		repriced[i] = p
	}
	copy(placements, repriced)
	return nil
}

func sectionsOf(cfg pricing.Config) *pricing.Sections {
	if pc, ok := cfg.(pricing.PositionalConfig); ok && pc.Sections != nil && pc.Sections.TotalSlots() > 0 {
		return pc.Sections
	}
	return nil
}
