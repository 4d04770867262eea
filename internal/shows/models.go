package shows

import (
	"time"

	"github.com/google/uuid"
)

// Show is a bookable trip with a fixed number of seats numbered 1..TotalSeats
type Show struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	StartTime  time.Time `gorm:"not null;index:idx_shows_start_time" json:"start_time"`
	TotalSeats int       `gorm:"not null;check:chk_shows_total_seats,total_seats > 0" json:"total_seats"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Show) TableName() string {
	return "shows"
}

type CreateShowRequest struct {
	Name       string    `json:"name" binding:"required" validate:"required,min=1,max=255"`
	StartTime  time.Time `json:"start_time" binding:"required" validate:"required"`
	TotalSeats int       `json:"total_seats" binding:"required" validate:"required,gt=0,lte=10000"`
}

// ShowSummary is a list row with live seat counts
type ShowSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	StartTime      time.Time `json:"start_time"`
	TotalSeats     int       `json:"total_seats"`
	ReservedCount  int       `json:"reserved_count"`
	AvailableCount int       `json:"available_count"`
}

// ShowDetail carries the seat map of one show
type ShowDetail struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	StartTime      time.Time `json:"start_time"`
	TotalSeats     int       `json:"total_seats"`
	ReservedSeats  []int     `json:"reserved_seats"`
	AvailableSeats []int     `json:"available_seats"`
}

func summaryOf(show Show, reserved int) ShowSummary {
	return ShowSummary{
		ID:             show.ID,
		Name:           show.Name,
		StartTime:      show.StartTime,
		TotalSeats:     show.TotalSeats,
		ReservedCount:  reserved,
		AvailableCount: show.TotalSeats - reserved,
	}
}

// AvailableSeats returns the complement of reserved within 1..total, ascending
func AvailableSeats(total int, reserved []int) []int {
	taken := make(map[int]struct{}, len(reserved))
	for _, seat := range reserved {
		taken[seat] = struct{}{}
	}
	available := make([]int, 0, total-len(taken))
	for seat := 1; seat <= total; seat++ {
		if _, ok := taken[seat]; !ok {
			available = append(available, seat)
		}
	}
	return available
}
