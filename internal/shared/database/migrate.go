package database

import (
	"ticketing/internal/bookings"
	"ticketing/internal/shows"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&shows.Show{},
		&bookings.Booking{},
		&bookings.SeatClaim{},
	); err != nil {
		return err
	}
	return MigrateConstraints(db)
}
