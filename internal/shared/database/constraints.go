package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the foreign keys AutoMigrate skips
// (DisableForeignKeyConstraintWhenMigrating) and re-asserts the seat uniqueness
// constraint that prevents double booking.
func MigrateConstraints(db *gorm.DB) error {
	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_seat_claims_show_seat
			ON seat_claims (show_id, seat_number)`,

		`DO $$ BEGIN
			ALTER TABLE bookings ADD CONSTRAINT fk_bookings_show
				FOREIGN KEY (show_id) REFERENCES shows (id) ON DELETE CASCADE;
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,

		`DO $$ BEGIN
			ALTER TABLE seat_claims ADD CONSTRAINT fk_seat_claims_booking
				FOREIGN KEY (booking_id) REFERENCES bookings (id) ON DELETE CASCADE;
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,

		`DO $$ BEGIN
			ALTER TABLE seat_claims ADD CONSTRAINT fk_seat_claims_show
				FOREIGN KEY (show_id) REFERENCES shows (id) ON DELETE CASCADE;
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,

		`CREATE INDEX IF NOT EXISTS idx_seat_claims_show_id ON seat_claims (show_id)`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
