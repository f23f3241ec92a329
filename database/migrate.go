package database

import (
	"fmt"

	"gorm.io/gorm"

	"uhcare-backend/models"
)

// Migrate applies idempotent schema migrations:
// - AutoMigrate (tables/columns)
// - Money column types (NUMERIC(10,2))
// - Composite indexes used by the balance queries
// - Basic CHECK constraints (non-negative money and stock)
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- AutoMigrate tables/columns/index tags (non-destructive) ---
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Service{},
			&models.ServiceBooking{},
			&models.Appointment{},
			&models.PersonalAppointment{},
			&models.Medicine{},
			&models.PharmacyOrder{},
			&models.PharmacyOrderItem{},
			&models.Equipment{},
			&models.EquipmentRental{},
			&models.EquipmentPurchase{},
			&models.Payment{},
			&models.PaymentEvent{},
			&models.UserPaymentMethod{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(10,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE service_bookings      ALTER COLUMN total_amount TYPE numeric(10,2)`,
			`ALTER TABLE appointments          ALTER COLUMN total_amount TYPE numeric(10,2)`,
			`ALTER TABLE personal_appointments ALTER COLUMN total_fee    TYPE numeric(10,2)`,
			`ALTER TABLE pharmacy_orders       ALTER COLUMN total_amount TYPE numeric(10,2)`,
			`ALTER TABLE equipment_purchases   ALTER COLUMN total_amount TYPE numeric(10,2)`,
			`ALTER TABLE equipment_rentals     ALTER COLUMN total_amount TYPE numeric(10,2)`,
			`ALTER TABLE payments              ALTER COLUMN amount       TYPE numeric(10,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_payments_patient_status ON payments (patient_id, payment_status)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_chargeable ON payments (chargeable_kind, chargeable_id)`,
			`CREATE INDEX IF NOT EXISTS idx_payment_events_payment_created ON payment_events (payment_id, created_at)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			// Payments.amount >= 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'payments'::regclass
					  AND conname  = 'chk_payments_amount_nonneg'
				) THEN
					ALTER TABLE payments
					ADD CONSTRAINT chk_payments_amount_nonneg
					CHECK (amount >= 0);
				END IF;
			END $$;`,
			// Medicine stock never goes negative (checkout decrements are guarded too)
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'medicines'::regclass
					  AND conname  = 'chk_medicines_stock_nonneg'
				) THEN
					ALTER TABLE medicines
					ADD CONSTRAINT chk_medicines_stock_nonneg
					CHECK (stock_quantity >= 0);
				END IF;
			END $$;`,
			// Equipment units never go negative
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'equipments'::regclass
					  AND conname  = 'chk_equipments_units_nonneg'
				) THEN
					ALTER TABLE equipments
					ADD CONSTRAINT chk_equipments_units_nonneg
					CHECK (available_units >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
