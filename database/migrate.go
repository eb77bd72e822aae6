package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Harden applies idempotent schema hardening on top of AutoMigrate:
// - Money column types (NUMERIC(12,2))
// - Composite indexes (ledger, route stops, deliveries)
// - Basic CHECK constraints
// Runs in one transaction; safe to call on every boot.
func Harden() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE products               ALTER COLUMN unit_price      TYPE numeric(12,2)`,
			`ALTER TABLE order_items            ALTER COLUMN unit_price      TYPE numeric(12,2)`,
			`ALTER TABLE order_items            ALTER COLUMN line_total      TYPE numeric(12,2)`,
			`ALTER TABLE orders                 ALTER COLUMN total           TYPE numeric(12,2)`,
			`ALTER TABLE subscription_deliveries ALTER COLUMN unit_price     TYPE numeric(12,2)`,
			`ALTER TABLE subscription_deliveries ALTER COLUMN line_total     TYPE numeric(12,2)`,
			`ALTER TABLE route_stops            ALTER COLUMN amount_due      TYPE numeric(12,2)`,
			`ALTER TABLE invoices               ALTER COLUMN subtotal        TYPE numeric(12,2)`,
			`ALTER TABLE invoices               ALTER COLUMN tax             TYPE numeric(12,2)`,
			`ALTER TABLE invoices               ALTER COLUMN total           TYPE numeric(12,2)`,
			`ALTER TABLE invoices               ALTER COLUMN paid_amount     TYPE numeric(12,2)`,
			`ALTER TABLE invoices               ALTER COLUMN balance         TYPE numeric(12,2)`,
			`ALTER TABLE invoice_items          ALTER COLUMN unit_price      TYPE numeric(12,2)`,
			`ALTER TABLE invoice_items          ALTER COLUMN line_total      TYPE numeric(12,2)`,
			`ALTER TABLE payments               ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE ledger_entries         ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE ledger_entries         ALTER COLUMN running_balance TYPE numeric(12,2)`,
			`ALTER TABLE users                  ALTER COLUMN prepaid_balance TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_deliveries_date_status ON subscription_deliveries (delivery_date, status)`,
			`CREATE INDEX IF NOT EXISTS idx_deliveries_user_invoice ON subscription_deliveries (user_id, invoice_id)`,
			`CREATE INDEX IF NOT EXISTS idx_route_stops_route_seq ON route_stops (route_id, sequence_index)`,
			`CREATE INDEX IF NOT EXISTS idx_invoices_status_due ON invoices (status, due_date)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			// Non-negative prices/amounts
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'products'::regclass
					  AND conname  = 'chk_products_unit_price_nonneg'
				) THEN
					ALTER TABLE products
					ADD CONSTRAINT chk_products_unit_price_nonneg
					CHECK (unit_price >= 0);
				END IF;
			END $$;`,
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
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'ledger_entries'::regclass
					  AND conname  = 'chk_ledger_amount_nonneg'
				) THEN
					ALTER TABLE ledger_entries
					ADD CONSTRAINT chk_ledger_amount_nonneg
					CHECK (amount >= 0);
				END IF;
			END $$;`,
			// Ledger entry type is a closed enum
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'ledger_entries'::regclass
					  AND conname  = 'chk_ledger_entry_type'
				) THEN
					ALTER TABLE ledger_entries
					ADD CONSTRAINT chk_ledger_entry_type
					CHECK (entry_type IN ('debit', 'credit'));
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
