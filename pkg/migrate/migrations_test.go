package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Davidayo16/ArtisanPro-server/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestMigrationConstraints(t *testing.T) {
	cases := map[string][]string{
		"create_bookings": {
			"CREATE TABLE IF NOT EXISTS bookings",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_booking_number",
			"WHERE status = 'pending'",
			"DROP TABLE IF EXISTS bookings",
		},
		"create_negotiations": {
			"FOREIGN KEY (negotiation_id) REFERENCES negotiations(id) ON DELETE CASCADE",
			"idx_negotiation_round ON negotiation_rounds (negotiation_id, round_number)",
		},
		"create_payments_and_escrows": {
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_reference",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_escrows_booking_id",
			"CHECK (amount = platform_fee + artisan_amount)",
		},
		"create_transactions": {
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_reference",
			"WHERE type = 'payout' AND status = 'pending'",
		},
		"create_notifications": {
			"idx_notification_event_user ON notifications (user_id, event_id)",
		},
		"create_profiles": {
			"payout_recipient_code text",
		},
		"add_refund_and_reminder_events": {
			"ADD VALUE IF NOT EXISTS 'payment_refunded'",
			"ADD VALUE IF NOT EXISTS 'booking_reminder'",
		},
		"add_booking_reminders": {
			"ADD COLUMN IF NOT EXISTS reminded_at timestamptz",
			"WHERE status = 'accepted' AND payment_status = 'unpaid' AND payment_reminded_at IS NULL",
		},
	}
	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", suffix, sub)
			}
		}
	}
}
