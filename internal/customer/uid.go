package customer

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// uidWidth is the zero-padded digit count of the human-facing UID.
const uidWidth = 6

// nextCustomerUID allocates the next per-organization customer UID
// (CUS-000001, CUS-000002, ...) inside the caller's transaction.
//
// The counter row is upserted and incremented in a single statement so
// two concurrent allocations within an organization cannot collide:
// the second transaction blocks on the row until the first commits.
func nextCustomerUID(ctx context.Context, tx *sql.Tx, orgID string) (string, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	var num int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO customer_counters (organization_id, next_num, updated_at)
		 VALUES (?, 2, ?)
		 ON CONFLICT (organization_id) DO UPDATE SET
		   next_num = next_num + 1,
		   updated_at = excluded.updated_at
		 RETURNING next_num - 1`,
		orgID, now,
	).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("allocating customer UID for %s: %w", orgID, err)
	}

	return fmt.Sprintf("CUS-%0*d", uidWidth, num), nil
}
