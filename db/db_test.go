package db_test

import (
	"context"
	"testing"

	"github.com/deadNightTiger/chatty/db"
	"github.com/deadNightTiger/chatty/testutil"
)

func TestMigrateIdempotent(t *testing.T) {
	database := testutil.SetupTestDB(t)
	// SetupTestDB already migrated once; a second run must succeed.
	if err := db.Migrate(context.Background(), database); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
	var n int
	if err := database.QueryRow("SELECT COUNT(*) FROM chat_messages").Scan(&n); err != nil {
		t.Fatalf("chat_messages table missing: %v", err)
	}
}
