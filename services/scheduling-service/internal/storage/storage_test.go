package storage

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsSlotTaken(t *testing.T) {
	if !IsSlotTaken(ErrSlotTaken) {
		t.Fatal("expected sentinel to match")
	}
	if !IsSlotTaken(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "schedules_room_slot_key"})) {
		t.Fatal("expected wrapped unique violation to match")
	}
	if IsSlotTaken(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation is not a slot conflict")
	}
}

func TestNotFound(t *testing.T) {
	if notFound(pgx.ErrNoRows) != ErrNotFound {
		t.Fatal("expected ErrNoRows to map to ErrNotFound")
	}
	if notFound(nil) != nil {
		t.Fatal("expected nil to stay nil")
	}
}

func TestOffset(t *testing.T) {
	tests := []struct{ page, limit, want int }{
		{1, 10, 0},
		{0, 10, 0},
		{3, 10, 20},
	}
	for _, tt := range tests {
		if got := offset(tt.page, tt.limit); got != tt.want {
			t.Fatalf("offset(%d, %d) = %d, want %d", tt.page, tt.limit, got, tt.want)
		}
	}
}
