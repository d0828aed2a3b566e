package settlement

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDeriveAggregateIDIsDeterministic(t *testing.T) {
	date := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	merchantID := uuid.MustParse("3d1b39a8-21c4-4f7e-8a36-9d2f0b64c815")
	estateID := uuid.MustParse("b5a7e2c9-143f-4d68-b021-7c8e5f3a96d2")

	first := DeriveAggregateID(date, merchantID, estateID)
	second := DeriveAggregateID(date, merchantID, estateID)
	if first != second {
		t.Fatalf("same inputs produced %s and %s", first, second)
	}
}

func TestDeriveAggregateIDIgnoresTimeOfDay(t *testing.T) {
	merchantID, estateID := uuid.New(), uuid.New()
	morning := time.Date(2026, 2, 9, 8, 15, 0, 0, time.UTC)
	evening := time.Date(2026, 2, 9, 22, 45, 30, 0, time.UTC)

	if DeriveAggregateID(morning, merchantID, estateID) != DeriveAggregateID(evening, merchantID, estateID) {
		t.Fatal("time of day must not change the derived id")
	}
}

func TestDeriveAggregateIDDistinctInputs(t *testing.T) {
	date := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	nextDay := date.Add(24 * time.Hour)
	merchantID, estateID := uuid.New(), uuid.New()

	seen := map[uuid.UUID]string{}
	cases := map[string]uuid.UUID{
		"base":           DeriveAggregateID(date, merchantID, estateID),
		"next day":       DeriveAggregateID(nextDay, merchantID, estateID),
		"other merchant": DeriveAggregateID(date, uuid.New(), estateID),
		"other estate":   DeriveAggregateID(date, merchantID, uuid.New()),
		"swapped ids":    DeriveAggregateID(date, estateID, merchantID),
	}
	for name, id := range cases {
		if prev, dup := seen[id]; dup {
			t.Fatalf("collision between %q and %q", prev, name)
		}
		seen[id] = name
	}
}
