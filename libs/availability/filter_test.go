package availability

import (
	"reflect"
	"testing"
	"time"
)

func TestMarkAvailability(t *testing.T) {
	got := MarkAvailability([]string{"08:00", "08:30", "09:00"}, []string{"08:30"})
	want := []TimeSlot{
		{Time: "08:00", Available: true},
		{Time: "08:30", Available: false},
		{Time: "09:00", Available: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMarkAvailability_Idempotent(t *testing.T) {
	slots := SlotsFor(nil)
	disabled := []string{"08:00", "12:30", "18:00", "23:00"}

	once := MarkAvailability(slots, disabled)
	twice := Remark(once, disabled)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("expected idempotent marking, got %v then %v", once, twice)
	}

	set := toSet(disabled)
	for _, s := range once {
		_, busy := set[s.Time]
		if s.Available == busy {
			t.Fatalf("slot %s: available=%v but disabled=%v", s.Time, s.Available, busy)
		}
	}
}

func TestDisabledTimes(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, loc)
	bookings := []Booking{
		{At: time.Date(2026, 5, 4, 9, 0, 0, 0, loc)},
		{At: time.Date(2026, 5, 4, 13, 30, 0, 0, time.UTC)}, // 10:30 local
		{At: time.Date(2026, 5, 4, 11, 0, 0, 0, loc), Cancelled: true},
		{At: time.Date(2026, 5, 5, 9, 30, 0, 0, loc)},
		{At: time.Date(2026, 5, 4, 9, 0, 0, 0, loc)},
	}
	got := DisabledTimes(bookings, day, loc)
	want := []string{"09:00", "10:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSplitByPeriod(t *testing.T) {
	slots := MarkAvailability([]string{"08:00", "11:30", "12:00", "17:30"}, nil)
	morning, afternoon := SplitByPeriod(slots)
	if len(morning) != 2 || morning[1].Time != "11:30" {
		t.Fatalf("unexpected morning slots: %v", morning)
	}
	if len(afternoon) != 2 || afternoon[0].Time != "12:00" {
		t.Fatalf("unexpected afternoon slots: %v", afternoon)
	}
}

func TestPicker_RejectsUnavailable(t *testing.T) {
	p := NewPicker(MarkAvailability([]string{"08:00", "08:30", "09:00"}, []string{"08:30"}))

	if !p.Select("08:00") {
		t.Fatal("expected 08:00 to be selectable")
	}
	if p.Select("08:30") {
		t.Fatal("expected 08:30 to be rejected")
	}
	if p.Select("07:00") {
		t.Fatal("expected unknown slot to be rejected")
	}
	if got, ok := p.Selected(); !ok || got != "08:00" {
		t.Fatalf("expected selection to stay 08:00, got %q", got)
	}
}

func TestPicker_ResetDropsStaleSelection(t *testing.T) {
	p := NewPicker(MarkAvailability([]string{"08:00", "08:30"}, nil))
	if !p.Select("08:30") {
		t.Fatal("expected 08:30 to be selectable")
	}
	p.Reset(MarkAvailability([]string{"08:00", "08:30"}, []string{"08:30"}))
	if _, ok := p.Selected(); ok {
		t.Fatal("expected selection to be dropped after slot became unavailable")
	}
}
