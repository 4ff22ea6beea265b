package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -5: DefaultLimit, 10: 10, 500: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if LimitWithBuffer(10) != 11 {
		t.Fatal("expected buffer of one")
	}
}

func TestCursorRoundTrip(t *testing.T) {
	id := uuid.New()
	in := Cursor{Key: "Widget | large", ID: id}
	out, err := ParseCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if out.ID != id || out.Key != in.Key {
		t.Fatalf("expected %+v, got %+v", in, out)
	}

	empty, err := ParseCursor("  ")
	if err != nil || empty != nil {
		t.Fatalf("expected nil cursor for blank input, got %+v %v", empty, err)
	}
	if _, err := ParseCursor("%%%"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestTimeKeyRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 30, 0, 123, time.UTC)
	got, err := ParseTimeKey(TimeKey(now))
	if err != nil || !got.Equal(now) {
		t.Fatalf("expected %v, got %v (%v)", now, got, err)
	}
}

func TestTrim(t *testing.T) {
	rows := []string{"a", "b", "c"}
	ids := map[string]uuid.UUID{"a": uuid.New(), "b": uuid.New(), "c": uuid.New()}
	cursorFor := func(s string) Cursor { return Cursor{Key: s, ID: ids[s]} }

	page, next := Trim(rows, 2, cursorFor)
	if len(page) != 2 || next == "" {
		t.Fatalf("expected two rows and a cursor, got %v %q", page, next)
	}
	c, err := ParseCursor(next)
	if err != nil || c.Key != "b" || c.ID != ids["b"] {
		t.Fatalf("unexpected cursor %+v %v", c, err)
	}

	page, next = Trim(rows, 5, cursorFor)
	if len(page) != 3 || next != "" {
		t.Fatalf("expected full page without cursor, got %v %q", page, next)
	}
}
