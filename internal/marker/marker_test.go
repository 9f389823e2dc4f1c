package marker

import (
	"strings"
	"testing"
	"time"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/schedule"
)

func TestKeyboardNumbersPresses(t *testing.T) {
	clock := schedule.NewSimulated(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	k := NewKeyboard(clock, DefaultDebounce)

	if _, ok := k.Poll(); ok {
		t.Fatal("no press yet")
	}
	for want := 1; want <= 3; want++ {
		k.Press()
		n, ok := k.Poll()
		if !ok || n != want {
			t.Fatalf("expected marker %d, got %d %v", want, n, ok)
		}
		clock.Advance(time.Second)
	}
}

func TestKeyboardDebounce(t *testing.T) {
	clock := schedule.NewSimulated(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	k := NewKeyboard(clock, DefaultDebounce)

	k.Press()
	k.Poll()
	clock.Advance(100 * time.Millisecond)
	k.Press()
	if _, ok := k.Poll(); ok {
		t.Fatal("press inside the debounce window should be ignored")
	}
	clock.Advance(DefaultDebounce)
	k.Press()
	if n, ok := k.Poll(); !ok || n != 2 {
		t.Fatalf("expected marker 2, got %d %v", n, ok)
	}
}

func TestKeyboardCollapsesPressesBetweenPolls(t *testing.T) {
	clock := schedule.NewSimulated(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	k := NewKeyboard(clock, 0)
	k.Press()
	k.Press()
	if n, ok := k.Poll(); !ok || n != 1 {
		t.Fatalf("expected marker 1, got %d %v", n, ok)
	}
	if _, ok := k.Poll(); ok {
		t.Fatal("second poll should be empty")
	}
}

func TestKeyboardListen(t *testing.T) {
	k := NewKeyboard(nil, 0)
	k.Listen(strings.NewReader("\n"))
	select {
	case <-k.Done():
	default:
		t.Fatal("Done should be closed after Listen")
	}
	if n, ok := k.Poll(); !ok || n != 1 {
		t.Fatalf("expected marker 1, got %d %v", n, ok)
	}
}

func TestNone(t *testing.T) {
	if _, ok := (None{}).Poll(); ok {
		t.Fatal("None never marks")
	}
}
