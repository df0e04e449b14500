// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNowAdvances(t *testing.T) {
	fake := Fake(epoch)
	fake.Advance(90 * time.Second)
	if got, want := fake.Now(), epoch.Add(90*time.Second); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestFakeAfterFuncFiresAtDeadline(t *testing.T) {
	fake := Fake(epoch)
	var firedAt time.Time
	fake.AfterFunc(30*time.Second, func() { firedAt = fake.Now() })

	fake.Advance(29 * time.Second)
	if !firedAt.IsZero() {
		t.Fatal("callback fired before its deadline")
	}
	fake.Advance(5 * time.Second)
	if want := epoch.Add(30 * time.Second); !firedAt.Equal(want) {
		t.Fatalf("callback saw Now() = %v, want %v", firedAt, want)
	}
	if fake.Pending() != 0 {
		t.Errorf("Pending() = %d after one-shot fired, want 0", fake.Pending())
	}
}

func TestFakeTimerStop(t *testing.T) {
	fake := Fake(epoch)
	fired := false
	timer := fake.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("Stop() on a pending timer returned false")
	}
	if timer.Stop() {
		t.Error("second Stop() returned true")
	}
	fake.Advance(time.Minute)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestFakeStopAfterFire(t *testing.T) {
	fake := Fake(epoch)
	timer := fake.AfterFunc(time.Second, func() {})
	fake.Advance(time.Second)
	if timer.Stop() {
		t.Fatal("Stop() after firing returned true")
	}
}

func TestFakeCallbackCanRearm(t *testing.T) {
	fake := Fake(epoch)
	var fires []time.Time
	var arm func()
	arm = func() {
		fake.AfterFunc(30*time.Second, func() {
			fires = append(fires, fake.Now())
			arm()
		})
	}
	arm()

	fake.Advance(95 * time.Second)

	if len(fires) != 3 {
		t.Fatalf("got %d fires, want 3", len(fires))
	}
	for i, at := range fires {
		if want := epoch.Add(time.Duration(i+1) * 30 * time.Second); !at.Equal(want) {
			t.Errorf("fire %d at %v, want %v", i, at, want)
		}
	}
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	fake := Fake(epoch)
	var order []string
	fake.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	fake.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	fake.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	fake.AfterFunc(2*time.Second, func() { order = append(order, "b2") })

	fake.Advance(3 * time.Second)

	want := []string{"a", "b", "b2", "c"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestFakeAfter(t *testing.T) {
	fake := Fake(epoch)
	channel := fake.After(time.Second)
	select {
	case <-channel:
		t.Fatal("After fired early")
	default:
	}
	fake.Advance(time.Second)
	select {
	case at := <-channel:
		if !at.Equal(epoch.Add(time.Second)) {
			t.Errorf("After delivered %v", at)
		}
	default:
		t.Fatal("After did not fire")
	}

	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) not immediately ready")
	}
}

func TestFakeTickerDropsWhenFull(t *testing.T) {
	fake := Fake(epoch)
	ticker := fake.NewTicker(time.Second)
	defer ticker.Stop()

	fake.Advance(5 * time.Second)

	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not tick")
	}
	select {
	case <-ticker.C:
		t.Fatal("ticker queued more than one tick")
	default:
	}
	if fake.Pending() != 1 {
		t.Errorf("Pending() = %d, want the ticker to remain registered", fake.Pending())
	}
	ticker.Stop()
	if fake.Pending() != 0 {
		t.Errorf("Pending() = %d after Stop, want 0", fake.Pending())
	}
}

func TestFakeWaitForPending(t *testing.T) {
	fake := Fake(epoch)
	done := make(chan struct{})
	go func() {
		fake.AfterFunc(time.Second, func() {})
		close(done)
	}()
	fake.WaitForPending(1)
	<-done
	if fake.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", fake.Pending())
	}
}
