package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mfeltham/screenduty/internal/logic"
	"github.com/mfeltham/screenduty/internal/mqtt"
	"github.com/mfeltham/screenduty/internal/schedule"
)

func everyDay() [7]bool {
	return [7]bool{true, true, true, true, true, true, true}
}

// TestIntegrationDayCycle walks the engine through a simulated morning:
// ignore window overnight, motion after it ends, countdown with dimming,
// then an always-on window pinning the screen. Every snapshot goes through
// the real wire encoding.
func TestIntegrationDayCycle(t *testing.T) {
	monday := func(hh, mm, ss int) time.Time {
		return time.Date(2026, 1, 5, hh, mm, ss, 0, time.UTC)
	}

	engine := logic.New(logic.Config{
		Mode:              logic.ModeSensorOrBus,
		CounterTimeout:    120,
		AutoDimmer:        true,
		AutoDimmerTimeout: 60,
		IgnoreWindows: []schedule.Window{
			{Start: 0, End: 7 * 60, Days: everyDay()}, // 00:00-07:00
		},
		AlwaysOnWindows: []schedule.Window{
			{Start: 9 * 60, End: 9*60 + 30, Days: everyDay()}, // 09:00-09:30
		},
	})
	bus := mqtt.NewFakeBus()

	publish := func(res logic.Result) logic.Snapshot {
		if err := bus.PublishState(res.Snapshot); err != nil {
			t.Fatalf("publish: %v", err)
		}
		return res.Snapshot
	}

	// 06:00, inside the ignore window: first pass drives the screen off.
	res := engine.ScheduleTick(monday(6, 0, 0))
	if res.Screen == nil || *res.Screen {
		t.Fatalf("first pass: want off edge, got %+v", res.Screen)
	}
	snap := publish(res)
	if !snap.Ignore || snap.ScreenOn {
		t.Fatalf("06:00 snapshot: %+v", snap)
	}

	// Motion during the ignore window changes nothing.
	res = engine.SensorMotion(monday(6, 30, 0))
	snap = publish(res)
	if res.Screen != nil || snap.Presence || snap.ScreenOn {
		t.Fatalf("motion inside ignore window: %+v", snap)
	}

	// 07:30, window over, sensor level still high: the screen comes on.
	res = engine.ScheduleTick(monday(7, 30, 0))
	snap = publish(res)
	if res.Screen == nil || !*res.Screen {
		t.Fatal("want on edge after ignore window ends")
	}
	if snap.Phase() != logic.PhaseActive || snap.Counter != 120 {
		t.Fatalf("07:30 snapshot: %+v", snap)
	}

	// Presence lost at 08:00: countdown, dim at 60, off edge at 0.
	engine.SensorClear(monday(8, 0, 0))
	var offAt int
	for i := 1; i <= 120; i++ {
		res = engine.CountdownTick(monday(8, 0, i))
		snap = publish(res)
		switch {
		case i < 60 && snap.Phase() != logic.PhaseCounting:
			t.Fatalf("tick %d: phase %s, want COUNTING", i, snap.Phase())
		case i >= 60 && i < 120 && snap.Phase() != logic.PhaseDimmed:
			t.Fatalf("tick %d: phase %s, want DIMMED", i, snap.Phase())
		}
		if res.Screen != nil {
			if *res.Screen {
				t.Fatalf("tick %d: unexpected on edge", i)
			}
			offAt = i
		}
	}
	if offAt != 120 {
		t.Fatalf("off edge at tick %d, want 120", offAt)
	}
	if snap.Phase() != logic.PhaseIdle {
		t.Fatalf("after countdown: phase %s", snap.Phase())
	}

	// 09:10, inside the always-on window: pinned on with a deadline.
	res = engine.ScheduleTick(monday(9, 10, 0))
	snap = publish(res)
	if res.Screen == nil || !*res.Screen {
		t.Fatal("want on edge entering always-on window")
	}
	if !snap.AlwaysOn || snap.AlwaysOnTotal != 30*60 || snap.AlwaysOnLeft != 20*60 {
		t.Fatalf("09:10 snapshot: %+v", snap)
	}

	// Every published snapshot must decode through the wire format.
	states := bus.PublishedStates()
	for i, s := range states {
		data, err := mqtt.FormatState(s)
		if err != nil {
			t.Fatalf("state %d: %v", i, err)
		}
		var payload mqtt.StatePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			t.Fatalf("state %d: invalid JSON: %v", i, err)
		}
		if payload.Screen.Phase != string(s.Phase()) {
			t.Errorf("state %d: phase %q, want %q", i, payload.Screen.Phase, s.Phase())
		}
	}
}

// TestIntegrationFusionAndWake exercises sensor/bus fusion together with
// the manual wake pulse and its cancellation by a genuine edge.
func TestIntegrationFusionAndWake(t *testing.T) {
	t0 := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) time.Time { return t0.Add(d) }

	engine := logic.New(logic.Config{
		Mode:           logic.ModeSensorOrBus,
		CounterTimeout: 5,
	})
	engine.ScheduleTick(t0)

	// Wake pulse: screen on while the pulse is live.
	res, gen := engine.WakePulse(at(1 * time.Second))
	if res.Screen == nil || !*res.Screen {
		t.Fatal("want on edge from wake pulse")
	}

	// A bus occupancy edge arrives before the pulse expires: the pulse is
	// cancelled, its expiry must be a no-op.
	engine.BusOccupancy(true, at(1050*time.Millisecond))
	res = engine.PulseExpired(gen, at(1100*time.Millisecond))
	if !res.Snapshot.Presence {
		t.Fatal("stale pulse expiry must not drop bus presence")
	}

	// Bus clears, sensor still holds presence in fused mode.
	engine.SensorMotion(at(2 * time.Second))
	res = engine.BusOccupancy(false, at(3*time.Second))
	if !res.Snapshot.Presence {
		t.Fatal("sensor level must hold presence after bus clears")
	}

	// Sensor clears too: countdown runs out and the screen turns off.
	engine.SensorClear(at(4 * time.Second))
	var sawOff bool
	for i := 1; i <= 5; i++ {
		res = engine.CountdownTick(at(4*time.Second + time.Duration(i)*time.Second))
		if res.Screen != nil && !*res.Screen {
			sawOff = true
			if i != 5 {
				t.Fatalf("off edge at tick %d, want 5", i)
			}
		}
	}
	if !sawOff {
		t.Fatal("countdown never turned the screen off")
	}
}
