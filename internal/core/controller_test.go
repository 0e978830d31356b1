package core

import (
	"fmt"
	"testing"
	"time"
)

func allPresent(voltage, current float64) [NumChannels]Reading {
	var r [NumChannels]Reading
	for i := range r {
		r[i] = Reading{Voltage: voltage, Current: current, Present: true}
	}
	return r
}

func allAbsent() [NumChannels]Reading {
	return [NumChannels]Reading{}
}

func TestNewControllerDefaults(t *testing.T) {
	c := NewController()
	if c.UnitPrice() != DefaultUnitPrice {
		t.Errorf("unit price: got %v, want %v", c.UnitPrice(), DefaultUnitPrice)
	}
	for id := 1; id <= NumChannels; id++ {
		ch := c.Channel(id)
		if ch.Relay {
			t.Errorf("channel %d: relay should default OFF", id)
		}
		if ch.UsageLimitSeconds != DefaultUsageLimitSeconds {
			t.Errorf("channel %d: limit got %d, want %d", id, ch.UsageLimitSeconds, DefaultUsageLimitSeconds)
		}
		if ch.EnergyWh != 0 || ch.OnSecondsToday != 0 {
			t.Errorf("channel %d: counters should start at zero", id)
		}
	}
}

func TestRestoreMergesSettings(t *testing.T) {
	c := NewController()
	s := Settings{UnitPrice: 12.5}
	s.Channels[0] = ChannelSettings{UsageLimitSeconds: 600, TimerMinutes: 15}
	s.Channels[3] = ChannelSettings{UsageLimitSeconds: 7200}
	c.Restore(s)

	if c.UnitPrice() != 12.5 {
		t.Errorf("unit price: got %v, want 12.5", c.UnitPrice())
	}
	if got := c.Channel(1); got.UsageLimitSeconds != 600 || got.TimerMinutes != 15 {
		t.Errorf("channel 1: got limit=%d timer=%d", got.UsageLimitSeconds, got.TimerMinutes)
	}
	if got := c.Channel(4); got.UsageLimitSeconds != 7200 {
		t.Errorf("channel 4: got limit=%d, want 7200", got.UsageLimitSeconds)
	}
	// Runtime state is untouched by Restore.
	if c.Channel(1).Relay || c.Channel(1).OnSecondsToday != 0 {
		t.Error("Restore must not touch relay state or counters")
	}
	if got := c.Settings(); got != s {
		t.Errorf("Settings round-trip: got %+v, want %+v", got, s)
	}
}

func TestMeteringIntegration(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// 230V * 2A = 460W for one tick: 460/3600 Wh.
	c.Tick(now, allPresent(230, 2))

	ch := c.Channel(1)
	if ch.Voltage != 230 || ch.Current != 2 {
		t.Errorf("sample: got V=%v I=%v", ch.Voltage, ch.Current)
	}
	if ch.Power != 460 {
		t.Errorf("power: got %v, want 460", ch.Power)
	}
	wantWh := 460.0 / 3600.0
	if ch.EnergyWh != wantWh {
		t.Errorf("energy: got %v, want %v", ch.EnergyWh, wantWh)
	}
	wantCost := (wantWh / 1000.0) * DefaultUnitPrice
	if ch.Cost != wantCost {
		t.Errorf("cost: got %v, want %v", ch.Cost, wantCost)
	}
}

func TestMeteringClampsNegativeCurrent(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Tick(now, allPresent(230, -0.05))

	ch := c.Channel(2)
	if ch.Current != 0 {
		t.Errorf("current: got %v, want 0 (clamped)", ch.Current)
	}
	if ch.Power != 0 {
		t.Errorf("power: got %v, want 0", ch.Power)
	}
	if ch.EnergyWh != 0 {
		t.Errorf("energy: got %v, want 0", ch.EnergyWh)
	}
}

func TestAbsentSensorZeroesAndSkipsIntegration(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Accumulate some energy first.
	c.Tick(now, allPresent(230, 2))
	before := c.Channel(1).EnergyWh

	// Sensor disappears: instantaneous readings zero, accumulator frozen.
	c.Tick(now.Add(time.Second), allAbsent())

	ch := c.Channel(1)
	if ch.Voltage != 0 || ch.Current != 0 || ch.Power != 0 {
		t.Errorf("absent sensor: got V=%v I=%v P=%v, want all zero", ch.Voltage, ch.Current, ch.Power)
	}
	if ch.EnergyWh != before {
		t.Errorf("energy changed on absent tick: got %v, want %v", ch.EnergyWh, before)
	}
}

func TestEnergyMonotonicAcrossSwitchOff(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Relay(now, 1, true)
	c.Tick(now, allPresent(230, 2))
	before := c.Channel(1).EnergyWh

	c.Relay(now.Add(time.Second), 1, false)
	if got := c.Channel(1).EnergyWh; got != before {
		t.Errorf("energy: got %v after switch-off, want %v", got, before)
	}
}

// Scenario A: limit of 3 seconds, switched ON at tick 0.
func TestUsageLimitAutoOff(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.SetLimit(now, 1, 3)
	c.Relay(now, 1, true)

	for tickN := 1; tickN <= 2; tickN++ {
		now = now.Add(time.Second)
		res := c.Tick(now, allAbsent())
		ch := c.Channel(1)
		if ch.OnSecondsToday != uint64(tickN) {
			t.Errorf("tick %d: onSecondsToday got %d, want %d", tickN, ch.OnSecondsToday, tickN)
		}
		if !ch.Relay {
			t.Errorf("tick %d: relay should still be ON", tickN)
		}
		if len(res.Events) != 0 {
			t.Errorf("tick %d: unexpected events %v", tickN, res.Events)
		}
	}

	now = now.Add(time.Second)
	res := c.Tick(now, allAbsent())
	ch := c.Channel(1)
	if ch.OnSecondsToday != 3 {
		t.Errorf("onSecondsToday: got %d, want 3", ch.OnSecondsToday)
	}
	if ch.Relay {
		t.Error("relay should be OFF after reaching limit")
	}
	if len(res.Events) != 1 || res.Events[0].Text != "Relay 1 auto OFF by limit" {
		t.Errorf("events: got %v, want single limit notification", res.Events)
	}
	if len(res.Switches) != 1 || res.Switches[0] != (Switch{ID: 1, On: false}) {
		t.Errorf("switches: got %v, want single OFF for channel 1", res.Switches)
	}

	// Off channel: limit axis is a no-op on later ticks.
	res = c.Tick(now.Add(time.Second), allAbsent())
	if len(res.Events) != 0 {
		t.Errorf("limit notification re-emitted: %v", res.Events)
	}
}

func TestZeroLimitDisablesEnforcement(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Limit 0 can only arrive via Restore (the command surface rejects it).
	s := c.Settings()
	s.Channels[0].UsageLimitSeconds = 0
	c.Restore(s)
	c.Relay(now, 1, true)

	for i := 0; i < 100; i++ {
		now = now.Add(time.Second)
		res := c.Tick(now, allAbsent())
		if len(res.Events) != 0 {
			t.Fatalf("tick %d: unexpected events %v", i, res.Events)
		}
	}
	ch := c.Channel(1)
	if !ch.Relay {
		t.Error("relay turned OFF with limit disabled")
	}
	if ch.OnSecondsToday != 100 {
		t.Errorf("onSecondsToday: got %d, want 100", ch.OnSecondsToday)
	}
}

// Scenario B: one-minute timer armed at switch-ON.
func TestTimerAutoOff(t *testing.T) {
	c := NewController()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.SetTimer(start, 2, 1)
	c.Relay(start, 2, true)

	if got := c.Channel(2).TimerEndEpoch; got != start.Unix()+60 {
		t.Fatalf("timerEndEpoch: got %d, want %d", got, start.Unix()+60)
	}

	// Just before the deadline: engaged, timer still armed.
	res := c.Tick(start.Add(59*time.Second), allAbsent())
	if !c.Channel(2).Relay {
		t.Error("relay OFF before deadline")
	}
	if len(res.Events) != 0 {
		t.Errorf("unexpected events before deadline: %v", res.Events)
	}

	// At the deadline: forced OFF, timer cleared, one notification.
	res = c.Tick(start.Add(60*time.Second), allAbsent())
	ch := c.Channel(2)
	if ch.Relay {
		t.Error("relay should be OFF at deadline")
	}
	if ch.TimerEndEpoch != 0 {
		t.Errorf("timerEndEpoch: got %d, want 0", ch.TimerEndEpoch)
	}
	if len(res.Events) != 1 || res.Events[0].Text != "Relay 2 auto OFF by timer" {
		t.Errorf("events: got %v, want single timer notification", res.Events)
	}

	// Not re-emitted on subsequent ticks.
	res = c.Tick(start.Add(61*time.Second), allAbsent())
	if len(res.Events) != 0 {
		t.Errorf("timer notification re-emitted: %v", res.Events)
	}
}

func TestLimitAndTimerSameTick(t *testing.T) {
	c := NewController()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Limit of 60 seconds and a 1-minute timer both expire on tick 60.
	c.SetLimit(start, 3, 60)
	c.SetTimer(start, 3, 1)
	c.Relay(start, 3, true)

	var fired []string
	now := start
	for i := 0; i < 60; i++ {
		now = now.Add(time.Second)
		res := c.Tick(now, allAbsent())
		for _, ev := range res.Events {
			fired = append(fired, ev.Text)
		}
	}

	want := []string{"Relay 3 auto OFF by limit", "Relay 3 auto OFF by timer"}
	if len(fired) != len(want) {
		t.Fatalf("events: got %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("event %d: got %q, want %q (limit axis evaluates first)", i, fired[i], want[i])
		}
	}
	if c.Channel(3).Relay {
		t.Error("relay should be OFF")
	}
}

func TestRelayOnIdempotent(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.SetTimer(now, 1, 5)
	first := c.Relay(now, 1, true)
	after1 := c.Channel(1)
	second := c.Relay(now, 1, true)
	after2 := c.Channel(1)

	if after1 != after2 {
		t.Errorf("state differs after repeat: %+v vs %+v", after1, after2)
	}
	// The repeated command is not suppressed: same notification again.
	if len(first.Events) != 1 || len(second.Events) != 1 || first.Events[0].Text != second.Events[0].Text {
		t.Errorf("notifications: got %v / %v", first.Events, second.Events)
	}
}

func TestManualOffDisarmsTimer(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.SetTimer(now, 4, 10)
	c.Relay(now, 4, true)
	if c.Channel(4).TimerEndEpoch == 0 {
		t.Fatal("timer should be armed after ON")
	}

	res := c.Relay(now.Add(time.Second), 4, false)
	ch := c.Channel(4)
	if ch.Relay {
		t.Error("relay should be OFF")
	}
	if ch.TimerEndEpoch != 0 {
		t.Errorf("timerEndEpoch: got %d, want 0 after manual OFF", ch.TimerEndEpoch)
	}
	if len(res.Events) != 1 || res.Events[0].Text != "Relay 4 OFF" {
		t.Errorf("events: got %v", res.Events)
	}
}

// Scenario D: editing the timer length on an engaged channel re-arms from
// "now" with the new length, discarding the prior deadline.
func TestSetTimerReArmsFromNow(t *testing.T) {
	c := NewController()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.SetTimer(start, 1, 10)
	c.Relay(start, 1, true)
	if got := c.Channel(1).TimerEndEpoch; got != start.Unix()+600 {
		t.Fatalf("initial deadline: got %d, want %d", got, start.Unix()+600)
	}

	later := start.Add(4 * time.Minute)
	res := c.SetTimer(later, 1, 2)
	if got := c.Channel(1).TimerEndEpoch; got != later.Unix()+120 {
		t.Errorf("re-armed deadline: got %d, want %d (reset, not additive)", got, later.Unix()+120)
	}
	if !res.SettingsChanged {
		t.Error("SetTimer should mark settings changed")
	}
}

func TestSetTimerZeroDisarms(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.SetTimer(now, 1, 10)
	c.Relay(now, 1, true)
	c.SetTimer(now.Add(time.Minute), 1, 0)

	ch := c.Channel(1)
	if ch.TimerMinutes != 0 {
		t.Errorf("timerMinutes: got %d, want 0", ch.TimerMinutes)
	}
	if ch.TimerEndEpoch != 0 {
		t.Errorf("timerEndEpoch: got %d, want 0", ch.TimerEndEpoch)
	}
	if !ch.Relay {
		t.Error("disarming the timer must not switch the relay")
	}
}

func TestSetLimitNeverResetsCounter(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Relay(now, 1, true)
	for i := 0; i < 10; i++ {
		now = now.Add(time.Second)
		c.Tick(now, allAbsent())
	}
	if c.Channel(1).OnSecondsToday != 10 {
		t.Fatalf("onSecondsToday: got %d, want 10", c.Channel(1).OnSecondsToday)
	}

	// New limit already exceeded: nothing happens until the next tick.
	c.SetLimit(now, 1, 5)
	if got := c.Channel(1).OnSecondsToday; got != 10 {
		t.Errorf("onSecondsToday: got %d, want 10 (never reset by SetLimit)", got)
	}
	if !c.Channel(1).Relay {
		t.Error("SetLimit must not switch the relay itself")
	}

	res := c.Tick(now.Add(time.Second), allAbsent())
	if c.Channel(1).Relay {
		t.Error("relay should go OFF on the tick after the limit change")
	}
	if len(res.Events) != 1 || res.Events[0].Text != "Relay 1 auto OFF by limit" {
		t.Errorf("events: got %v", res.Events)
	}
}

// Scenario C: 500 Wh at 8.0/kWh costs 4.0.
func TestCostDerivation(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// 1800 W for 1000 ticks = 500 Wh.
	for i := 0; i < 1000; i++ {
		now = now.Add(time.Second)
		c.Tick(now, allPresent(230, 1800.0/230.0))
	}

	ch := c.Channel(3)
	if diff := ch.EnergyWh - 500.0; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("energy: got %v, want 500", ch.EnergyWh)
	}
	if diff := ch.Cost - 4.0; diff > 1e-8 || diff < -1e-8 {
		t.Errorf("cost: got %v, want 4.0", ch.Cost)
	}
}

func TestSetPriceRecomputesCosts(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Tick(now, allPresent(230, 2))
	res := c.SetPrice(now, 16.0)

	if c.UnitPrice() != 16.0 {
		t.Errorf("unit price: got %v, want 16.0", c.UnitPrice())
	}
	for id := 1; id <= NumChannels; id++ {
		ch := c.Channel(id)
		want := (ch.EnergyWh / 1000.0) * 16.0
		if ch.Cost != want {
			t.Errorf("channel %d cost: got %v, want %v", id, ch.Cost, want)
		}
	}
	if !res.SettingsChanged {
		t.Error("SetPrice should mark settings changed")
	}
	if len(res.Events) != 1 || res.Events[0].Text != "Unit price set to 16.00" {
		t.Errorf("events: got %v", res.Events)
	}
}

func TestResetDaily(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for id := 1; id <= NumChannels; id++ {
		c.Relay(now, id, true)
	}
	for i := 0; i < 5; i++ {
		now = now.Add(time.Second)
		c.Tick(now, allAbsent())
	}
	before := c.Channel(2)

	c.ResetDaily()
	for id := 1; id <= NumChannels; id++ {
		ch := c.Channel(id)
		if ch.OnSecondsToday != 0 {
			t.Errorf("channel %d: onSecondsToday got %d, want 0", id, ch.OnSecondsToday)
		}
		if !ch.Relay {
			t.Errorf("channel %d: relay state must survive the daily reset", id)
		}
	}
	if got := c.Channel(2).EnergyWh; got != before.EnergyWh {
		t.Errorf("energy: got %v, want %v (not reset daily)", got, before.EnergyWh)
	}
}

func TestChannelOrderDeterministic(t *testing.T) {
	c := NewController()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for id := 1; id <= NumChannels; id++ {
		c.SetLimit(now, id, 1)
		c.Relay(now, id, true)
	}
	res := c.Tick(now.Add(time.Second), allAbsent())

	if len(res.Events) != NumChannels {
		t.Fatalf("events: got %d, want %d", len(res.Events), NumChannels)
	}
	for i, ev := range res.Events {
		want := fmt.Sprintf("Relay %d auto OFF by limit", i+1)
		if ev.Text != want {
			t.Errorf("event %d: got %q, want %q", i, ev.Text, want)
		}
	}
}
