// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"sync"
	"testing"
	"time"

	"github.com/hwbeat/hwbeat/lib/schema/telemetry"
)

var collectTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestCollectRegistrationOrder(t *testing.T) {
	meter := NewMeter("hwbeat")
	meter.Gauge("hardware.memory.load", "memory load percent", func() []Observation {
		return []Observation{
			{Value: 42.5, Labels: map[string]string{"type": "physical"}},
			{Value: 61, Labels: map[string]string{"type": "virtual"}},
		}
	})
	meter.Counter("agent.refresh.total", "completed refreshes", func() []Observation {
		return []Observation{{Value: 7}}
	})

	points := meter.Collect(collectTime)
	if len(points) != 3 {
		t.Fatalf("Collect returned %d points, want 3", len(points))
	}

	if points[0].Name != "hardware.memory.load" || points[0].Value != 42.5 {
		t.Errorf("points[0] = %s %v, want hardware.memory.load 42.5", points[0].Name, points[0].Value)
	}
	if points[0].Labels["type"] != "physical" {
		t.Errorf("points[0] labels = %v, want type=physical", points[0].Labels)
	}
	if points[0].Kind != telemetry.MetricKindGauge {
		t.Errorf("points[0].Kind = %v, want gauge", points[0].Kind)
	}
	if points[1].Labels["type"] != "virtual" {
		t.Errorf("points[1] labels = %v, want type=virtual", points[1].Labels)
	}
	if points[2].Name != "agent.refresh.total" || points[2].Kind != telemetry.MetricKindCounter {
		t.Errorf("points[2] = %s %v, want agent.refresh.total counter", points[2].Name, points[2].Kind)
	}

	wantTimestamp := collectTime.UnixNano()
	for i, point := range points {
		if point.Timestamp != wantTimestamp {
			t.Errorf("points[%d].Timestamp = %d, want %d", i, point.Timestamp, wantTimestamp)
		}
	}
}

func TestCollectEmptyMeter(t *testing.T) {
	meter := NewMeter("hwbeat")
	if points := meter.Collect(collectTime); points != nil {
		t.Errorf("Collect on empty meter = %v, want nil", points)
	}
}

func TestCollectSkipsEmptyCallbacks(t *testing.T) {
	meter := NewMeter("hwbeat")
	meter.Gauge("hardware.battery.charge", "", func() []Observation { return nil })
	meter.Gauge("hardware.battery.voltage", "", func() []Observation {
		return []Observation{{Value: 12.1}}
	})

	points := meter.Collect(collectTime)
	if len(points) != 1 {
		t.Fatalf("Collect returned %d points, want 1", len(points))
	}
	if points[0].Name != "hardware.battery.voltage" {
		t.Errorf("points[0].Name = %q, want hardware.battery.voltage", points[0].Name)
	}
}

func TestDuplicateNamePanics(t *testing.T) {
	meter := NewMeter("hwbeat")
	meter.Gauge("hardware.battery.charge", "", func() []Observation { return nil })

	defer func() {
		if recover() == nil {
			t.Error("duplicate registration did not panic")
		}
	}()
	meter.Counter("hardware.battery.charge", "", func() []Observation { return nil })
}

func TestNilCallbackPanics(t *testing.T) {
	meter := NewMeter("hwbeat")
	defer func() {
		if recover() == nil {
			t.Error("nil callback registration did not panic")
		}
	}()
	meter.Gauge("hardware.battery.charge", "", nil)
}

func TestHas(t *testing.T) {
	meter := NewMeter("hwbeat")
	meter.Gauge("hardware.storage.used", "", func() []Observation { return nil })

	if !meter.Has("hardware.storage.used") {
		t.Error("Has(registered) = false, want true")
	}
	if meter.Has("hardware.storage.life") {
		t.Error("Has(unregistered) = true, want false")
	}
}

func TestInstruments(t *testing.T) {
	meter := NewMeter("hwbeat")
	meter.Gauge("b.gauge", "a gauge", func() []Observation { return nil })
	meter.Counter("a.counter", "a counter", func() []Observation { return nil })

	instruments := meter.Instruments()
	if len(instruments) != 2 {
		t.Fatalf("Instruments returned %d entries, want 2", len(instruments))
	}
	// Registration order, not name order.
	if instruments[0].Name != "b.gauge" || instruments[0].Kind != telemetry.MetricKindGauge {
		t.Errorf("instruments[0] = %+v, want b.gauge gauge", instruments[0])
	}
	if instruments[1].Name != "a.counter" || instruments[1].Kind != telemetry.MetricKindCounter {
		t.Errorf("instruments[1] = %+v, want a.counter counter", instruments[1])
	}
	if instruments[0].Description != "a gauge" {
		t.Errorf("instruments[0].Description = %q, want %q", instruments[0].Description, "a gauge")
	}
}

func TestMeterName(t *testing.T) {
	if got := NewMeter("hwbeat").Name(); got != "hwbeat" {
		t.Errorf("Name() = %q, want hwbeat", got)
	}
}

func TestConcurrentCollectAndRegister(t *testing.T) {
	meter := NewMeter("hwbeat")
	meter.Gauge("seed", "", func() []Observation {
		return []Observation{{Value: 1}}
	})

	var group sync.WaitGroup
	for worker := 0; worker < 4; worker++ {
		group.Add(1)
		go func() {
			defer group.Done()
			for i := 0; i < 100; i++ {
				meter.Collect(collectTime)
				meter.Has("seed")
				meter.Instruments()
			}
		}()
	}
	group.Wait()
}
