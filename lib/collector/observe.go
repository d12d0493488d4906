// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"github.com/hwbeat/hwbeat/lib/hwtree"
	"github.com/hwbeat/hwbeat/lib/metric"
)

// Every callback built here takes the shared lock for the duration of
// its reads, so a collection pass never interleaves with a refresh.

// observeSensor reads a single sensor into one unlabeled observation.
func (c *Collector) observeSensor(sensor *hwtree.Sensor) metric.ObserveFunc {
	return func() []metric.Observation {
		c.mu.Lock()
		defer c.mu.Unlock()
		return []metric.Observation{{Value: sensor.Reading()}}
	}
}

// observeBySensorName emits one observation per sensor, labeled with
// the sensor's own name. Used where one hardware node carries several
// sensors of the same type, like super I/O fan headers.
func (c *Collector) observeBySensorName(sensors []*hwtree.Sensor) metric.ObserveFunc {
	return func() []metric.Observation {
		c.mu.Lock()
		defer c.mu.Unlock()
		observations := make([]metric.Observation, 0, len(sensors))
		for _, sensor := range sensors {
			observations = append(observations, metric.Observation{
				Value:  sensor.Reading(),
				Labels: map[string]string{"name": sensor.Name},
			})
		}
		return observations
	}
}

// observeByHardwareName emits one observation per sensor, labeled
// with the owning hardware's name. Used where the same sensor recurs
// across devices, like one temperature per disk.
func (c *Collector) observeByHardwareName(sensors []*hwtree.Sensor) metric.ObserveFunc {
	return func() []metric.Observation {
		c.mu.Lock()
		defer c.mu.Unlock()
		observations := make([]metric.Observation, 0, len(sensors))
		for _, sensor := range sensors {
			observations = append(observations, metric.Observation{
				Value:  sensor.Reading(),
				Labels: map[string]string{"name": sensor.Hardware.Name},
			})
		}
		return observations
	}
}

// variant binds one optional sensor to the label value it reports
// under, for metrics whose observations are distinguished by a fixed
// label like type=physical|virtual.
type variant struct {
	sensor *hwtree.Sensor
	value  string
}

// presentVariants drops variants whose selection rule matched no
// sensor. An empty result means the metric must not register.
func presentVariants(variants []variant) []variant {
	present := make([]variant, 0, len(variants))
	for _, v := range variants {
		if v.sensor != nil {
			present = append(present, v)
		}
	}
	return present
}

// observeVariants emits one observation per present variant, labeled
// key=value.
func (c *Collector) observeVariants(key string, variants []variant) metric.ObserveFunc {
	return func() []metric.Observation {
		c.mu.Lock()
		defer c.mu.Unlock()
		observations := make([]metric.Observation, 0, len(variants))
		for _, v := range variants {
			observations = append(observations, metric.Observation{
				Value:  v.sensor.Reading(),
				Labels: map[string]string{key: v.value},
			})
		}
		return observations
	}
}

// observePairs zips two sensor lists positionally and emits two
// observations per index: one from each list, labeled with the owning
// hardware's name plus key=firstValue or key=secondValue. The index
// flattens each device's sensors adjacently, so position i of both
// lists belongs to the same device. Unequal lengths zip to the
// shorter list.
func (c *Collector) observePairs(first, second []*hwtree.Sensor, key, firstValue, secondValue string) metric.ObserveFunc {
	count := len(first)
	if len(second) < count {
		count = len(second)
	}
	first = first[:count]
	second = second[:count]
	return func() []metric.Observation {
		c.mu.Lock()
		defer c.mu.Unlock()
		observations := make([]metric.Observation, 0, 2*count)
		for i := 0; i < count; i++ {
			observations = append(observations,
				metric.Observation{
					Value: first[i].Reading(),
					Labels: map[string]string{
						"name": first[i].Hardware.Name,
						key:    firstValue,
					},
				},
				metric.Observation{
					Value: second[i].Reading(),
					Labels: map[string]string{
						"name": second[i].Hardware.Name,
						key:    secondValue,
					},
				})
		}
		return observations
	}
}

// pairCount reports how many positional pairs two selections form.
func pairCount(first, second []*hwtree.Sensor) int {
	if len(first) < len(second) {
		return len(first)
	}
	return len(second)
}
