// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package collector

// setupGPU is wired into the domain table but registers nothing yet.
//
// TODO: GPU metrics need a DRM card walk (driver name, VRAM totals
// from mem_info_vram_*, amdgpu hwmon for temperature and power) plus
// a vendor split for NVIDIA, which exposes nothing useful through
// sysfs without NVML. Blocked on the same unclaimed-chip decision as
// setupCPU for amdgpu and nouveau hwmon entries.
func setupGPU(c *Collector) {}
