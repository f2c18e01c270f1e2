// Package hardware probes the machine's inference capability. Results are
// cached for the process lifetime: hardware does not change at runtime, and
// concurrent configuration construction must not repeat syscalls.
package hardware

import (
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

var (
	probeOnce  sync.Once
	gpuOffload bool
	cpuCount   int
)

// GPUOffloadSupported reports whether GPU-accelerated inference is
// available. Detection looks for an NVIDIA driver; the RAGLITE_GPU_OFFLOAD
// environment variable overrides it for deployments where device nodes are
// hidden from the process.
func GPUOffloadSupported() bool {
	probe()
	return gpuOffload
}

// CPUCount reports the number of logical CPU cores, at least 1.
func CPUCount() int {
	probe()
	return cpuCount
}

func probe() {
	probeOnce.Do(func() {
		gpuOffload = detectGPUOffload()
		cpuCount = detectCPUCount()
	})
}

func detectCPUCount() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

func detectGPUOffload() bool {
	if v, ok := os.LookupEnv("RAGLITE_GPU_OFFLOAD"); ok {
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	for _, path := range []string{"/proc/driver/nvidia/version", "/dev/nvidia0"} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}
