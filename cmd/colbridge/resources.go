package main

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// logResources reports what the conversion cost this process. Fields that
// the platform cannot provide are left out.
func logResources(log *zap.Logger) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	fields := []zap.Field{
		zap.Uint64("heap_alloc_bytes", ms.HeapAlloc),
		zap.Uint32("gc_cycles", ms.NumGC),
		zap.Int("goroutines", runtime.NumGoroutine()),
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("process stats unavailable", zap.Error(err))
		log.Info("process resources", fields...)
		return
	}
	if info, err := proc.MemoryInfo(); err == nil {
		fields = append(fields, zap.Uint64("rss_bytes", info.RSS), zap.Uint64("vms_bytes", info.VMS))
	}
	if times, err := proc.Times(); err == nil {
		fields = append(fields, zap.Float64("cpu_user_seconds", times.User), zap.Float64("cpu_system_seconds", times.System))
	}
	if n, err := proc.NumThreads(); err == nil {
		fields = append(fields, zap.Int32("threads", n))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fields = append(fields, zap.Float64("system_memory_used_percent", vm.UsedPercent))
	}
	log.Info("process resources", fields...)
}
