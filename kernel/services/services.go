// Package services wires up the two always-on system tasks: the name server
// and the time server. Task_CreateServices from the spec is Create, called
// here from the bootstrap task.
package services

import (
	"log/slog"

	"github.com/ashenvale/rtscore/kernel"
	"github.com/ashenvale/rtscore/kernel/nameserver"
	"github.com/ashenvale/rtscore/kernel/timeserver"
)

// Services captures the process-wide tids of the two system servers, read
// once at startup the same way the reference kernel caches s_ns_tid and
// s_ts_tid.
type Services struct {
	NameServer kernel.Tid
	TimeServer kernel.Tid
}

// Create spawns the name server and time server (with its tick-notifier
// child) at PriorityHigh, since every other task may end up blocked on one
// of them. tickEvent is the event the time server's notifier child awaits;
// the host fires it (via Kernel.PostEvent) once per real tick.
func Create(t *kernel.Task, tickEvent kernel.EventID, log *slog.Logger) *Services {
	if log == nil {
		log = slog.Default()
	}
	ns := t.Create(kernel.PriorityHigh, func(ct *kernel.Task) {
		nameserver.Run(ct, log)
	})
	ts := t.Create(kernel.PriorityHigh, func(ct *kernel.Task) {
		timeserver.Run(ct, tickEvent, log)
	})
	return &Services{NameServer: ns, TimeServer: ts}
}
