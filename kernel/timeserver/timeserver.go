// Package timeserver implements the always-on time server: a task that
// replies immediately to its tick-notifier child and replies to delay
// requests only once the requested number of ticks has elapsed.
package timeserver

import (
	"container/heap"
	"encoding/binary"
	"log/slog"

	"github.com/ashenvale/rtscore/kernel"
)

// TicksPerSecond is the rate at which the tick-notifier child observes the
// host's 60Hz tick event. Sleep converts a millisecond duration into this
// many ticks.
const TicksPerSecond = 60

type kind uint8

const (
	kindNotify kind = iota
	kindDelay
)

// MsToTicks converts a millisecond duration into the tick count DELAY
// expects, rounding up so a caller never wakes early.
func MsToTicks(ms int64) int64 {
	if ms <= 0 {
		return 0
	}
	ticks := (ms*TicksPerSecond + 999) / 1000
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

// Sleep blocks the calling task for at least ms milliseconds by sending a
// DELAY request to the time server ts. This is Task_Sleep from the spec.
func Sleep(t *kernel.Task, ts kernel.Tid, ms int64) {
	buf := make([]byte, 9)
	buf[0] = byte(kindDelay)
	binary.LittleEndian.PutUint64(buf[1:], uint64(MsToTicks(ms)))
	t.Send(ts, buf, nil)
}

// sleeper is one pending DELAY request, ordered in the heap purely by
// wake tick: two sleepers with the same wake tick are released in
// heap-pop order, not in the order they called Sleep. That tie-break is a
// deliberate design choice carried over unchanged from the reference
// kernel, not an accident of implementation.
type sleeper struct {
	tid  kernel.Tid
	wake int64
}

type sleeperHeap []sleeper

func (h sleeperHeap) Len() int            { return len(h) }
func (h sleeperHeap) Less(i, j int) bool  { return h[i].wake < h[j].wake }
func (h sleeperHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *sleeperHeap) Push(x any)         { *h = append(*h, x.(sleeper)) }
func (h *sleeperHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Run is the time server's task body. It spawns the tick-notifier child
// itself, then loops receiving NOTIFY/DELAY requests. now is this server's
// own tick counter, advanced once per NOTIFY and read once per loop
// iteration, exactly as the spec requires.
func Run(t *kernel.Task, tickEvent kernel.EventID, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}

	waiters := &sleeperHeap{}
	heap.Init(waiters)
	var now int64

	t.SetDestructor(func(any) {
		*waiters = nil
		log.Info("time server shutting down")
	}, nil)

	self := t.MyTid()
	t.Create(kernel.PriorityHigh, func(ct *kernel.Task) {
		tickNotifier(ct, self, tickEvent)
	})

	buf := make([]byte, 9)
	for {
		sender, n := t.Receive(buf)
		msg := buf[:n]
		if len(msg) == 0 {
			continue
		}
		switch kind(msg[0]) {
		case kindNotify:
			now++
			t.Reply(sender, nil)
			drain(t, waiters, now)
		case kindDelay:
			ticks := int64(binary.LittleEndian.Uint64(msg[1:9]))
			heap.Push(waiters, sleeper{tid: sender, wake: now + ticks})
			// No Reply here: the reply to a DELAY request is what wakes the
			// sleeper, and it only fires once drain finds it due.
			drain(t, waiters, now)
		default:
			log.Warn("time server received unknown request kind", "kind", msg[0])
			t.Reply(sender, nil)
		}
	}
}

// drain releases every sleeper whose wake tick has arrived, including ones
// left over from ticks that elapsed before the time server got around to
// processing their DELAY.
func drain(t *kernel.Task, waiters *sleeperHeap, now int64) {
	for waiters.Len() > 0 && (*waiters)[0].wake <= now {
		w := heap.Pop(waiters).(sleeper)
		t.Reply(w.tid, nil)
	}
}

// tickNotifier is the time server's subordinate: it does nothing but wait
// for the host's tick event and relay it as a NOTIFY, never itself touching
// the heap.
func tickNotifier(t *kernel.Task, parent kernel.Tid, tickEvent kernel.EventID) {
	for {
		t.AwaitEvent(tickEvent)
		t.Send(parent, []byte{byte(kindNotify)}, nil)
	}
}
