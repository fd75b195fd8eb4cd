package timeserver

import (
	"testing"
	"time"

	"github.com/ashenvale/rtscore/kernel"
)

const tickEvent kernel.EventID = 1

func TestMsToTicksRoundsUp(t *testing.T) {
	cases := []struct {
		ms   int64
		want int64
	}{
		{0, 0},
		{-5, 0},
		{1, 1},
		{16, 1},
		{17, 2},
		{1000, 60},
		{1001, 61},
	}
	for _, c := range cases {
		if got := MsToTicks(c.ms); got != c.want {
			t.Errorf("MsToTicks(%d) = %d, want %d", c.ms, got, c.want)
		}
	}
}

// tickDriver fires tickEvent on k roughly every 5ms until stop is closed.
// Runs entirely outside the task system, the way the engine's real 60Hz
// driver would.
func tickDriver(k *kernel.Kernel, stop <-chan struct{}) {
	go func() {
		t := time.NewTicker(5 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				k.PostEvent(tickEvent, nil)
			case <-stop:
				return
			}
		}
	}()
}

func TestSleepWakesAfterRequestedTicks(t *testing.T) {
	k := kernel.New(nil)
	woken := make(chan struct{}, 1)

	// The root task only has to spawn the server and the sleeper; once its
	// entry returns, the dispatcher is free to run whichever of them the
	// host's tick events make ready.
	k.Start(func(root *kernel.Task) {
		ts := root.Create(kernel.PriorityHigh, func(t *kernel.Task) { Run(t, tickEvent, nil) })
		root.Create(kernel.PriorityNormal, func(t *kernel.Task) {
			Sleep(t, ts, 33) // 2 ticks at 60Hz
			woken <- struct{}{}
		})
	})

	stop := make(chan struct{})
	tickDriver(k, stop)
	defer close(stop)

	select {
	case <-woken:
	case <-time.After(2 * time.Second):
		t.Fatal("sleeper never woke")
	}
}

func TestSleepersWithEqualWakeTickBothRelease(t *testing.T) {
	k := kernel.New(nil)
	released := make(chan kernel.Tid, 2)
	tids := make(chan [2]kernel.Tid, 1)

	k.Start(func(root *kernel.Task) {
		ts := root.Create(kernel.PriorityHigh, func(t *kernel.Task) { Run(t, tickEvent, nil) })
		a := root.Create(kernel.PriorityNormal, func(t *kernel.Task) {
			Sleep(t, ts, 17) // 2 ticks
			released <- t.MyTid()
		})
		b := root.Create(kernel.PriorityNormal, func(t *kernel.Task) {
			Sleep(t, ts, 17) // same 2 ticks
			released <- t.MyTid()
		})
		tids <- [2]kernel.Tid{a, b}
	})

	stop := make(chan struct{})
	tickDriver(k, stop)
	defer close(stop)

	pair := <-tids
	seen := map[kernel.Tid]bool{}
	for i := 0; i < 2; i++ {
		select {
		case tid := <-released:
			seen[tid] = true
		case <-time.After(2 * time.Second):
			t.Fatal("not both equal-tick sleepers released")
		}
	}
	if !seen[pair[0]] || !seen[pair[1]] {
		t.Errorf("expected both %v and %v released, got %v", pair[0], pair[1], seen)
	}
}
