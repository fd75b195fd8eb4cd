package nameserver

import (
	"testing"
	"time"

	"github.com/ashenvale/rtscore/kernel"
)

func TestRegisterAndWhoIs(t *testing.T) {
	k := kernel.New(nil)
	done := make(chan struct{})
	k.Start(func(root *kernel.Task) {
		ns := root.Create(kernel.PriorityHigh, func(t *kernel.Task) { Run(t, nil) })

		if got := WhoIs(root, ns, "scout-1"); got != kernel.NullTid {
			t.Errorf("WhoIs on unregistered name = %v, want NullTid", got)
		}

		worker := root.Create(kernel.PriorityNormal, func(t *kernel.Task) {
			sender, _ := t.Receive(make([]byte, 1))
			Register(t, ns, "scout-1")
			t.Reply(sender, nil)
		})
		Register(root, ns, "scout-1")
		if got := WhoIs(root, ns, "scout-1"); got != root.MyTid() {
			t.Errorf("WhoIs = %v, want %v", got, root.MyTid())
		}

		// Re-registering the same name under a different tid must overwrite,
		// not duplicate, the mapping.
		root.Send(worker, []byte{0}, nil)
		if got := WhoIs(root, ns, "scout-1"); got != worker {
			t.Errorf("WhoIs after re-register = %v, want %v", got, worker)
		}

		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestWhoIsTruncatesOverlongNames(t *testing.T) {
	k := kernel.New(nil)
	done := make(chan struct{})
	k.Start(func(root *kernel.Task) {
		ns := root.Create(kernel.PriorityHigh, func(t *kernel.Task) { Run(t, nil) })
		long := make([]byte, maxMessage*2)
		for i := range long {
			long[i] = 'a'
		}
		Register(root, ns, string(long))
		if got := WhoIs(root, ns, string(long[:maxMessage-1])); got != root.MyTid() {
			t.Errorf("truncated name lookup = %v, want %v", got, root.MyTid())
		}
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}
