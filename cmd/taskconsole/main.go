// Command taskconsole boots a bare kernel with its two system services and
// an interactive debug console, firing the 60Hz tick event from a plain
// ticker so sleep/whois can be exercised live.
package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/ashenvale/rtscore/kernel"
	"github.com/ashenvale/rtscore/kernel/console"
	"github.com/ashenvale/rtscore/kernel/services"
	"github.com/ashenvale/rtscore/kernel/timeserver"
)

const tick60Hz kernel.EventID = 1

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	k := kernel.New(log)

	svcReady := make(chan *services.Services, 1)
	k.Start(func(t *kernel.Task) {
		svc := services.Create(t, tick60Hz, log)
		svcReady <- svc
		// The bootstrap task has nothing left to do, but it must give up the
		// scheduling token through the Task API rather than block on a bare
		// channel (the dispatcher cannot hand the token to anyone else while
		// this goroutine holds it). The name server never exits on its own,
		// so waiting on it parks the bootstrap task for good.
		t.Wait(svc.NameServer)
	})
	svc := <-svcReady

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second / timeserver.TicksPerSecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				k.PostEvent(tick60Hz, nil)
			case <-stop:
				return
			}
		}
	}()
	defer close(stop)

	console.New(k, svc.NameServer, svc.TimeServer, log).Run()
}
