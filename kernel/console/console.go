// Package console provides a small interactive debug console over a running
// Kernel, in the same spirit as the reference server's own go-prompt-backed
// console: it never runs as a task itself (so it can block on stdin without
// starving the scheduler). whois and sleep each spawn a short-lived task via
// Kernel.Spawn that reports back over a plain Go channel; ps reads
// Kernel.Snapshot directly.
package console

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	prompt "github.com/c-bata/go-prompt"

	"github.com/ashenvale/rtscore/kernel"
	"github.com/ashenvale/rtscore/kernel/nameserver"
	"github.com/ashenvale/rtscore/kernel/timeserver"
)

const promptPrefix = "rts> "

// Console reads commands from the terminal via go-prompt and executes them
// against k, writing results to os.Stdout.
type Console struct {
	k   *kernel.Kernel
	ns  kernel.Tid
	ts  kernel.Tid
	log *slog.Logger
	out io.Writer

	history []string
}

// New returns a Console bound to k. ns and ts are the name/time server tids
// returned by services.Create, used by the whois and sleep commands.
func New(k *kernel.Kernel, ns, ts kernel.Tid, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{k: k, ns: ns, ts: ts, log: log, out: os.Stdout}
}

// Run blocks reading commands until the process's stdin reaches EOF or the
// user runs "quit".
func (c *Console) Run() {
	for {
		line := prompt.Input(promptPrefix, c.complete,
			prompt.OptionTitle("rtscore console"),
			prompt.OptionHistory(c.history),
			prompt.OptionPrefix(promptPrefix),
		)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.history = append(c.history, line)
		if line == "quit" || line == "exit" {
			return
		}
		c.execute(line)
	}
}

func (c *Console) execute(line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "ps":
		c.cmdPS()
	case "whois":
		if len(fields) != 2 {
			fmt.Fprintln(c.out, "usage: whois <name>")
			return
		}
		c.cmdWhoIs(fields[1])
	case "sleep":
		if len(fields) != 2 {
			fmt.Fprintln(c.out, "usage: sleep <ms>")
			return
		}
		ms, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Fprintln(c.out, "sleep: not a number:", fields[1])
			return
		}
		c.cmdSleep(ms)
	case "help":
		fmt.Fprintln(c.out, "commands: ps, whois <name>, sleep <ms>, quit")
	default:
		fmt.Fprintln(c.out, "unknown command:", fields[0])
	}
}

// cmdPS lists every task the dispatcher currently knows about.
func (c *Console) cmdPS() {
	infos := c.k.Snapshot()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Tid < infos[j].Tid })
	for _, info := range infos {
		state := "alive"
		if info.Zombie {
			state = "zombie"
		}
		fmt.Fprintf(c.out, "tid=%d parent=%d prio=%d %s\n", info.Tid, info.Parent, info.Prio, state)
	}
}

// cmdWhoIs spawns a throwaway task to perform the WhoIs rendezvous and
// prints the result once it arrives.
func (c *Console) cmdWhoIs(name string) {
	result := make(chan kernel.Tid, 1)
	c.k.Spawn(kernel.PriorityNormal, func(t *kernel.Task) {
		result <- nameserver.WhoIs(t, c.ns, name)
	})
	tid := <-result
	if tid == kernel.NullTid {
		fmt.Fprintln(c.out, "not found")
		return
	}
	fmt.Fprintln(c.out, tid)
}

// cmdSleep exercises Task_Sleep end to end and reports how it unblocked.
func (c *Console) cmdSleep(ms int64) {
	done := make(chan struct{})
	c.k.Spawn(kernel.PriorityNormal, func(t *kernel.Task) {
		timeserver.Sleep(t, c.ts, ms)
		close(done)
	})
	<-done
	fmt.Fprintf(c.out, "slept %dms\n", ms)
}

func (c *Console) complete(doc prompt.Document) []prompt.Suggest {
	suggestions := []prompt.Suggest{
		{Text: "ps", Description: "list tasks"},
		{Text: "whois", Description: "whois <name>"},
		{Text: "sleep", Description: "sleep <ms>"},
		{Text: "quit", Description: "exit the console"},
	}
	return prompt.FilterHasPrefix(suggestions, doc.GetWordBeforeCursor(), true)
}
