// Package kernel implements a single-threaded, cooperatively scheduled
// microkernel of the shape described for the task core: typed
// send/receive/reply rendezvous between lightweight tasks, with priority
// ready queues and an event-wait primitive tasks use to suspend until the
// host notifies them of something (a tick, in particular).
//
// Despite being built on goroutines, at most one task ever executes user code
// at a time: a task only resumes running after the dispatcher hands it a
// single-slot "proceed" token, and it only gives that token up by calling one
// of the Task methods. Between those calls a task has exclusive access to any
// process state it reaches, exactly as spec'd for a real cooperative kernel —
// no locks are required anywhere in this package.
package kernel

import (
	"log/slog"
)

// pendingSend is a message queued in a receiver's inbox because the receiver
// had not yet called Receive when the sender's Send arrived.
type pendingSend struct {
	sender Tid
	msg    []byte
}

// pendingReply tracks a sender currently blocked in Send, waiting for the
// receiver it was delivered to call Reply.
type pendingReply struct {
	receiver Tid
	replyBuf []byte
}

type readyEntry struct {
	tid  Tid
	resp schedResponse
}

type taskState struct {
	tid    Tid
	parent Tid
	prio   Priority

	proceed chan schedResponse

	inbox []pendingSend

	recvWaiting bool
	recvBuf     []byte

	destructor  func(any)
	destructArg any

	waiters []Tid
	zombie  bool
}

// Kernel is the cooperative scheduler. The zero value is not usable; build
// one with New.
type Kernel struct {
	log *slog.Logger

	requestCh chan schedRequest

	tasks  map[Tid]*taskState
	nextTid Tid

	ready   [numPriorities][]readyEntry
	running Tid

	awaitingReply map[Tid]pendingReply
	eventWaiters  map[EventID][]Tid
}

// New creates a Kernel. The dispatcher does not start processing requests
// until Start is called with the root task body.
func New(log *slog.Logger) *Kernel {
	if log == nil {
		log = slog.Default()
	}
	return &Kernel{
		log:           log,
		requestCh:     make(chan schedRequest),
		tasks:         make(map[Tid]*taskState),
		awaitingReply: make(map[Tid]pendingReply),
		eventWaiters:  make(map[EventID][]Tid),
		running:       NullTid,
	}
}

// Start launches the dispatcher goroutine and a root task running body. The
// root task's ParentTid is NullTid. Start returns once the dispatcher has
// been started; it does not wait for body to return.
func (k *Kernel) Start(body func(*Task)) {
	tid := k.nextTid
	k.nextTid++

	ts := &taskState{tid: tid, parent: NullTid, prio: PriorityNormal, proceed: make(chan schedResponse, 1)}
	k.tasks[tid] = ts
	t := &Task{k: k, tid: tid, parent: NullTid, prio: PriorityNormal, proceed: ts.proceed}

	go k.loop()
	go k.run(t, body)

	k.running = tid
	ts.proceed <- schedResponse{}
}

// run is the goroutine body every task (including the root) executes: it
// parks until granted the token, runs the task's entry, then tells the
// dispatcher the task has exited.
func (k *Kernel) run(t *Task, entry func(*Task)) {
	<-t.proceed
	entry(t)
	k.requestCh <- schedRequest{kind: reqExit, from: t.tid}
}

// PostEvent fires event for any tasks currently suspended in AwaitEvent on
// it, delivering payload to each. Intended to be called by the host (e.g.
// the engine's real tick driver) from outside any task.
func (k *Kernel) PostEvent(event EventID, payload any) {
	k.requestCh <- schedRequest{kind: reqPostEvent, event: event, payload: payload}
}

// Spawn creates a new task from outside the task system entirely (no
// caller task needs to hold the run token), used by host-driven tooling
// such as the debug console to fire off one-off queries. It blocks only
// long enough for the dispatcher to register the new task.
func (k *Kernel) Spawn(prio Priority, entry func(*Task)) Tid {
	resp := make(chan schedResponse, 1)
	k.requestCh <- schedRequest{kind: reqHostCreate, prio: prio, entry: entry, resp: resp}
	return (<-resp).tid
}

// TaskInfo is a point-in-time snapshot of one task, for introspection tools.
type TaskInfo struct {
	Tid    Tid
	Parent Tid
	Prio   Priority
	Zombie bool
}

// Snapshot returns a point-in-time list of every task the dispatcher knows
// about (including zombies it hasn't forgotten). Safe to call from outside
// any task.
func (k *Kernel) Snapshot() []TaskInfo {
	resp := make(chan schedResponse, 1)
	k.requestCh <- schedRequest{kind: reqSnapshot, resp: resp}
	r := <-resp
	return r.payload.([]TaskInfo)
}

// loop is the dispatcher: the single goroutine that owns all scheduler
// state. It never runs concurrently with task bodies — those only execute
// between receiving and re-blocking on their proceed channel.
func (k *Kernel) loop() {
	for req := range k.requestCh {
		k.handle(req)
	}
}

func (k *Kernel) handle(req schedRequest) {
	switch req.kind {
	case reqSend:
		k.handleSend(req)
	case reqReceive:
		k.handleReceive(req)
	case reqReply:
		k.handleReply(req)
	case reqYield:
		k.handleYield(req)
	case reqAwaitEvent:
		k.handleAwaitEvent(req)
	case reqCreate:
		k.handleCreate(req)
	case reqWait:
		k.handleWait(req)
	case reqSetDestructor:
		k.handleSetDestructor(req)
	case reqExit:
		k.handleExit(req)
	case reqPostEvent:
		k.handlePostEvent(req)
	case reqHostCreate:
		k.handleHostCreate(req)
	case reqSnapshot:
		k.handleSnapshot(req)
	default:
		panic("kernel: unknown request kind")
	}
}

func (k *Kernel) handleSend(req schedRequest) {
	receiver, ok := k.tasks[req.to]
	if !ok || receiver.zombie {
		panic("kernel: Send to unknown or exited tid")
	}
	k.awaitingReply[req.from] = pendingReply{receiver: req.to, replyBuf: req.replyBuf}
	if receiver.recvWaiting {
		receiver.recvWaiting = false
		n := copyMin(receiver.recvBuf, req.sendMsg)
		receiver.recvBuf = nil
		k.makeReady(req.to, schedResponse{tid: req.from, n: n})
	} else {
		receiver.inbox = append(receiver.inbox, pendingSend{sender: req.from, msg: req.sendMsg})
	}
	k.dispatchAfterBlock()
}

func (k *Kernel) handleReceive(req schedRequest) {
	self := k.tasks[req.from]
	if len(self.inbox) > 0 {
		ps := self.inbox[0]
		self.inbox = self.inbox[1:]
		n := copyMin(req.recvBuf, ps.msg)
		k.replyToCaller(req.from, schedResponse{tid: ps.sender, n: n})
		return
	}
	self.recvWaiting = true
	self.recvBuf = req.recvBuf
	k.dispatchAfterBlock()
}

func (k *Kernel) handleReply(req schedRequest) {
	pr, ok := k.awaitingReply[req.replyTo]
	if !ok || pr.receiver != req.from {
		panic("kernel: Reply to a tid that is not send-blocked on this task")
	}
	delete(k.awaitingReply, req.replyTo)
	n := copyMin(pr.replyBuf, req.replyMsg)
	k.makeReady(req.replyTo, schedResponse{n: n})
	k.replyToCaller(req.from, schedResponse{})
}

func (k *Kernel) handleYield(req schedRequest) {
	k.makeReady(req.from, schedResponse{})
	k.dispatchAfterBlock()
}

func (k *Kernel) handleAwaitEvent(req schedRequest) {
	k.eventWaiters[req.event] = append(k.eventWaiters[req.event], req.from)
	k.dispatchAfterBlock()
}

func (k *Kernel) handleCreate(req schedRequest) {
	tid := k.nextTid
	k.nextTid++
	ts := &taskState{tid: tid, parent: req.from, prio: req.prio, proceed: make(chan schedResponse, 1)}
	k.tasks[tid] = ts
	t := &Task{k: k, tid: tid, parent: req.from, prio: req.prio, proceed: ts.proceed}
	go k.run(t, req.entry)
	k.makeReady(tid, schedResponse{})
	k.replyToCaller(req.from, schedResponse{tid: tid, ok: true})
}

func (k *Kernel) handleWait(req schedRequest) {
	target, ok := k.tasks[req.waitTid]
	if !ok || target.zombie {
		k.replyToCaller(req.from, schedResponse{ok: false})
		return
	}
	target.waiters = append(target.waiters, req.from)
	k.dispatchAfterBlock()
}

func (k *Kernel) handleSetDestructor(req schedRequest) {
	self := k.tasks[req.from]
	self.destructor = req.destructor
	self.destructArg = req.destructArg
	k.replyToCaller(req.from, schedResponse{})
}

func (k *Kernel) handleExit(req schedRequest) {
	self := k.tasks[req.from]
	if self.destructor != nil {
		fn, arg := self.destructor, self.destructArg
		self.destructor, self.destructArg = nil, nil
		fn(arg)
	}
	self.zombie = true
	waiters := self.waiters
	self.waiters = nil
	for _, w := range waiters {
		k.makeReady(w, schedResponse{ok: true})
	}
	k.dispatchAfterBlock()
}

func (k *Kernel) handlePostEvent(req schedRequest) {
	waiters := k.eventWaiters[req.event]
	delete(k.eventWaiters, req.event)
	for _, w := range waiters {
		k.makeReady(w, schedResponse{payload: req.payload})
	}
	if k.running == NullTid {
		k.dispatchNext()
	}
}

func (k *Kernel) handleHostCreate(req schedRequest) {
	tid := k.nextTid
	k.nextTid++
	ts := &taskState{tid: tid, parent: NullTid, prio: req.prio, proceed: make(chan schedResponse, 1)}
	k.tasks[tid] = ts
	t := &Task{k: k, tid: tid, parent: NullTid, prio: req.prio, proceed: ts.proceed}
	go k.run(t, req.entry)
	k.makeReady(tid, schedResponse{})
	req.resp <- schedResponse{tid: tid, ok: true}
	if k.running == NullTid {
		k.dispatchNext()
	}
}

func (k *Kernel) handleSnapshot(req schedRequest) {
	infos := make([]TaskInfo, 0, len(k.tasks))
	for tid, ts := range k.tasks {
		infos = append(infos, TaskInfo{Tid: tid, Parent: ts.parent, Prio: ts.prio, Zombie: ts.zombie})
	}
	req.resp <- schedResponse{payload: infos}
}

// makeReady enqueues tid at the back of its priority band, to be resumed with
// resp the next time the dispatcher picks it.
func (k *Kernel) makeReady(tid Tid, resp schedResponse) {
	ts := k.tasks[tid]
	k.ready[ts.prio] = append(k.ready[ts.prio], readyEntry{tid: tid, resp: resp})
}

// replyToCaller hands resp straight back to tid without a scheduling
// decision: tid keeps the token (used for operations the spec defines as
// non-blocking, such as Reply, Create and a Receive served from a
// already-queued message).
func (k *Kernel) replyToCaller(tid Tid, resp schedResponse) {
	k.tasks[tid].proceed <- resp
}

// dispatchAfterBlock is called once the currently running task has
// suspended itself (it no longer holds the token); it schedules whichever
// task should run next, or goes idle if none are ready.
func (k *Kernel) dispatchAfterBlock() {
	k.running = NullTid
	k.dispatchNext()
}

func (k *Kernel) dispatchNext() {
	for p := 0; p < numPriorities; p++ {
		for len(k.ready[p]) > 0 {
			entry := k.ready[p][0]
			k.ready[p] = k.ready[p][1:]
			ts, ok := k.tasks[entry.tid]
			if !ok || ts.zombie {
				// Defensive: this model never actually readies a zombie
				// task, but skip rather than send on a stale channel.
				continue
			}
			k.running = entry.tid
			ts.proceed <- entry.resp
			return
		}
	}
	k.running = NullTid
}

func copyMin(dst, src []byte) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	copy(dst[:n], src[:n])
	return n
}
