package kernel

// Tid is a task identifier, unique while the task is alive.
type Tid int32

// NullTid is the sentinel returned by lookups that find nothing (e.g. a name
// server WhoIs miss). Create never returns NullTid.
const NullTid Tid = -1

// Priority orders ready tasks: a lower value is scheduled first. Among tasks
// of equal priority, readiness is FIFO.
type Priority uint8

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow

	numPriorities = int(PriorityLow) + 1
)

// EventID names an event a task may suspend on with AwaitEvent.
type EventID uint32

// Task is the handle a running task body uses to call back into the
// scheduler. It is passed to the entry function given to Create (and to the
// function that starts the first, bootstrap task).
type Task struct {
	k        *Kernel
	tid      Tid
	parent   Tid
	prio     Priority
	proceed  chan schedResponse
}

// MyTid returns the tid of the calling task. Captured once when the task was
// created; it never changes for the lifetime of the task, so this never
// needs to round-trip through the dispatcher.
func (t *Task) MyTid() Tid { return t.tid }

// ParentTid returns the tid of the task that created the caller, or NullTid
// for the bootstrap task.
func (t *Task) ParentTid() Tid { return t.parent }

// request submits req to the dispatcher and blocks until the dispatcher
// grants this task the run token again, returning whatever response it
// attached. Every Task API method below is a thin wrapper around this.
func (t *Task) request(req schedRequest) schedResponse {
	req.from = t.tid
	req.resp = t.proceed
	t.k.requestCh <- req
	return <-t.proceed
}

// Send blocks until tid has Received and Replied. msg is copied into the
// receiver's buffer, truncated to the smaller of the two sizes; once replied,
// up to len(reply) bytes of the reply are copied back into reply, again
// truncated to the smaller of the two buffer sizes. Send returns the number
// of reply bytes written into reply.
func (t *Task) Send(tid Tid, msg []byte, reply []byte) int {
	resp := t.request(schedRequest{kind: reqSend, to: tid, sendMsg: msg, replyBuf: reply})
	return resp.n
}

// Receive blocks until some task Sends to this one, then copies the sender's
// message into buf (truncated to the smaller of the two sizes) and returns
// the sender's tid along with the number of bytes written.
func (t *Task) Receive(buf []byte) (Tid, int) {
	resp := t.request(schedRequest{kind: reqReceive, recvBuf: buf})
	return resp.tid, resp.n
}

// Reply unblocks the sender previously obtained via Receive, delivering
// reply to it. Reply never blocks the caller. Replying to a tid that is not
// currently send-blocked on this task is a programming error.
func (t *Task) Reply(tid Tid, reply []byte) {
	t.request(schedRequest{kind: reqReply, replyTo: tid, replyMsg: reply})
}

// Yield cooperatively releases the CPU to a same-priority peer, if any is
// ready; the caller is re-enqueued at the back of its own priority band.
func (t *Task) Yield() {
	t.request(schedRequest{kind: reqYield})
}

// AwaitEvent blocks until event fires and returns the payload it was fired
// with.
func (t *Task) AwaitEvent(event EventID) any {
	resp := t.request(schedRequest{kind: reqAwaitEvent, event: event})
	return resp.payload
}

// Create spawns a new task at the given priority, running entry, and returns
// its tid. There is no separate argument parameter: entry closes over
// whatever data the new task needs.
func (t *Task) Create(prio Priority, entry func(*Task)) Tid {
	resp := t.request(schedRequest{kind: reqCreate, prio: prio, entry: entry})
	return resp.tid
}

// Wait blocks until tid exits, or returns false immediately if tid is
// already dead or never existed.
func (t *Task) Wait(tid Tid) bool {
	resp := t.request(schedRequest{kind: reqWait, waitTid: tid})
	return resp.ok
}

// SetDestructor registers fn to be invoked with arg immediately before this
// task exits. A task may have at most one destructor; a later call replaces
// an earlier one.
func (t *Task) SetDestructor(fn func(any), arg any) {
	t.request(schedRequest{kind: reqSetDestructor, destructor: fn, destructArg: arg})
}
