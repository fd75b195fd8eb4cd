package kernel

// reqKind identifies the operation carried by a schedRequest. Every Task API
// call funnels into the dispatcher as one of these, mirroring the single
// Sched_Request primitive a cooperative microkernel exposes to its tasks.
type reqKind uint8

const (
	reqSend reqKind = iota
	reqReceive
	reqReply
	reqYield
	reqAwaitEvent
	reqCreate
	reqWait
	reqSetDestructor
	reqExit
	reqPostEvent
	reqHostCreate
	reqSnapshot
)

// schedRequest is the opaque envelope a task (or, for reqPostEvent, the host)
// submits to the dispatcher. Only the fields relevant to kind are populated;
// the rest are left zero.
type schedRequest struct {
	kind reqKind
	from Tid

	// reqSend
	to       Tid
	sendMsg  []byte
	replyBuf []byte

	// reqReceive
	recvBuf []byte

	// reqReply
	replyTo  Tid
	replyMsg []byte

	// reqAwaitEvent / reqPostEvent
	event   EventID
	payload any

	// reqCreate
	prio  Priority
	entry func(*Task)
	arg   any

	// reqWait
	waitTid Tid

	// reqSetDestructor
	destructor func(any)
	destructArg any

	// resp is where the dispatcher delivers the outcome of a request that the
	// caller is waiting on. It is nil for reqPostEvent, which has no caller.
	resp chan schedResponse
}

// schedResponse carries the result the dispatcher hands back to a caller that
// blocked in request(). Only fields relevant to the originating request are
// meaningful.
type schedResponse struct {
	tid     Tid  // Send: unused; Receive: sender tid; Create: new tid
	n       int  // bytes copied (Send reply, Receive message)
	ok      bool // Wait outcome; Create always true
	payload any  // AwaitEvent payload
}
