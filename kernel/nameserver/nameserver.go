// Package nameserver implements the always-on name server task: a simple
// string name to tid directory that other engine tasks use for discovery.
package nameserver

import (
	"encoding/binary"
	"log/slog"

	"github.com/ashenvale/rtscore/kernel"
	"github.com/segmentio/fasthash/fnv1a"
)

// kind distinguishes the two request shapes the server understands.
type kind uint8

const (
	kindRegister kind = iota
	kindWhoIs
)

// maxMessage bounds the wire buffer; encode truncates names to maxMessage-1
// bytes so that a request (kind byte plus name) always fits in it.
const maxMessage = 256

// Register maps name to the calling task's tid on ns, overwriting any
// previous mapping. It blocks until the name server has processed the
// request.
func Register(t *kernel.Task, ns kernel.Tid, name string) {
	msg := encode(kindRegister, name)
	var reply [4]byte
	t.Send(ns, msg, reply[:])
}

// WhoIs looks up name on ns, returning kernel.NullTid if it is not
// registered.
func WhoIs(t *kernel.Task, ns kernel.Tid, name string) kernel.Tid {
	msg := encode(kindWhoIs, name)
	var reply [4]byte
	t.Send(ns, msg, reply[:])
	return kernel.Tid(int32(binary.LittleEndian.Uint32(reply[:])))
}

func encode(k kind, name string) []byte {
	if len(name) > maxMessage-1 {
		name = name[:maxMessage-1]
	}
	b := make([]byte, 1+len(name))
	b[0] = byte(k)
	copy(b[1:], name)
	return b
}

// Run is the name server's task body: an infinite loop of Receive, dispatch,
// Reply. It is intended to be launched once via Task.Create at process
// startup; the resulting tid is the process-wide name server tid every
// other task resolves through Register/WhoIs.
func Run(t *kernel.Task, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	names := make(map[string]kernel.Tid)

	t.SetDestructor(func(any) {
		// The reference kernel frees each duplicated key string and the map
		// by hand here; Go's allocator reclaims both once this closure drops
		// its reference, so the destructor's job is just to let that happen
		// and log the shutdown.
		clear(names)
		log.Info("name server shutting down", "registered", len(names))
	}, nil)

	buf := make([]byte, maxMessage)
	for {
		sender, n := t.Receive(buf)
		req := buf[:n]
		if len(req) == 0 {
			continue
		}
		name := string(req[1:])
		switch kind(req[0]) {
		case kindRegister:
			names[name] = sender
			log.Debug("name registered", "name", name, "tid", sender, "namehash", fnv1a.HashString64(name))
			var reply [4]byte
			t.Reply(sender, reply[:])
		case kindWhoIs:
			tid, ok := names[name]
			if !ok {
				tid = kernel.NullTid
			}
			var reply [4]byte
			binary.LittleEndian.PutUint32(reply[:], uint32(int32(tid)))
			t.Reply(sender, reply[:])
		default:
			log.Warn("name server received unknown request kind", "kind", req[0])
			var reply [4]byte
			t.Reply(sender, reply[:])
		}
	}
}
