// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package rdns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/miekg/dns"
)

// ErrNoNames signals that a reverse lookup went through, but didn't yield any
// PTR names.
var ErrNoNames = errors.New("reverse lookup yields no names")

// Pool is a (size-limited) pool of DNS client connections talking with the
// same DNS resolver address, used for reverse lookups of IP addresses.
type Pool struct {
	dnsclnt *dns.Client
	workers *workerpool.WorkerPool
	mu      sync.Mutex // protects the pool of DNS connections
	free    []*dns.Conn
}

// New returns a pool of the specified size of DNS client connections, with each
// connection using the specified context and talking to the same DNS resolver
// address.
//
// The passed context is used for creating (dialing) the DNS client connections
// only. It is not directly passed to the submitted lookups, so callers pass
// their own context to [Pool.ResolveAddr] and [Pool.LookupAddr].
func New(ctx context.Context, size int, dnsclnt *dns.Client, addr string) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid reverse DNS pool size %d", size)
	}
	free := make([]*dns.Conn, 0, size)
	for i := 0; i < size; i++ {
		conn, err := dnsclnt.DialContext(ctx, addr)
		if err != nil {
			// Immediately release all connections created so far.
			for _, conn := range free {
				conn.Close()
			}
			return nil, err
		}
		free = append(free, conn)
	}
	return &Pool{
		dnsclnt: dnsclnt,
		workers: workerpool.New(size),
		free:    free,
	}, nil
}

// Submit a task to the DNS client connection pool, where it gets enqueued to be
// executed on an available DNS client connection.
func (p *Pool) Submit(task func(conn *dns.Conn)) {
	p.workers.Submit(func() { p.task(task) })
}

// ResolveAddr submits a PTR query for the specified IP address and passes the
// resulting names (without trailing dots) or an error to the callback
// function fn. fn is called exactly once.
//
// Please note that when the passed context is cancelled this will cancel
// scheduled, but not yet started lookups.
func (p *Pool) ResolveAddr(ctx context.Context, addr string, fn func([]string, error)) {
	p.Submit(func(conn *dns.Conn) {
		var names []string
		var err error
		defer func() { fn(names, err) }() // ...ensure triggering the result callback on our way out

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		default:
		}

		var arpa string
		arpa, err = dns.ReverseAddr(addr)
		if err != nil {
			return
		}
		msg := dns.Msg{
			MsgHdr: dns.MsgHdr{Id: dns.Id()},
		}
		msg.SetQuestion(arpa, dns.TypePTR)
		var r *dns.Msg
		r, _, err = p.dnsclnt.ExchangeWithConn(&msg, conn)
		if err != nil {
			return
		}
		if r.Rcode != dns.RcodeSuccess {
			err = fmt.Errorf("reverse lookup of %q failed: %s", addr, dns.RcodeToString[r.Rcode])
			return
		}
		for _, rr := range r.Answer {
			if ptr, ok := rr.(*dns.PTR); ok {
				names = append(names, strings.TrimSuffix(ptr.Ptr, "."))
			}
		}
		if len(names) == 0 {
			err = fmt.Errorf("%w: %s", ErrNoNames, addr)
		}
	})
}

// LookupAddr reverse resolves the specified IP address, blocking until the
// lookup has finished or the context is done. It returns the first PTR name.
func (p *Pool) LookupAddr(ctx context.Context, addr string) (string, error) {
	type result struct {
		names []string
		err   error
	}
	ch := make(chan result, 1) // never block the worker.
	p.ResolveAddr(ctx, addr, func(names []string, err error) {
		ch <- result{names: names, err: err}
	})
	select {
	case res := <-ch:
		if res.err != nil {
			return "", res.err
		}
		return res.names[0], nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// task grabs the next free DNS client and passes it to the specified function.
// After the function returns, the connection is put back into the free list.
func (p *Pool) task(task func(conn *dns.Conn)) {
	// pop off a free DNS client connection,
	// https://ueokande.github.io/go-slice-tricks/,
	p.mu.Lock()
	if len(p.free) == 0 {
		panic("no free DNS client connection available")
	}
	last := len(p.free) - 1
	conn := p.free[last]
	p.free = p.free[:last]
	p.mu.Unlock()
	// run the task with its assigned DNS client connection...
	task(conn)
	// ...and push the DNS client connection back into the free list.
	p.mu.Lock()
	p.free = append(p.free, conn)
	p.mu.Unlock()
}

// StopWait waits for all enqueued lookup tasks to finish, and then shuts down
// the pool.
func (p *Pool) StopWait() {
	p.workers.StopWait()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.free {
		conn.Close()
	}
	p.free = nil
}
