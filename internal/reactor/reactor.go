package reactor

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"
	"golang.org/x/sys/unix"

	"github.com/bomanviktor/localhost/internal/config"
	"github.com/bomanviktor/localhost/internal/conn"
	"github.com/bomanviktor/localhost/internal/httpx"
	"github.com/bomanviktor/localhost/internal/weblog"
)

const (
	readBufSize       = 4096
	pollTimeoutMillis = 1000
	idleThreshold     = 1 * time.Second
	lingerSeconds     = 1
)

// connState is the per-connection lifecycle: Accepted (a connEntry always
// starts Readable — it is registered READABLE the moment it is accepted),
// Readable, Done.
type connState int

const (
	stateReadable connState = iota
	stateDone
)

type listenerEntry struct {
	fd     int
	token  int
	config *config.ServerConfig
}

type connEntry struct {
	fd           int
	token        int
	config       *config.ServerConfig
	lastActivity time.Time
	raw          []byte
	state        connState
}

// Reactor owns the poll primitive, every listener, and every active
// connection. Nothing here is locked: the connection map belongs
// exclusively to the single goroutine running Run.
type Reactor struct {
	poller      poller
	listeners   []*listenerEntry
	connections map[int]*connEntry
	nextToken   int
	logger      *weblog.Logger
	closing     bool
}

// New builds a Reactor with one listening socket per (host, port) pair
// across every server in servers.
func New(servers []*config.Server, logger *weblog.Logger) (*Reactor, error) {
	if logger == nil {
		logger = weblog.Servers
	}

	p, err := newPoller()
	if err != nil {
		return nil, err
	}

	r := &Reactor{
		poller:      p,
		connections: make(map[int]*connEntry),
		logger:      logger,
	}

	for _, srv := range servers {
		for _, port := range srv.Config.Ports {
			fd, err := listenTCP(srv.Config.Host, port)
			if err != nil {
				return nil, fmt.Errorf("reactor: listen %s:%d: %w", srv.Config.Host, port, err)
			}
			token := r.nextToken
			r.nextToken++
			if err := r.poller.Add(fd, token); err != nil {
				return nil, fmt.Errorf("reactor: register listener: %w", err)
			}
			r.listeners = append(r.listeners, &listenerEntry{fd: fd, token: token, config: srv.Config})
		}
	}

	return r, nil
}

// listenTCP creates a non-blocking, listening IPv4 TCP socket via raw
// syscalls. The reactor must own every fd it hands to the poller outright;
// going through net.Listener would mean fighting the Go runtime's own
// netpoller over the same descriptor. The non-blocking socket itself comes
// from rawNonblockingSocket, a per-platform primitive (poller_linux.go /
// poller_kqueue.go) since unix.SOCK_NONBLOCK isn't defined on every kqueue
// platform this reactor targets.
func listenTCP(host string, port int) (int, error) {
	fd, err := rawNonblockingSocket()
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, err
	}

	addr, err := resolveIPv4(host)
	if err != nil {
		unix.Close(fd)
		return -1, err
	}

	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port, Addr: addr}); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func resolveIPv4(host string) ([4]byte, error) {
	var out [4]byte
	if host == "" || host == "0.0.0.0" {
		return out, nil
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return out, fmt.Errorf("cannot resolve host %q", host)
		}
		ip = ips[0]
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return out, fmt.Errorf("host %q is not IPv4", host)
	}
	copy(out[:], ip4)
	return out, nil
}

// Run blocks, running the poll/handle loop until Stop is called or the
// poller returns a non-recoverable error.
func (r *Reactor) Run() error {
	events := make([]event, 128)
	for !r.closing {
		n, err := r.poller.Wait(events, pollTimeoutMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}

		r.sweepIdle()

		for i := 0; i < n; i++ {
			token := events[i].token
			if l := r.listenerByToken(token); l != nil {
				r.acceptAll(l)
				continue
			}
			r.handleReadable(token)
		}
	}
	return nil
}

// Stop ends Run's loop after its current iteration and closes every open
// connection and listener.
func (r *Reactor) Stop() {
	r.closing = true
	for token := range r.connections {
		r.closeConn(token)
	}
	for _, l := range r.listeners {
		_ = r.poller.Remove(l.fd)
		unix.Close(l.fd)
	}
	_ = r.poller.Close()
}

// ListenerPort returns the port the listener at index is actually bound to
// — useful when Ports contains 0 and the kernel assigned an ephemeral one.
func (r *Reactor) ListenerPort(index int) (int, error) {
	if index < 0 || index >= len(r.listeners) {
		return 0, fmt.Errorf("reactor: listener index %d out of range", index)
	}
	sa, err := unix.Getsockname(r.listeners[index].fd)
	if err != nil {
		return 0, err
	}
	in4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, fmt.Errorf("reactor: unexpected sockaddr type %T", sa)
	}
	return in4.Port, nil
}

func (r *Reactor) listenerByToken(token int) *listenerEntry {
	for _, l := range r.listeners {
		if l.token == token {
			return l
		}
	}
	return nil
}

// acceptAll drains a listener's backlog in one wakeup. acceptConn (poller_linux.go / poller_kqueue.go) is the per-platform
// non-blocking accept primitive: Accept4 with SOCK_NONBLOCK on Linux,
// Accept + SetNonblock on kqueue platforms that lack both.
func (r *Reactor) acceptAll(l *listenerEntry) {
	for {
		fd, err := acceptConn(l.fd)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			r.logger.Errorf("reactor: accept: %v", err)
			return
		}

		setLinger(fd, lingerSeconds)

		token := r.nextToken
		r.nextToken++
		if err := r.poller.Add(fd, token); err != nil {
			r.logger.Errorf("reactor: register connection: %v", err)
			unix.Close(fd)
			continue
		}

		r.connections[token] = &connEntry{
			fd:           fd,
			token:        token,
			config:       l.config,
			lastActivity: time.Now(),
			state:        stateReadable,
		}
	}
}

// setLinger sets a short SO_LINGER so the final response is fully
// transmitted before close, rather than discarded by the OS default.
// Darwin is where the default bites; it is harmless and applied
// unconditionally.
func setLinger(fd int, seconds int) {
	_ = unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{Onoff: 1, Linger: int32(seconds)})
}

// handleReadable drains whatever is currently available on a connection's
// fd, and once a complete request has accumulated, dispatches it through
// internal/conn and writes the response.
func (r *Reactor) handleReadable(token int) {
	c, ok := r.connections[token]
	if !ok {
		return
	}
	c.lastActivity = time.Now()

	scratch := bytebufferpool.Get()
	defer bytebufferpool.Put(scratch)
	if cap(scratch.B) < readBufSize {
		scratch.B = make([]byte, readBufSize)
	}
	buf := scratch.B[:readBufSize]
	for {
		n, err := unix.Read(c.fd, buf)
		if n > 0 {
			c.raw = append(c.raw, buf[:n]...)
		}
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				break
			}
			r.closeConn(token)
			return
		}
		if n == 0 {
			r.closeConn(token)
			return
		}
		if n < len(buf) {
			break
		}
	}

	head, body, complete := splitComplete(c.raw, c.config.BodySizeLimit)
	if !complete {
		return // stays registered; revisit on next readiness
	}

	resp := conn.Handle(head, body, c.config)
	if err := writeAll(c.fd, resp.Serialize()); err != nil {
		r.logger.Errorf("reactor: write: %v", err)
	}
	r.closeConn(token)
}

// writeAll retries partial writes until the full response is sent.
func writeAll(fd int, data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(fd, data)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				continue
			}
			return err
		}
		if n == 0 {
			return fmt.Errorf("reactor: write returned 0")
		}
		data = data[n:]
	}
	return nil
}

func (r *Reactor) closeConn(token int) {
	c, ok := r.connections[token]
	if !ok {
		return
	}
	c.state = stateDone
	_ = r.poller.Remove(c.fd)
	unix.Close(c.fd)
	delete(r.connections, token)
}

// sweepIdle deregisters and closes connections that have sat inactive
// past idleThreshold.
func (r *Reactor) sweepIdle() {
	now := time.Now()
	for token, c := range r.connections {
		if now.Sub(c.lastActivity) > idleThreshold {
			r.closeConn(token)
		}
	}
}

// splitComplete reports whether raw holds a full HTTP request: a head
// terminated by CRLFCRLF, plus a body whose length satisfies
// Content-Length, or whose chunked framing has reached its terminal chunk.
func splitComplete(raw []byte, limit int) (string, []byte, bool) {
	if !bytes.Contains(raw, []byte("\r\n\r\n")) {
		return "", nil, false
	}

	head, rest := httpx.SplitHeadBody(raw)

	transferEncoding := ""
	contentLength := -1
	for _, line := range httpx.HeaderLines(head) {
		key, value, ok := httpx.FormatHeaderLine(line)
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "transfer-encoding":
			transferEncoding = strings.ToLower(value)
		case "content-length":
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				contentLength = n
			}
		}
	}

	if strings.Contains(transferEncoding, "chunked") {
		return head, rest, bytes.HasSuffix(rest, []byte("0\r\n\r\n"))
	}
	if contentLength > 0 {
		return head, rest, len(rest) >= contentLength
	}
	return head, rest, true
}
