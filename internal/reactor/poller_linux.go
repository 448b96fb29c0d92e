//go:build linux

package reactor

import "golang.org/x/sys/unix"

// epollPoller implements poller over epoll, level-triggered: a listener or
// connection stays "ready" across Wait calls until fully drained, which is
// what lets acceptAll's "loop until EAGAIN" pattern work without losing
// events.
type epollPoller struct {
	epfd      int
	fdToToken map[int]int
	raw       []unix.EpollEvent
}

func newPoller() (poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{
		epfd:      epfd,
		fdToToken: make(map[int]int),
		raw:       make([]unix.EpollEvent, 128),
	}, nil
}

func (p *epollPoller) Add(fd, token int) error {
	p.fdToToken[fd] = token
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollPoller) Remove(fd int) error {
	delete(p.fdToToken, fd)
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Wait(events []event, timeoutMillis int) (int, error) {
	if cap(p.raw) < len(events) {
		p.raw = make([]unix.EpollEvent, len(events))
	}
	n, err := unix.EpollWait(p.epfd, p.raw[:len(events)], timeoutMillis)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		events[i] = event{token: p.fdToToken[int(p.raw[i].Fd)]}
	}
	return n, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}

// rawNonblockingSocket creates a non-blocking IPv4 TCP socket. Linux (and
// its SOCK_NONBLOCK-capable relatives) can set the flag at creation time.
func rawNonblockingSocket() (int, error) {
	return unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
}

// acceptConn accepts one pending connection off fd's backlog as a
// non-blocking socket, using Accept4 + SOCK_NONBLOCK in a single syscall.
func acceptConn(fd int) (int, error) {
	nfd, _, err := unix.Accept4(fd, unix.SOCK_NONBLOCK)
	return nfd, err
}
