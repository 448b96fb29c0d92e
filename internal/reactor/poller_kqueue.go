//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// kqueuePoller implements poller over kqueue for BSD-family platforms,
// including Darwin.
type kqueuePoller struct {
	kq        int
	fdToToken map[int]int
}

func newPoller() (poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueuePoller{kq: kq, fdToToken: make(map[int]int)}, nil
}

func (p *kqueuePoller) Add(fd, token int) error {
	p.fdToToken[fd] = token
	var ev unix.Kevent_t
	unix.SetKevent(&ev, fd, unix.EVFILT_READ, unix.EV_ADD)
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{ev}, nil, nil)
	return err
}

func (p *kqueuePoller) Remove(fd int) error {
	delete(p.fdToToken, fd)
	var ev unix.Kevent_t
	unix.SetKevent(&ev, fd, unix.EVFILT_READ, unix.EV_DELETE)
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{ev}, nil, nil)
	return err
}

func (p *kqueuePoller) Wait(events []event, timeoutMillis int) (int, error) {
	raw := make([]unix.Kevent_t, len(events))
	ts := unix.NsecToTimespec(int64(timeoutMillis) * int64(time.Millisecond))
	n, err := unix.Kevent(p.kq, nil, raw, &ts)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		events[i] = event{token: p.fdToToken[int(raw[i].Ident)]}
	}
	return n, nil
}

func (p *kqueuePoller) Close() error {
	return unix.Close(p.kq)
}

// rawNonblockingSocket creates a non-blocking IPv4 TCP socket. Neither
// unix.SOCK_NONBLOCK nor unix.Accept4 exist on darwin/netbsd/openbsd (only
// linux/freebsd/dragonfly/illumos define them), so every platform this
// poller targets gets its non-blocking flag set in a second call instead.
func rawNonblockingSocket() (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// acceptConn accepts one pending connection off fd's backlog, then marks
// it non-blocking — the portable two-syscall equivalent of Accept4 for
// platforms that don't define it.
func acceptConn(fd int) (int, error) {
	nfd, _, err := unix.Accept(fd)
	if err != nil {
		return -1, err
	}
	if err := unix.SetNonblock(nfd, true); err != nil {
		unix.Close(nfd)
		return -1, err
	}
	return nfd, nil
}
