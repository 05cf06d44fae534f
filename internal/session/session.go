// Package session implements the per-connection engine: the login gate, the
// session state machine, and the two concurrent tasks that serve one
// authenticated user.
package session

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"

	"gopkg.in/op/go-logging.v1"

	"goparley/internal/instrument"
	"goparley/internal/log"
	"goparley/internal/queue"
	"goparley/internal/registry"
	"goparley/internal/userdb"
	"goparley/internal/wire"
	"goparley/internal/worker"
)

// Session is the server-side state of one connection: an authenticated
// nickname, a registry entry, and a reader and a writer task joined by the
// delivery queue.
type Session struct {
	worker.Worker

	conn    net.Conn
	r       *bufio.Reader
	writeMu sync.Mutex

	backend *log.Backend
	log     *logging.Logger

	reg   *registry.Registry
	users userdb.UserDB

	nickname string
	q        *queue.Queue
	state    stateCell

	doneCh chan struct{}
}

// New wraps an accepted connection.  Nothing is registered until the login
// gate succeeds.
func New(conn net.Conn, reg *registry.Registry, users userdb.UserDB, backend *log.Backend) *Session {
	return &Session{
		conn:    conn,
		r:       bufio.NewReader(conn),
		backend: backend,
		log:     backend.GetLogger("session:" + conn.RemoteAddr().String()),
		reg:     reg,
		users:   users,
		doneCh:  make(chan struct{}, 2),
	}
}

// write serializes one line to the connection.  The transport sink is shared
// by both tasks; the mutex keeps their lines from interleaving.
func (s *Session) write(line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.Write([]byte(line + "\n"))
	return err
}

// notice writes an informational line to the local user, logging delivery
// failures instead of propagating them.  Transport failures surface on the
// task's next read or write anyway.
func (s *Session) notice(line string) {
	if err := s.write(line); err != nil {
		s.log.Debugf("notice dropped: %v", err)
	}
}

// readLine reads and trims the next inbound line.
func (s *Session) readLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Run drives the session to completion: login gate, registration, the two
// tasks, and teardown.  It blocks until the session is fully torn down.
func (s *Session) Run() {
	defer s.conn.Close()

	if err := s.write("Welcome to the chat! Type /help for the list of commands."); err != nil {
		return
	}

	nickname, err := s.gate()
	if err != nil {
		s.log.Noticef("login failed: %v", err)
		return
	}
	s.nickname = nickname
	s.log = s.backend.GetLogger("session:" + nickname)

	s.noticeOnlineList()

	q := queue.New()
	if err := s.reg.Register(nickname, q); err != nil {
		s.notice("A user with that nickname is already online. Disconnecting.")
		s.log.Errorf("duplicate nickname %q, disconnecting", nickname)
		return
	}
	s.q = q
	instrument.SessionStarted()
	s.log.Noticef("user %q joined", nickname)
	s.reg.BroadcastExcept(nickname, fmt.Sprintf("User '%s' joined the chat", nickname))

	s.Go(s.readerWorker)
	s.Go(s.writerWorker)

	// Whichever task finishes first ends the session.
	<-s.doneCh
	s.teardown()
	s.Wait()
}

func (s *Session) teardown() {
	final := s.state.Get()
	s.reg.Unregister(s.nickname)
	s.conn.Close()

	if final.Phase == PhasePrivate {
		if err := s.reg.SendTo(final.Partner, wire.ChatEnded(s.nickname)); err == nil {
			s.log.Infof("notified %q of private chat end", final.Partner)
		}
	}
	s.reg.BroadcastExcept(s.nickname, fmt.Sprintf("User '%s' left the chat", s.nickname))
	instrument.SessionEnded()
	s.log.Noticef("user %q disconnected, %d online", s.nickname, s.reg.Count())
}

func (s *Session) noticeOnlineList() {
	names := s.reg.ListExcept(s.nickname)
	if len(names) == 0 {
		s.notice("Nobody else is online.")
	} else {
		s.notice("Online now: " + strings.Join(names, ", "))
	}
}
