package session

import (
	"errors"
	"io"
	"strings"

	"goparley/internal/instrument"
	"goparley/internal/netsec"
	"goparley/internal/registry"
	"goparley/internal/wire"
)

const helpText = "Available commands:\n" +
	"\t/help - show this message\n" +
	"\t/list - show connected users\n" +
	"\t/pm <nick> - offer a private chat to <nick>\n" +
	"\t/accept - accept a pending private chat request\n" +
	"\t/reject - reject a pending private chat request\n" +
	"\t'exit' - (in a private chat) leave the private chat\n" +
	"\tany other text - send a message to the public chat"

// readerWorker consumes inbound lines from the local user and interprets
// them against the current state.  A transport error ends the task and thus
// the session; everything else is reported to the user and processing
// continues.
func (s *Session) readerWorker() {
	defer func() { s.doneCh <- struct{}{} }()

	for {
		line, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Infof("client disconnected")
			} else {
				s.log.Errorf("read failed: %v", err)
			}
			return
		}
		if line == "" {
			continue
		}
		s.handleLine(line)
	}
}

func (s *Session) handleLine(line string) {
	if strings.EqualFold(line, "exit") {
		if s.leavePrivateChat() {
			return
		}
		// Not in a private chat: falls through as plain text.
	}

	if strings.HasPrefix(line, "/") {
		command, args, _ := strings.Cut(line[1:], " ")
		s.handleCommand(strings.ToLower(command), strings.TrimSpace(args))
		return
	}

	s.handleText(line)
}

// leavePrivateChat handles the exit token.  It reports whether the line was
// consumed, which it is only when the session was actually in a private chat.
func (s *Session) leavePrivateChat() bool {
	old, ok := s.state.Transition(func(st State) (State, bool) {
		if st.Phase != PhasePrivate {
			return st, false
		}
		return State{Phase: PhasePublic}, true
	})
	if !ok {
		return false
	}
	_ = s.reg.SendTo(old.Partner, wire.ChatEnded(s.nickname))
	s.notice("You left the private chat. Back in the public chat.")
	s.log.Infof("left private chat with %q", old.Partner)
	return true
}

func (s *Session) handleCommand(command, args string) {
	switch command {
	case "help":
		s.notice(helpText)
		s.log.Debugf("requested /help")
	case "list":
		s.noticeOnlineList()
		s.log.Debugf("requested /list")
	case "pm":
		s.commandPM(args)
	case "accept":
		s.commandAccept()
	case "reject":
		s.commandReject()
	default:
		s.notice("Unknown command: '" + command + "'. Type /help.")
		s.log.Noticef("unknown command %q", command)
	}
}

func (s *Session) commandPM(target string) {
	if target == "" {
		s.notice("Usage: /pm <nick>")
		return
	}
	if target == s.nickname {
		s.notice("You cannot start a private chat with yourself.")
		s.log.Noticef("tried to /pm self")
		return
	}

	key, err := netsec.NewChatKey()
	if err != nil {
		s.notice("Could not start a private chat. Try again.")
		s.log.Errorf("key generation failed: %v", err)
		return
	}

	old, ok := s.state.Transition(func(st State) (State, bool) {
		if st.Phase != PhasePublic {
			return st, false
		}
		return State{Phase: PhaseWaiting, Partner: target, Key: key}, true
	})
	if !ok {
		s.notice("You cannot start a new private chat while not in the public chat.")
		s.log.Noticef("tried to /pm while in state: %v", old.Phase)
		return
	}

	// Note: a failed delivery leaves the session waiting for a reply that
	// can never come.  /accept and /reject revert on failure; this path
	// deliberately does not.  See DESIGN.md.
	if err := s.reg.SendTo(target, wire.ChatRequest(s.nickname, key)); err != nil {
		s.notice("User '" + target + "' not found or offline.")
		s.log.Noticef("private chat request to offline user %q", target)
		return
	}
	s.notice("Private chat request sent to '" + target + "'. Waiting for a reply...")
	s.log.Infof("requested private chat with %q", target)
}

func (s *Session) commandAccept() {
	old, ok := s.state.Transition(func(st State) (State, bool) {
		if st.Phase != PhasePending {
			return st, false
		}
		return State{Phase: PhasePrivate, Partner: st.Partner, Key: st.Key}, true
	})
	if !ok {
		s.notice("No pending private chat request to accept.")
		s.log.Noticef("tried to /accept without a pending request")
		return
	}

	partner := old.Partner
	if err := s.reg.SendTo(partner, wire.ChatAccepted(s.nickname)); err != nil {
		s.state.Set(State{Phase: PhasePublic})
		s.notice("Could not notify '" + partner + "'; they may have disconnected. You are back in the public chat.")
		s.log.Noticef("accepted private chat from %q but could not notify them", partner)
		return
	}
	instrument.PrivateChatStarted()
	s.notice("You are now in a private chat with '" + partner + "'. Type 'exit' to return to the public chat.")
	s.log.Infof("in private chat with %q", partner)
}

func (s *Session) commandReject() {
	old, ok := s.state.Transition(func(st State) (State, bool) {
		if st.Phase != PhasePending {
			return st, false
		}
		return State{Phase: PhasePublic}, true
	})
	if !ok {
		s.notice("No pending private chat request to reject.")
		s.log.Noticef("tried to /reject without a pending request")
		return
	}

	partner := old.Partner
	if err := s.reg.SendTo(partner, wire.ChatRejected(s.nickname)); err != nil {
		s.notice("Could not notify '" + partner + "' of the rejection; they may have disconnected.")
		s.log.Noticef("rejected private chat from %q but could not notify them", partner)
		return
	}
	s.notice("You rejected the private chat request from '" + partner + "'.")
	s.log.Infof("rejected private chat from %q", partner)
}

// handleText routes a plain chat line according to the current state.
func (s *Session) handleText(line string) {
	st := s.state.Get()
	switch st.Phase {
	case PhasePrivate:
		s.sendPrivate(st, line)

	case PhasePublic:
		if idx := strings.Index(line, ":"); idx >= 0 {
			s.sendDirect(strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]))
		} else {
			s.reg.BroadcastExcept(s.nickname, wire.Broadcast(s.nickname, line))
			s.log.Debugf("broadcast a message")
		}

	case PhaseWaiting:
		s.notice("You are waiting for a reply from '" + st.Partner + "'. Resolve the pending request first.")
		s.log.Noticef("tried to chat while waiting for a private chat reply")

	case PhasePending:
		s.notice("You have a private chat request from '" + st.Partner + "'. Type /accept or /reject.")
		s.log.Noticef("tried to chat with a pending private chat request")
	}
}

// sendPrivate encrypts a line and routes it to the private chat partner.
func (s *Session) sendPrivate(st State, line string) {
	nonce, ciphertext, err := netsec.Seal(st.Key, []byte(line))
	if err != nil {
		s.notice("Could not encrypt the message. Try again.")
		s.log.Errorf("encryption failed: %v", err)
		return
	}

	if err := s.reg.SendTo(st.Partner, wire.EncryptedMessage(s.nickname, nonce, ciphertext)); err != nil {
		s.state.Set(State{Phase: PhasePublic})
		s.notice("Could not deliver to '" + st.Partner + "'; they may have disconnected. You are back in the public chat.")
		s.log.Noticef("private chat partner %q is gone", st.Partner)
		return
	}
	instrument.LineRouted()
	s.log.Debugf("sent an encrypted message to %q", st.Partner)
}

// sendDirect routes a legacy unencrypted "<recipient>: <text>" message.
func (s *Session) sendDirect(recipient, text string) {
	if recipient == s.nickname {
		s.notice("You cannot send a direct message to yourself.")
		s.log.Noticef("tried to message self")
		return
	}
	err := s.reg.SendTo(recipient, wire.Direct(s.nickname, text))
	if errors.Is(err, registry.ErrNotFound) {
		s.notice("User '" + recipient + "' not found or offline.")
		s.log.Noticef("direct message to offline user %q", recipient)
		return
	}
	instrument.LineRouted()
	s.log.Debugf("sent a direct message to %q", recipient)
}
