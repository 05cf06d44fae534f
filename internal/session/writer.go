package session

import (
	"errors"
	"strings"
	"unicode/utf8"

	"goparley/internal/instrument"
	"goparley/internal/netsec"
	"goparley/internal/wire"
)

// writerWorker consumes the delivery queue in FIFO order.  Control messages
// drive the peer-facing half of the state machine; everything else is display
// text.  Malformed items are reported and skipped; only a transport write
// failure ends the task.
func (s *Session) writerWorker() {
	defer func() { s.doneCh <- struct{}{} }()

	for {
		msg, ok := s.q.Next()
		if !ok {
			s.log.Debugf("delivery queue closed")
			return
		}

		if cmd, args, isControl := wire.ParseControl(msg); isControl {
			if !s.dispatchControl(cmd, args) {
				return
			}
			continue
		}

		if !s.displayLine(msg) {
			return
		}
	}
}

// displayLine writes a display item, suppressing public broadcast noise while
// the session is in a private chat.  It reports whether the task should keep
// running.
func (s *Session) displayLine(msg string) bool {
	if s.state.Get().Phase == PhasePrivate && strings.HasPrefix(msg, wire.BroadcastPrefix) {
		return true
	}
	return s.write(msg) == nil
}

func (s *Session) dispatchControl(cmd, args string) bool {
	switch cmd {
	case wire.CmdChatRequest:
		return s.onChatRequest(args)
	case wire.CmdChatAccepted:
		return s.onChatAccepted(args)
	case wire.CmdChatRejected:
		return s.onChatRejected(args)
	case wire.CmdChatEnded:
		s.onChatEnded(args)
	case wire.CmdChatBusy:
		return s.onChatBusy(args)
	case wire.CmdEncryptedMsg:
		return s.onEncryptedMessage(args)
	default:
		s.log.Errorf("unknown control command %q", cmd)
	}
	return true
}

func (s *Session) onChatRequest(args string) bool {
	sender, key, err := wire.ParseChatRequest(args)
	if err != nil {
		if errors.Is(err, wire.ErrBadKey) {
			s.log.Errorf("chat request with a bad key from args %q", args)
			return s.write("Received an invalid private chat request (bad key).") == nil
		}
		s.log.Errorf("malformed chat request: %q", args)
		return s.write("Received a malformed private chat request.") == nil
	}

	_, ok := s.state.Transition(func(st State) (State, bool) {
		if st.Phase != PhasePublic {
			return st, false
		}
		return State{Phase: PhasePending, Partner: sender, Key: key}, true
	})
	if !ok {
		// Occupied: answer for the user without bothering them.
		_ = s.reg.SendTo(sender, wire.ChatBusy(s.nickname))
		s.log.Infof("auto-busy reply to private chat request from %q", sender)
		return true
	}
	s.log.Infof("private chat request from %q", sender)
	return s.write("User '"+sender+"' wants to start a private chat with you. Type /accept or /reject.") == nil
}

func (s *Session) onChatAccepted(args string) bool {
	sender := args
	_, ok := s.state.Transition(func(st State) (State, bool) {
		if st.Phase != PhaseWaiting || st.Partner != sender {
			return st, false
		}
		return State{Phase: PhasePrivate, Partner: st.Partner, Key: st.Key}, true
	})
	if !ok {
		s.log.Noticef("stale private chat accept from %q", sender)
		return s.write("User '"+sender+"' accepted your request, but you are no longer waiting for a reply.") == nil
	}
	instrument.PrivateChatStarted()
	s.log.Infof("in private chat with %q", sender)
	return s.write("User '"+sender+"' accepted your private chat request. You are now in a private chat. Type 'exit' to leave.") == nil
}

func (s *Session) onChatRejected(args string) bool {
	sender := args
	_, ok := s.state.Transition(func(st State) (State, bool) {
		if st.Phase != PhaseWaiting || st.Partner != sender {
			return st, false
		}
		return State{Phase: PhasePublic}, true
	})
	if !ok {
		s.log.Noticef("stale private chat reject from %q", sender)
		return s.write("User '"+sender+"' rejected your request, but you are no longer waiting for a reply.") == nil
	}
	s.log.Infof("private chat rejected by %q", sender)
	return s.write("User '"+sender+"' rejected your private chat request. You are back in the public chat.") == nil
}

func (s *Session) onChatEnded(args string) {
	sender := args
	_, ok := s.state.Transition(func(st State) (State, bool) {
		if st.Phase != PhasePrivate || st.Partner != sender {
			return st, false
		}
		return State{Phase: PhasePublic}, true
	})
	if !ok {
		s.log.Noticef("stale private chat end from %q", sender)
		return
	}
	s.log.Infof("private chat ended by %q", sender)
	s.notice("User '" + sender + "' left the private chat. You are back in the public chat.")
}

func (s *Session) onChatBusy(args string) bool {
	sender := args
	_, ok := s.state.Transition(func(st State) (State, bool) {
		if st.Phase != PhaseWaiting || st.Partner != sender {
			return st, false
		}
		return State{Phase: PhasePublic}, true
	})
	if !ok {
		s.log.Noticef("stale private chat busy from %q", sender)
		return true
	}
	s.log.Infof("private chat target %q is busy", sender)
	return s.write("User '"+sender+"' is busy or already in another private chat. You are back in the public chat.") == nil
}

func (s *Session) onEncryptedMessage(args string) bool {
	sender, nonce, ciphertext, err := wire.ParseEncryptedMessage(args)
	if err != nil {
		instrument.DecryptFailure()
		switch {
		case errors.Is(err, wire.ErrBadNonce):
			s.log.Errorf("encrypted message with undecodable nonce")
			return s.write("Received an encrypted message with a bad nonce.") == nil
		case errors.Is(err, wire.ErrBadCiphertext):
			s.log.Errorf("encrypted message with undecodable ciphertext")
			return s.write("Received an encrypted message with bad ciphertext.") == nil
		default:
			s.log.Errorf("malformed encrypted message: %q", args)
			return s.write("Received a malformed encrypted message.") == nil
		}
	}

	st := s.state.Get()
	if st.Phase != PhasePrivate || st.Partner != sender {
		s.log.Errorf("encrypted message from %q outside a private chat with them", sender)
		return s.write("Received an encrypted message from '"+sender+"', but you are not in a private chat with them.") == nil
	}

	if len(nonce) != netsec.NonceSize {
		instrument.DecryptFailure()
		s.log.Errorf("encrypted message with a %d-byte nonce", len(nonce))
		return s.write("Received an encrypted message with a bad nonce.") == nil
	}

	plaintext, err := netsec.Open(st.Key, nonce, ciphertext)
	if err != nil {
		instrument.DecryptFailure()
		s.log.Errorf("decryption failed for message from %q: %v", sender, err)
		return s.write("Could not decrypt the message. The key may be wrong.") == nil
	}
	if !utf8.Valid(plaintext) {
		instrument.DecryptFailure()
		s.log.Errorf("decrypted message from %q is not valid UTF-8", sender)
		return s.write("Received a message that is not valid UTF-8.") == nil
	}

	s.log.Infof("received an encrypted message from %q", sender)
	return s.write(wire.Private(sender, string(plaintext))) == nil
}
