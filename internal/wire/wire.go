// Package wire defines the line protocol shared by every session: the
// SYSTEM-prefixed control messages exchanged between sessions through the
// registry, and the display prefixes used for rendered chat lines.
package wire

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// SystemPrefix marks a queued line as a control message rather than display
// text.  It is never produced by a human.
const SystemPrefix = "SYSTEM:"

// Control message commands.
const (
	CmdChatRequest  = "PRIVATE_CHAT_REQUEST"
	CmdChatAccepted = "PRIVATE_CHAT_ACCEPTED"
	CmdChatRejected = "PRIVATE_CHAT_REJECTED"
	CmdChatEnded    = "PRIVATE_CHAT_ENDED"
	CmdChatBusy     = "PRIVATE_CHAT_BUSY"
	CmdEncryptedMsg = "ENCRYPTED_PRIVATE_MSG"
)

// Display prefixes for rendered lines.  The broadcast prefix doubles as the
// marker the writer task uses to suppress public noise during a private chat.
const (
	BroadcastPrefix = "[all] "
	DirectPrefix    = "[direct] "
	PrivatePrefix   = "[private] "
)

// KeyLen is the length of a private chat session key in bytes.
const KeyLen = 32

var (
	// ErrMalformed is returned for a control message with the wrong number
	// of fields.
	ErrMalformed = errors.New("wire: malformed control message")

	// ErrBadKey is returned when a chat request carries a key that is not
	// valid hex or not KeyLen bytes.
	ErrBadKey = errors.New("wire: bad session key")

	// ErrBadNonce is returned when an encrypted message carries a nonce
	// that is not valid hex.
	ErrBadNonce = errors.New("wire: bad nonce")

	// ErrBadCiphertext is returned when an encrypted message carries a
	// ciphertext that is not valid hex.
	ErrBadCiphertext = errors.New("wire: bad ciphertext")
)

// ChatRequest builds a private chat request control message carrying the
// initiator's nickname and the freshly generated session key.
func ChatRequest(nick string, key []byte) string {
	return fmt.Sprintf("%s%s:%s:%s", SystemPrefix, CmdChatRequest, nick, hex.EncodeToString(key))
}

// ChatAccepted builds the accept notification sent back to the initiator.
func ChatAccepted(nick string) string {
	return fmt.Sprintf("%s%s:%s", SystemPrefix, CmdChatAccepted, nick)
}

// ChatRejected builds the reject notification sent back to the initiator.
func ChatRejected(nick string) string {
	return fmt.Sprintf("%s%s:%s", SystemPrefix, CmdChatRejected, nick)
}

// ChatEnded builds the notification that nick has left the private chat.
func ChatEnded(nick string) string {
	return fmt.Sprintf("%s%s:%s", SystemPrefix, CmdChatEnded, nick)
}

// ChatBusy builds the automatic busy reply sent when a request arrives while
// the recipient is not in the public chat.
func ChatBusy(nick string) string {
	return fmt.Sprintf("%s%s:%s", SystemPrefix, CmdChatBusy, nick)
}

// EncryptedMessage builds an encrypted private message control message.
func EncryptedMessage(nick string, nonce, ciphertext []byte) string {
	return fmt.Sprintf("%s%s:%s:%s:%s", SystemPrefix, CmdEncryptedMsg, nick,
		hex.EncodeToString(nonce), hex.EncodeToString(ciphertext))
}

// Broadcast renders a public chat line.
func Broadcast(nick, text string) string {
	return fmt.Sprintf("%s%s: %s", BroadcastPrefix, nick, text)
}

// Direct renders a legacy unencrypted direct message line.
func Direct(nick, text string) string {
	return fmt.Sprintf("%s%s: %s", DirectPrefix, nick, text)
}

// Private renders a decrypted private message line.
func Private(nick, text string) string {
	return fmt.Sprintf("%s%s: %s", PrivatePrefix, nick, text)
}

// ParseControl splits a queued line into a control command and its argument
// string.  ok is false if the line is not a control message at all.
func ParseControl(line string) (cmd, args string, ok bool) {
	if !strings.HasPrefix(line, SystemPrefix) {
		return "", "", false
	}
	rest := line[len(SystemPrefix):]
	if rest == "" {
		return "", "", false
	}
	parts := strings.SplitN(rest, ":", 2)
	cmd = parts[0]
	if len(parts) == 2 {
		args = parts[1]
	}
	return cmd, args, true
}

// ParseChatRequest parses the arguments of a PRIVATE_CHAT_REQUEST into the
// sender nickname and the proposed session key.
func ParseChatRequest(args string) (nick string, key []byte, err error) {
	parts := strings.SplitN(args, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", nil, ErrMalformed
	}
	key, err = hex.DecodeString(parts[1])
	if err != nil || len(key) != KeyLen {
		return "", nil, ErrBadKey
	}
	return parts[0], key, nil
}

// ParseEncryptedMessage parses the arguments of an ENCRYPTED_PRIVATE_MSG into
// the sender nickname, nonce and ciphertext.  The nonce length is not checked
// here; that is the cipher's contract.
func ParseEncryptedMessage(args string) (nick string, nonce, ciphertext []byte, err error) {
	parts := strings.SplitN(args, ":", 3)
	if len(parts) != 3 || parts[0] == "" {
		return "", nil, nil, ErrMalformed
	}
	nonce, err = hex.DecodeString(parts[1])
	if err != nil {
		return "", nil, nil, ErrBadNonce
	}
	ciphertext, err = hex.DecodeString(parts[2])
	if err != nil {
		return "", nil, nil, ErrBadCiphertext
	}
	return parts[0], nonce, ciphertext, nil
}
