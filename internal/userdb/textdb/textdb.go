// Package textdb implements the credential store over a newline-delimited
// "nickname:password" text file.
package textdb

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/op/go-logging.v1"

	"goparley/internal/userdb"
)

type textUserDB struct {
	sync.Mutex

	path  string
	log   *logging.Logger
	users map[string]string
}

// New loads the store at path, creating an empty file if it does not exist.
// A line that does not split into exactly nickname and password is skipped
// with a warning rather than failing the load.
func New(path string, log *logging.Logger) (userdb.UserDB, error) {
	d := &textUserDB{
		path:  path,
		log:   log,
		users: make(map[string]string),
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("textdb: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			d.log.Warningf("skipping malformed record: %q", line)
			continue
		}
		d.users[parts[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("textdb: read %s: %w", path, err)
	}
	d.log.Infof("loaded %d users from %s", len(d.users), path)
	return d, nil
}

func (d *textUserDB) Authenticate(nickname, password string) error {
	d.Lock()
	defer d.Unlock()
	stored, ok := d.users[nickname]
	if !ok {
		return userdb.ErrNoSuchUser
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return userdb.ErrWrongPassword
	}
	return nil
}

func (d *textUserDB) Add(nickname, password string) error {
	if nickname == "" || strings.Contains(nickname, ":") {
		return fmt.Errorf("textdb: invalid nickname: %q", nickname)
	}

	d.Lock()
	defer d.Unlock()
	if _, exists := d.users[nickname]; exists {
		return fmt.Errorf("textdb: user already exists: %q", nickname)
	}

	f, err := os.OpenFile(d.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("textdb: open %s: %w", d.path, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s:%s\n", nickname, password); err != nil {
		return fmt.Errorf("textdb: append %s: %w", d.path, err)
	}

	d.users[nickname] = password
	d.log.Infof("registered user %q", nickname)
	return nil
}

func (d *textUserDB) Close() {}
