package session

import (
	"errors"
	"fmt"
	"strings"

	"goparley/internal/userdb"
)

const loginAttempts = 3

// gate runs the interactive login dialogue: up to three attempts of
// nickname and password, with opt-in registration for unknown nicknames.
// It returns the authenticated nickname, or an error fatal to the
// connection.
func (s *Session) gate() (string, error) {
	attempts := loginAttempts
	for {
		if attempts == 0 {
			s.notice("Too many failed attempts. Disconnecting.")
			return "", errors.New("login attempts exhausted")
		}

		s.notice("Enter nickname:")
		nickname, err := s.readLine()
		if err != nil {
			return "", fmt.Errorf("client left during login: %w", err)
		}
		s.notice("Enter password:")
		password, err := s.readLine()
		if err != nil {
			return "", fmt.Errorf("client left during login: %w", err)
		}

		if nickname == "" || strings.Contains(nickname, ":") {
			s.notice("Invalid nickname. Try again.")
			attempts--
			s.log.Noticef("rejected invalid nickname %q, %d attempts left", nickname, attempts)
			continue
		}

		switch err := s.users.Authenticate(nickname, password); {
		case err == nil:
			s.notice("Authorization successful!")
			s.log.Noticef("user %q authorized", nickname)
			return nickname, nil

		case errors.Is(err, userdb.ErrNoSuchUser):
			s.notice("User not found. Would you like to register? (yes/no):")
			answer, err := s.readLine()
			if err != nil {
				return "", fmt.Errorf("client left during registration: %w", err)
			}
			if strings.EqualFold(answer, "yes") {
				if err := s.users.Add(nickname, password); err != nil {
					return "", fmt.Errorf("registration failed: %w", err)
				}
				s.notice("Registration successful! You are now logged in.")
				s.log.Noticef("user %q registered", nickname)
				return nickname, nil
			}
			s.notice("Try again.")
			attempts--
			s.log.Noticef("user %q declined registration, %d attempts left", nickname, attempts)

		case errors.Is(err, userdb.ErrWrongPassword):
			s.notice("Wrong password. Try again.")
			attempts--
			s.log.Noticef("user %q entered a wrong password, %d attempts left", nickname, attempts)

		default:
			return "", fmt.Errorf("credential store failure: %w", err)
		}
	}
}
