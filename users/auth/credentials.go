package auth

import (
	"crypto/subtle"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credentials holds the operator accounts read from the users file. A
// username may appear on several rows; any of its passwords is accepted.
type Credentials struct {
	passwords map[string][]string
	hashed    bool
}

// LoadCredentials reads a CSV file with a header row containing "username"
// and "password" columns. A missing file yields an empty set that rejects
// every login. When hashed is true the password column holds bcrypt hashes.
func LoadCredentials(path string, hashed bool) (*Credentials, error) {
	creds := &Credentials{passwords: map[string][]string{}, hashed: hashed}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return creds, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open users file: %w", err)
	}
	defer f.Close()

	if err := creds.read(f); err != nil {
		return nil, fmt.Errorf("failed to read users file %s: %w", path, err)
	}
	return creds, nil
}

func (c *Credentials) read(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}

	userCol, passCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")) {
		case "username":
			userCol = i
		case "password":
			passCol = i
		}
	}
	if userCol < 0 || passCol < 0 {
		return errors.New("header must contain username and password columns")
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if userCol >= len(row) || passCol >= len(row) {
			continue
		}
		c.passwords[row[userCol]] = append(c.passwords[row[userCol]], row[passCol])
	}
}

// Len returns the number of distinct usernames.
func (c *Credentials) Len() int {
	return len(c.passwords)
}

// Authenticate reports whether the pair matches an account exactly.
func (c *Credentials) Authenticate(username, password string) bool {
	stored, ok := c.passwords[username]
	if !ok {
		return false
	}
	for _, candidate := range stored {
		if c.hashed {
			if bcrypt.CompareHashAndPassword([]byte(candidate), []byte(password)) == nil {
				return true
			}
			continue
		}
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(password)) == 1 {
			return true
		}
	}
	return false
}

// HashPassword returns the bcrypt hash to store in a users file read with
// hashed passwords enabled.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
