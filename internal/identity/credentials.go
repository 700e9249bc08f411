package identity

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// LocalUser is an entry from the local credentials file. Local users exist
// so a deployment works without an external identity provider.
type LocalUser struct {
	Username     string
	PasswordHash string
	Roles        []string
}

// Authenticate checks a cleartext password against the stored bcrypt hash.
func (u *LocalUser) Authenticate(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// LoadCredentialsFile parses a local credentials file. Each line is
// "username:bcrypt-hash:role1,role2"; the roles segment may be empty.
// Blank lines and lines starting with # are skipped.
func LoadCredentialsFile(path string) (map[string]*LocalUser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open credentials file: %w", err)
	}
	defer f.Close()

	users := make(map[string]*LocalUser)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// bcrypt hashes contain no colons, so a simple 3-way split is safe.
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("credentials file %s line %d: expected username:hash[:roles]", path, lineNo)
		}

		user := &LocalUser{
			Username:     parts[0],
			PasswordHash: parts[1],
		}
		if len(parts) == 3 && parts[2] != "" {
			for _, role := range strings.Split(parts[2], ",") {
				if role = strings.TrimSpace(role); role != "" {
					user.Roles = append(user.Roles, role)
				}
			}
		}
		if _, exists := users[user.Username]; exists {
			return nil, fmt.Errorf("credentials file %s line %d: duplicate user %q", path, lineNo, user.Username)
		}
		users[user.Username] = user
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return users, nil
}
