package util

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const maxIDAttempts = 5

// GenID returns a random v4 UUID for which taken reports false. taken runs
// under the caller's lock, so it must not block.
func GenID(taken func(string) bool) (string, error) {
	for retry := 0; retry < maxIDAttempts; retry++ {
		u, err := uuid.NewRandom()
		if err != nil {
			return "", errors.Wrap(err, "rand fail")
		}
		id := u.String()
		if !taken(id) {
			return id, nil
		}
	}
	return "", errors.Errorf("id collision after %d retries", maxIDAttempts)
}
