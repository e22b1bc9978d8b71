// Package token generates the short random identifiers used across the API:
// study handles, one-time passwords and collision-safe object filenames.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
	"time"
)

const studyIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenStudyID returns an 8-character uppercase alphanumeric study handle.
func GenStudyID() string {
	return randString(studyIDAlphabet, 8)
}

// GenPassword returns a random lowercase password of 8 to 17 characters,
// used for staff invitations.
func GenPassword() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(10))
	return randString("abcdefghijklmnopqrstuvwxyz", 8+int(n.Int64()))
}

// GenFilename derives a stored filename from the uploaded one: the original
// basename plus a date stamp and epoch-seconds suffix so two uploads of the
// same file never collide.
func GenFilename(original string) string {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(filepath.Base(original), ext)
	now := time.Now()
	return fmt.Sprintf("%s_%s_%d%s", base, now.Format("2006-01-02"), now.Unix(), ext)
}

func randString(alphabet string, length int) string {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken
			panic(err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b)
}
