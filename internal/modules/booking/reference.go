package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

const (
	referencePrefix   = "BK_"
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceSuffix   = 6
)

var referencePattern = regexp.MustCompile(`^BK_(\d{8})_([A-Z0-9]{6})$`)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }

// ReferenceGenerator produces human-facing booking references.
type ReferenceGenerator interface {
	NewReference(at time.Time) (string, error)
}

type randomReferences struct{}

// RandomReferences generates BK_<YYYYMMDD>_<6 uppercase alnum> using crypto/rand.
func RandomReferences() ReferenceGenerator { return randomReferences{} }

func (randomReferences) NewReference(at time.Time) (string, error) {
	buf := make([]byte, referenceSuffix)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate booking reference: %w", err)
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return referencePrefix + at.UTC().Format("20060102") + "_" + string(buf), nil
}

// ParseReference validates a reference and returns the calendar day encoded in it.
func ParseReference(ref string) (time.Time, error) {
	m := referencePattern.FindStringSubmatch(ref)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: malformed booking reference %q", ErrValidation, ref)
	}
	day, err := time.Parse("20060102", m[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed booking reference date %q", ErrValidation, ref)
	}
	return day, nil
}
