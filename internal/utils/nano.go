package utils

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	NanoidSize        = 32
	nanoidAlphabet    = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func NanoID() string {
	return NanoIDSize(NanoidSize)
}

func NanoIDSize(size int) string {
	if size == 0 {
		size = NanoidSize
	}

	return gonanoid.MustGenerate(nanoidAlphabet, size)
}

// ReferenceID builds a human-readable tracking ID in the form
// PREFIX-YYYYMMDD-XXXX, e.g. FND-20260829-A7B2. Reference IDs appear on
// printed slips and notice boards; primary keys stay nanoids.
func ReferenceID(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), gonanoid.MustGenerate(referenceAlphabet, 4))
}
