package utils

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructTagValues(t *testing.T) {
	type sample struct {
		ID      string `db:"id"`
		Name    string `db:"name"`
		Skipped string `db:"-"`
		NoTag   string
		private string `db:"private"`
	}

	_ = sample{private: ""}

	columns := StructTagValues(sample{})
	assert.Equal(t, []string{"id", "name"}, columns)

	// Pointer input behaves the same.
	assert.Equal(t, columns, StructTagValues(&sample{}))
}

func TestStructToMap(t *testing.T) {
	type sample struct {
		ID      string  `db:"id"`
		Count   int     `db:"count"`
		Skipped string  `db:"-"`
		Ptr     *string `db:"ptr"`
	}

	m := StructToMap(sample{ID: "abc", Count: 3})

	require.Len(t, m, 3)
	assert.Equal(t, "abc", m["id"])
	assert.Equal(t, 3, m["count"])
	assert.Nil(t, m["ptr"])
}

func TestReferenceID(t *testing.T) {
	at := time.Date(2026, 2, 21, 10, 30, 0, 0, time.UTC)

	id := ReferenceID("FND", at)

	assert.Regexp(t, regexp.MustCompile(`^FND-20260221-[A-Z0-9]{4}$`), id)

	// Two IDs generated for the same instant must still differ.
	assert.NotEqual(t, id, ReferenceID("FND", at))
}

func TestNanoIDSize(t *testing.T) {
	assert.Len(t, NanoID(), NanoidSize)
	assert.Len(t, NanoIDSize(16), 16)
	assert.Len(t, NanoIDSize(0), NanoidSize)
}

func TestErrorWrapOrNil(t *testing.T) {
	assert.NoError(t, ErrorWrapOrNil(nil, "context"))

	base := errors.New("boom")
	wrapped := ErrorWrapOrNil(base, "context")
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "context: boom", wrapped.Error())

	assert.Equal(t, base, ErrorWrapOrNil(base, ""))
}
