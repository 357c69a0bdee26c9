package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilylbgg/cdi-logger/attendance"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []attendance.Record{
		{ID: 1, Slot: "09:00", Grade6: 2, Grade5: 3, Grade4: 1, Grade3: 0, Total: 6, Date: "2024-03-11"},
		{ID: 2, Slot: "09:00", Grade3: 4, Total: 4, Date: "2024-03-12"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"id,slot,grade6,grade5,grade4,grade3,total,date\n"+
			"1,09:00,2,3,1,0,6,2024-03-11\n"+
			"2,09:00,0,0,0,4,4,2024-03-12\n",
		buf.String())
}

func TestWriteCSVEmptyLog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "id,slot,grade6,grade5,grade4,grade3,total,date\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteCSVPropagatesWriteErrors(t *testing.T) {
	err := WriteCSV(failingWriter{}, []attendance.Record{{ID: 1, Slot: "09:00", Date: "2024-03-11"}})
	assert.Error(t, err)
}
