package cluster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTable_RoundTrip(t *testing.T) {
	in := writeTemp(t, "in.csv", "timestamp,message\n2024-06-01,hello\n2024-06-02,\"a,b\"\n")

	table, err := ReadTable(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"timestamp", "message"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "a,b", table.Rows[1][1])

	require.NoError(t, table.AppendColumn("cluster", []string{"0", "1"}))

	out := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, table.Write(out))

	back, err := ReadTable(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"timestamp", "message", "cluster"}, back.Header)
	assert.Equal(t, table.Rows, back.Rows)
}

func TestTable_Column(t *testing.T) {
	table := &Table{Header: []string{"a", "b"}}

	i, err := table.Column("b")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	_, err = table.Column("missing")
	assert.Error(t, err)
}

func TestTable_AppendColumn_LengthMismatch(t *testing.T) {
	table := &Table{Header: []string{"a"}, Rows: [][]string{{"1"}, {"2"}}}
	err := table.AppendColumn("b", []string{"only one"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 values for 2 rows")
}

func TestMapping_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.csv")
	mapping := map[int]string{
		2: "game issues",
		0: "cashout issues",
		1: "account issues",
	}
	require.NoError(t, WriteMapping(path, mapping))

	// Rows come out in ascending cluster order.
	table, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"0", "cashout issues"},
		{"1", "account issues"},
		{"2", "game issues"},
	}, table.Rows)

	back, err := ReadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, mapping, back)
}

func TestReadMapping_BadClusterID(t *testing.T) {
	path := writeTemp(t, "mapping.csv", "cluster,category\nseven,game issues\n")
	_, err := ReadMapping(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad cluster id")
}
