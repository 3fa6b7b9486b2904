package cluster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// Table is a raw CSV table: the pipeline's intermediate files carry whatever
// columns the source data had, so rows are kept as-is and columns are
// appended by name.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable loads a CSV file whole.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rows = append(rows, record)
	}
	return &Table{Header: header, Rows: rows}, nil
}

// Write saves the table to path.
func (t *Table) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// Column returns the index of the named column, or an error.
func (t *Table) Column(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("missing column %q", name)
}

// AppendColumn adds a column with one value per row.
func (t *Table) AppendColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// WriteMapping saves a cluster→category mapping CSV with the same shape the
// pipeline has always used: header "cluster,category", rows in cluster order.
func WriteMapping(path string, mapping map[int]string) error {
	ids := make([]int, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	t := &Table{Header: []string{"cluster", "category"}}
	for _, id := range ids {
		t.Rows = append(t.Rows, []string{strconv.Itoa(id), mapping[id]})
	}
	return t.Write(path)
}

// ReadMapping loads a cluster→category mapping CSV.
func ReadMapping(path string) (map[int]string, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	clusterCol, err := t.Column("cluster")
	if err != nil {
		return nil, err
	}
	categoryCol, err := t.Column("category")
	if err != nil {
		return nil, err
	}

	mapping := make(map[int]string, len(t.Rows))
	for _, row := range t.Rows {
		id, err := strconv.Atoi(row[clusterCol])
		if err != nil {
			return nil, fmt.Errorf("bad cluster id %q: %w", row[clusterCol], err)
		}
		mapping[id] = row[categoryCol]
	}
	return mapping, nil
}
