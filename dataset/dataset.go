// Package dataset provides the in-memory table the processor operates on.
//
// A Dataset is an ordered set of uniquely named gota series of equal length
// plus a row label per row. Labels are assigned 0..n-1 when data is loaded and
// follow their rows through drops and slices, so after DropRows the labels of
// a dataset may be non-contiguous. Every method returns a new Dataset; the
// receiver is never modified.
package dataset

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/dataprep/pkg/errors"
)

// Dataset is an immutable table of named columns with stable row labels.
type Dataset struct {
	columns []series.Series
	index   []int
}

// New builds a Dataset from columns. All columns must have the same length and
// distinct names. Rows are labelled 0..n-1.
func New(columns ...series.Series) (*Dataset, error) {
	n := 0
	if len(columns) > 0 {
		n = columns[0].Len()
	}
	return build(columns, sequence(n))
}

// NewWithIndex is New with explicit row labels. Labels must be unique.
func NewWithIndex(index []int, columns ...series.Series) (*Dataset, error) {
	seen := make(map[int]struct{}, len(index))
	for _, label := range index {
		if _, ok := seen[label]; ok {
			return nil, errors.NewValidationError("index", "row labels must be unique", label)
		}
		seen[label] = struct{}{}
	}
	return build(columns, append([]int(nil), index...))
}

// FromFrame converts a gota DataFrame. Rows are labelled 0..n-1.
func FromFrame(df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, errors.NewOpError("dataset.FromFrame", "invalid frame", df.Err)
	}
	names := df.Names()
	columns := make([]series.Series, len(names))
	for i, name := range names {
		columns[i] = df.Col(name)
	}
	return build(columns, sequence(df.Nrow()))
}

func build(columns []series.Series, index []int) (*Dataset, error) {
	names := make(map[string]struct{}, len(columns))
	for i, s := range columns {
		if s.Err != nil {
			return nil, errors.NewOpError("dataset.New", fmt.Sprintf("column %q", s.Name), s.Err)
		}
		if s.Len() != len(index) {
			return nil, errors.NewDimensionError(fmt.Sprintf("dataset.New(column %d %q)", i, s.Name), len(index), s.Len(), 0)
		}
		if _, ok := names[s.Name]; ok {
			return nil, errors.Wrapf(errors.ErrDuplicateColumn, "dataset.New: %q", s.Name)
		}
		names[s.Name] = struct{}{}
	}
	return &Dataset{columns: append([]series.Series(nil), columns...), index: index}, nil
}

func sequence(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Nrow returns the number of rows.
func (d *Dataset) Nrow() int { return len(d.index) }

// Ncol returns the number of columns.
func (d *Dataset) Ncol() int { return len(d.columns) }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, s := range d.columns {
		names[i] = s.Name
	}
	return names
}

// Types returns the column types in order.
func (d *Dataset) Types() []series.Type {
	types := make([]series.Type, len(d.columns))
	for i, s := range d.columns {
		types[i] = s.Type()
	}
	return types
}

// Has reports whether a column named name exists.
func (d *Dataset) Has(name string) bool {
	return d.position(name) >= 0
}

func (d *Dataset) position(name string) int {
	for i, s := range d.columns {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Col returns a copy of the named column.
func (d *Dataset) Col(name string) (series.Series, bool) {
	i := d.position(name)
	if i < 0 {
		return series.Series{}, false
	}
	return d.columns[i].Copy(), true
}

// Columns returns copies of all columns in order.
func (d *Dataset) Columns() []series.Series {
	out := make([]series.Series, len(d.columns))
	for i, s := range d.columns {
		out[i] = s.Copy()
	}
	return out
}

// Index returns the row labels in row order.
func (d *Dataset) Index() []int {
	return append([]int(nil), d.index...)
}

// Label resolves a row position to its label. Negative positions count from
// the end, so -1 is the last row.
func (d *Dataset) Label(position int) (int, bool) {
	n := len(d.index)
	if position < 0 {
		position += n
	}
	if position < 0 || position >= n {
		return 0, false
	}
	return d.index[position], true
}

// Select projects the dataset onto names, in the order given. Duplicate names
// are selected once. Names not present are returned in missing.
func (d *Dataset) Select(names []string) (out *Dataset, missing []string) {
	seen := make(map[string]struct{}, len(names))
	columns := make([]series.Series, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		i := d.position(name)
		if i < 0 {
			missing = append(missing, name)
			continue
		}
		columns = append(columns, d.columns[i])
	}
	return &Dataset{columns: columns, index: d.Index()}, missing
}

// Drop removes the named columns. Names not present are returned in missing;
// a name listed twice is reported at most once.
func (d *Dataset) Drop(names []string) (out *Dataset, missing []string) {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := drop[name]; ok {
			continue
		}
		drop[name] = struct{}{}
		if !d.Has(name) {
			missing = append(missing, name)
		}
	}
	columns := make([]series.Series, 0, len(d.columns))
	for _, s := range d.columns {
		if _, ok := drop[s.Name]; !ok {
			columns = append(columns, s)
		}
	}
	return &Dataset{columns: columns, index: d.Index()}, missing
}

// Subset returns the rows at the given positions, in that order.
func (d *Dataset) Subset(positions []int) (*Dataset, error) {
	n := len(d.index)
	index := make([]int, len(positions))
	for i, p := range positions {
		if p < 0 || p >= n {
			return nil, errors.NewValidationError("positions", fmt.Sprintf("row position out of range [0, %d)", n), p)
		}
		index[i] = d.index[p]
	}
	columns := make([]series.Series, len(d.columns))
	for i, s := range d.columns {
		columns[i] = s.Subset(positions)
		if columns[i].Err != nil {
			return nil, errors.NewOpError("dataset.Subset", fmt.Sprintf("column %q", s.Name), columns[i].Err)
		}
	}
	return &Dataset{columns: columns, index: index}, nil
}

// Slice returns rows [start, end).
func (d *Dataset) Slice(start, end int) (*Dataset, error) {
	if start < 0 || end > len(d.index) || start > end {
		return nil, errors.NewValidationError("slice", fmt.Sprintf("bounds must satisfy 0 <= start <= end <= %d", len(d.index)), [2]int{start, end})
	}
	positions := make([]int, end-start)
	for i := range positions {
		positions[i] = start + i
	}
	return d.Subset(positions)
}

// DropLabels removes every row whose label is in labels.
func (d *Dataset) DropLabels(labels []int) *Dataset {
	drop := make(map[int]struct{}, len(labels))
	for _, l := range labels {
		drop[l] = struct{}{}
	}
	keep := make([]int, 0, len(d.index))
	for pos, l := range d.index {
		if _, ok := drop[l]; !ok {
			keep = append(keep, pos)
		}
	}
	out, _ := d.Subset(keep)
	return out
}

// Filter keeps the rows where keep[i] is true. keep must have Nrow entries.
func (d *Dataset) Filter(keep []bool) (*Dataset, error) {
	if len(keep) != len(d.index) {
		return nil, errors.NewDimensionError("dataset.Filter", len(d.index), len(keep), 0)
	}
	positions := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			positions = append(positions, i)
		}
	}
	return d.Subset(positions)
}

// Missing returns, per column in order, which rows hold a missing value.
func (d *Dataset) Missing() [][]bool {
	masks := make([][]bool, len(d.columns))
	for i, s := range d.columns {
		masks[i] = s.IsNaN()
	}
	return masks
}

// Replace substitutes the column name with replacements, at the same position.
// Passing no replacements removes the column. Replacement names must not
// collide with other columns.
func (d *Dataset) Replace(name string, replacements ...series.Series) (*Dataset, error) {
	at := d.position(name)
	if at < 0 {
		return nil, errors.NewOpError("dataset.Replace", fmt.Sprintf("column %q not found", name), nil)
	}
	columns := make([]series.Series, 0, len(d.columns)-1+len(replacements))
	columns = append(columns, d.columns[:at]...)
	columns = append(columns, replacements...)
	columns = append(columns, d.columns[at+1:]...)
	return build(columns, d.Index())
}

// WithColumn replaces the column with the same name as s, or appends s.
func (d *Dataset) WithColumn(s series.Series) (*Dataset, error) {
	if d.Has(s.Name) {
		return d.Replace(s.Name, s)
	}
	columns := append(append([]series.Series(nil), d.columns...), s)
	return build(columns, d.Index())
}

// Frame exports the dataset as a gota DataFrame. Row labels are not part of
// the frame. A dataset without columns yields a frame carrying an error.
func (d *Dataset) Frame() dataframe.DataFrame {
	return dataframe.New(d.Columns()...)
}

// Equal reports whether both datasets have the same labels, column names,
// types and values.
func (d *Dataset) Equal(o *Dataset) bool {
	if d == nil || o == nil {
		return d == o
	}
	if len(d.index) != len(o.index) || len(d.columns) != len(o.columns) {
		return false
	}
	for i := range d.index {
		if d.index[i] != o.index[i] {
			return false
		}
	}
	for i := range d.columns {
		a, b := d.columns[i], o.columns[i]
		if a.Name != b.Name || a.Type() != b.Type() {
			return false
		}
		ra, rb := a.Records(), b.Records()
		for j := range ra {
			if ra[j] != rb[j] {
				return false
			}
		}
	}
	return true
}

// String renders the dataset with its row labels.
func (d *Dataset) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%dx%d] Dataset\n\n", d.Nrow(), d.Ncol())
	b.WriteString("index")
	for _, s := range d.columns {
		fmt.Fprintf(&b, "\t%s<%s>", s.Name, s.Type())
	}
	b.WriteByte('\n')
	records := make([][]string, len(d.columns))
	for i, s := range d.columns {
		records[i] = s.Records()
	}
	for r, label := range d.index {
		fmt.Fprintf(&b, "%d", label)
		for c := range d.columns {
			fmt.Fprintf(&b, "\t%s", records[c][r])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
