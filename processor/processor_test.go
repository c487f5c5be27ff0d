package processor

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/dataprep/dataset"
	"github.com/YuminosukeSato/dataprep/pkg/errors"
	"github.com/YuminosukeSato/dataprep/pkg/log"
	"github.com/YuminosukeSato/dataprep/preprocessing"
)

const membersCSV = `name,age,height,city,member
alice,31,1.70,paris,true
bob,,1.82,tokyo,false
carol,45,1.65,,true
dave,28,1.90,paris,false
erin,52,1.75,berlin,true
`

func newTestProcessor(t *testing.T, opts ...Option) (*DataProcessor, *log.TestLogger) {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelDebug)
	return New(append([]Option{WithLogger(logger)}, opts...)...), logger
}

func readMembers(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(membersCSV))
	require.NoError(t, err)
	return ds
}

func selectionError(t *testing.T, err error) *errors.SelectionError {
	t.Helper()
	var selErr *errors.SelectionError
	require.True(t, errors.As(err, &selErr), "expected SelectionError, got %v", err)
	return selErr
}

func TestReadData(t *testing.T) {
	p, logger := newTestProcessor(t)
	path := filepath.Join(t.TempDir(), "members.csv")
	require.NoError(t, os.WriteFile(path, []byte(membersCSV), 0o600))

	ds, err := p.ReadData(path)
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Nrow())
	assert.Equal(t, []string{"name", "age", "height", "city", "member"}, ds.Names())

	missing := filepath.Join(t.TempDir(), "nope.csv")
	ds, err = p.ReadData(missing)
	assert.Nil(t, ds)
	var opErr *errors.OpError
	assert.True(t, errors.As(err, &opErr))
	assert.True(t, logger.ContainsField(log.PathKey, missing))
	assert.True(t, logger.ContainsField(log.ErrorCodeKey, log.ErrorUnreadableInput))
}

func TestDropColumns(t *testing.T) {
	p, logger := newTestProcessor(t)
	ds := readMembers(t)

	out, err := p.DropColumns(ds, []string{"age", "ghost"})
	assert.Equal(t, []string{"name", "height", "city", "member"}, out.Names())
	selErr := selectionError(t, err)
	assert.Equal(t, []string{"ghost"}, selErr.MissingColumns)
	assert.True(t, logger.ContainsField(log.ColumnKey, "ghost"))
	assert.Equal(t, 1, logger.CountLevel("WARN"))

	// input untouched
	assert.Equal(t, 5, ds.Ncol())

	t.Run("idempotent", func(t *testing.T) {
		cols := []string{"city", "age"}
		once, err := p.DropColumns(ds, cols)
		require.NoError(t, err)
		twice, _ := p.DropColumns(once, cols)
		assert.True(t, once.Equal(twice))
	})

	t.Run("order insensitive", func(t *testing.T) {
		a, err := p.DropColumns(ds, []string{"city", "age"})
		require.NoError(t, err)
		b, err := p.DropColumns(ds, []string{"age", "city"})
		require.NoError(t, err)
		assert.True(t, a.Equal(b))
	})

	t.Run("all unknown", func(t *testing.T) {
		same, err := p.DropColumns(ds, []string{"x", "y"})
		assert.True(t, ds.Equal(same))
		assert.Equal(t, []string{"x", "y"}, selectionError(t, err).MissingColumns)
	})
}

func TestDropRows(t *testing.T) {
	p, logger := newTestProcessor(t)
	ds := readMembers(t)

	out, err := p.DropRows(ds, []int{0, -1, 10})
	assert.Equal(t, []int{1, 2, 3}, out.Index())
	selErr := selectionError(t, err)
	assert.Equal(t, []int{10}, selErr.InvalidRows)
	assert.True(t, logger.ContainsField(log.RowKey, float64(10)))

	// positions refer to the input, not to rows left after earlier removals
	out, err = p.DropRows(ds, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, out.Index())

	// labels survive, so dropping by position on a non-contiguous dataset works
	again, err := p.DropRows(out, []int{0})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, again.Index())

	assert.Equal(t, 5, ds.Nrow())

	t.Run("commutes with DropColumns", func(t *testing.T) {
		cols := []string{"age", "member"}
		rows := []int{1, -2}

		a, err := p.DropColumns(ds, cols)
		require.NoError(t, err)
		a, err = p.DropRows(a, rows)
		require.NoError(t, err)

		b, err := p.DropRows(ds, rows)
		require.NoError(t, err)
		b, err = p.DropColumns(b, cols)
		require.NoError(t, err)

		assert.True(t, a.Equal(b))
	})
}

func TestSanitize(t *testing.T) {
	p, _ := newTestProcessor(t)
	ds := readMembers(t)

	clean, err := p.Sanitize(ds)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 4}, clean.Index())
	for _, mask := range clean.Missing() {
		assert.NotContains(t, mask, true)
	}
	assert.Equal(t, 5, ds.Nrow())

	again, err := p.Sanitize(clean)
	require.NoError(t, err)
	assert.True(t, clean.Equal(again))

	_, err = p.Sanitize(nil)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestSanitizeParallelMatchesSequential(t *testing.T) {
	const n = 1000
	values := make([]string, n)
	for i := range values {
		if i%7 == 0 {
			values[i] = "NaN"
			continue
		}
		values[i] = strconv.Itoa(i)
	}
	ds, err := dataset.New(
		series.New(values, series.Float, "x"),
		series.New(make([]int, n), series.Int, "y"),
	)
	require.NoError(t, err)

	sequential, _ := newTestProcessor(t, WithParallelThreshold(n))
	concurrent, _ := newTestProcessor(t, WithParallelThreshold(0))

	a, err := sequential.Sanitize(ds)
	require.NoError(t, err)
	b, err := concurrent.Sanitize(ds)
	require.NoError(t, err)

	assert.Equal(t, n-(n+6)/7, a.Nrow())
	assert.True(t, a.Equal(b))
}

func TestSplit(t *testing.T) {
	p, logger := newTestProcessor(t)
	values := make([]int, 10)
	for i := range values {
		values[i] = i * 10
	}
	ds, err := dataset.New(series.New(values, series.Int, "v"))
	require.NoError(t, err)

	train, test, err := p.Split(ds, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 8, train.Nrow())
	assert.Equal(t, 2, test.Nrow())
	assert.Equal(t, ds.Index(), append(train.Index(), test.Index()...))

	tests := []struct {
		name      string
		ratio     float64
		wantTrain int
	}{
		{"zero", 0, 0},
		{"one", 1, 10},
		{"floor", 0.55, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test, err := p.Split(ds, tt.ratio)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTrain, train.Nrow())
			assert.Equal(t, 10-tt.wantTrain, test.Nrow())
		})
	}

	for _, ratio := range []float64{1.5, -0.1, math.NaN()} {
		train, test, err := p.Split(ds, ratio)
		assert.Nil(t, train)
		assert.Nil(t, test)
		var valErr *errors.ValidationError
		assert.True(t, errors.As(err, &valErr), "ratio %v", ratio)
	}
	assert.True(t, logger.ContainsField(log.ErrorCodeKey, log.ErrorInvalidParameter))
	assert.Equal(t, 10, ds.Nrow())
}

func TestSeparateIO(t *testing.T) {
	p, _ := newTestProcessor(t)
	ds := readMembers(t)
	ds, err := p.DropRows(ds, []int{0})
	require.NoError(t, err)

	inputs, outputs, err := p.SeparateIO(ds, []string{"name", "age", "ghost"}, []string{"member", "ghost"})
	assert.Equal(t, []string{"name", "age"}, inputs.Names())
	assert.Equal(t, []string{"member"}, outputs.Names())
	assert.Equal(t, ds.Index(), inputs.Index())
	assert.Equal(t, ds.Index(), outputs.Index())
	assert.Equal(t, []string{"ghost"}, selectionError(t, err).MissingColumns)

	inputs, outputs, err = p.SeparateIO(ds, []string{"height"}, []string{"city"})
	require.NoError(t, err)
	assert.Equal(t, 1, inputs.Ncol())
	assert.Equal(t, 1, outputs.Ncol())
}

func TestScaleData(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })

	p, logger := newTestProcessor(t)
	ds := readMembers(t)

	out, err := p.ScaleData(ds, map[string]preprocessing.ScalerKind{
		"height": preprocessing.StandardScaling,
		"age":    preprocessing.MinMaxScaling,
		"name":   preprocessing.MaxAbsScaling,
		"ghost":  preprocessing.StandardScaling,
	})
	selErr := selectionError(t, err)
	assert.True(t, errors.Is(selErr.ColumnErrors["age"], errors.ErrMissingValues))
	assert.True(t, errors.Is(selErr.ColumnErrors["name"], errors.ErrNonNumeric))
	assert.NotContains(t, selErr.ColumnErrors, "ghost")
	assert.True(t, logger.ContainsField(log.ColumnKey, "ghost"))

	height, _ := out.Col("height")
	mean := 0.0
	for _, v := range height.Float() {
		mean += v
	}
	assert.InDelta(t, 0, mean/float64(height.Len()), 1e-9)

	age, _ := out.Col("age")
	original, _ := ds.Col("age")
	assert.Equal(t, original.Records(), age.Records())
	assert.Equal(t, []string{"height"}, p.Scalers())
	assert.Empty(t, warnings)

	t.Run("every mapped column is written back", func(t *testing.T) {
		clean, err := p.Sanitize(ds)
		require.NoError(t, err)

		out, err := p.ScaleData(clean, map[string]preprocessing.ScalerKind{
			"age":    preprocessing.MinMaxScaling,
			"height": preprocessing.StandardScaling,
		})
		require.NoError(t, err)

		age, _ := out.Col("age")
		assert.Equal(t, series.Float, age.Type())
		assert.InDeltaSlice(t, []float64{0.125, 0, 1}, age.Float(), 1e-12)

		height, _ := out.Col("height")
		before, _ := clean.Col("height")
		assert.NotEqual(t, before.Float(), height.Float())
		assert.Equal(t, []string{"age", "height"}, p.Scalers())

		require.Len(t, warnings, 1)
		var convWarn *errors.DataConversionWarning
		assert.True(t, errors.As(warnings[0], &convWarn))

		restored, err := p.InverseScale(out, "age")
		require.NoError(t, err)
		col, _ := restored.Col("age")
		assert.InDeltaSlice(t, []float64{31, 28, 52}, col.Float(), 1e-9)

		restored, err = p.InverseScale(out, "height")
		require.NoError(t, err)
		col, _ = restored.Col("height")
		assert.InDeltaSlice(t, before.Float(), col.Float(), 1e-9)
	})

	t.Run("unknown kind", func(t *testing.T) {
		out, err := p.ScaleData(ds, map[string]preprocessing.ScalerKind{"height": preprocessing.ScalerKind(42)})
		assert.Nil(t, out)
		var valErr *errors.ValidationError
		assert.True(t, errors.As(err, &valErr))
	})

	t.Run("not fitted", func(t *testing.T) {
		_, err := p.InverseScale(ds, "member")
		var nfErr *errors.NotFittedError
		assert.True(t, errors.As(err, &nfErr))
	})
}

func colorData(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(
		series.New([]int{1, 2, 3, 4, 5}, series.Int, "id"),
		series.New([]string{"red", "green", "blue", "green", "NaN"}, series.String, "color"),
		series.New([]float64{0.5, 0.1, 0.2, 0.9, 0.3}, series.Float, "score"),
	)
	require.NoError(t, err)
	return ds
}

func TestEncodeCategoriesOneHot(t *testing.T) {
	p, _ := newTestProcessor(t)
	ds := colorData(t)

	out, err := p.EncodeCategories(ds, WithDoNotEncode("id", "score"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "color_green", "color_red", "score"}, out.Names())

	green, _ := out.Col("color_green")
	red, _ := out.Col("color_red")
	assert.Equal(t, series.Int, green.Type())
	assert.Equal(t, []string{"0", "1", "0", "1", "0"}, green.Records())
	assert.Equal(t, []string{"1", "0", "0", "0", "0"}, red.Records())

	assert.Empty(t, p.Encoders())

	id, _ := out.Col("id")
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, id.Records())
}

func TestEncodeCategoriesLabel(t *testing.T) {
	p, _ := newTestProcessor(t)
	ds := colorData(t)

	out, err := p.EncodeCategories(ds, WithCardinalityThreshold(2), WithDoNotEncode("id", "score"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "color", "score"}, out.Names())

	color, _ := out.Col("color")
	assert.Equal(t, series.Int, color.Type())
	assert.Equal(t, []string{"2", "1", "0", "1", "NaN"}, color.Records())

	enc, ok := p.Encoder("color")
	require.True(t, ok)
	assert.Equal(t, []string{"blue", "green", "red"}, enc.Classes())
	assert.Equal(t, []string{"color"}, p.Encoders())

	decoded, err := p.DecodeColumn(out, "color")
	require.NoError(t, err)
	original, _ := ds.Col("color")
	got, _ := decoded.Col("color")
	assert.Equal(t, original.Records(), got.Records())

	// caches are per processor
	other, _ := newTestProcessor(t)
	assert.Empty(t, other.Encoders())
	_, err = other.DecodeColumn(out, "color")
	var nfErr *errors.NotFittedError
	assert.True(t, errors.As(err, &nfErr))

	p.ResetCaches()
	assert.Empty(t, p.Encoders())
}

func TestEncodeCategoriesNumericOrder(t *testing.T) {
	p, _ := newTestProcessor(t)
	ds, err := dataset.New(series.New([]int{10, 9, 100, 9}, series.Int, "grade"))
	require.NoError(t, err)

	out, err := p.EncodeCategories(ds, WithCardinalityThreshold(0))
	require.NoError(t, err)
	grade, _ := out.Col("grade")
	assert.Equal(t, []string{"1", "0", "2", "0"}, grade.Records())

	enc, _ := p.Encoder("grade")
	assert.Equal(t, []string{"9", "10", "100"}, enc.Classes())

	decoded, err := p.DecodeColumn(out, "grade")
	require.NoError(t, err)
	grade, _ = decoded.Col("grade")
	assert.Equal(t, series.Int, grade.Type())
	assert.Equal(t, []string{"10", "9", "100", "9"}, grade.Records())
}

func TestEncodeCategoriesFloatColumn(t *testing.T) {
	values := []float64{0.1234561, 0.1234562, 0.1234563, 2.5}
	ds, err := dataset.New(series.New(values, series.Float, "x"))
	require.NoError(t, err)

	t.Run("values differing past six decimals stay distinct", func(t *testing.T) {
		p, _ := newTestProcessor(t)
		out, err := p.EncodeCategories(ds, WithCardinalityThreshold(1))
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, out.Names())

		x, _ := out.Col("x")
		assert.Equal(t, []string{"0", "1", "2", "3"}, x.Records())

		enc, ok := p.Encoder("x")
		require.True(t, ok)
		assert.Equal(t, []string{"0.1234561", "0.1234562", "0.1234563", "2.5"}, enc.Classes())

		decoded, err := p.DecodeColumn(out, "x")
		require.NoError(t, err)
		col, _ := decoded.Col("x")
		assert.Equal(t, series.Float, col.Type())
		assert.Equal(t, values, col.Float())
	})

	t.Run("one-hot names use the shortest float form", func(t *testing.T) {
		p, _ := newTestProcessor(t)
		out, err := p.EncodeCategories(ds)
		require.NoError(t, err)
		assert.Equal(t, []string{"x_0.1234562", "x_0.1234563", "x_2.5"}, out.Names())

		last, _ := out.Col("x_2.5")
		assert.Equal(t, []string{"0", "0", "0", "1"}, last.Records())
		assert.Empty(t, p.Encoders())
	})
}

func TestEncodeCategoriesErrors(t *testing.T) {
	p, logger := newTestProcessor(t)

	out, err := p.EncodeCategories(colorData(t), WithCardinalityThreshold(-1))
	assert.Nil(t, out)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))

	ds, err := dataset.New(
		series.New([]string{"a", "b", "a"}, series.String, "color"),
		series.New([]int{0, 0, 1}, series.Int, "color_b"),
		series.New([]string{"NaN", "NaN", "NaN"}, series.String, "empty"),
	)
	require.NoError(t, err)

	out, err = p.EncodeCategories(ds, WithDoNotEncode("color_b", "ghost"))
	selErr := selectionError(t, err)
	assert.True(t, errors.Is(selErr.ColumnErrors["color"], errors.ErrDuplicateColumn))
	assert.True(t, errors.Is(selErr.ColumnErrors["empty"], errors.ErrEmptyData))
	assert.True(t, ds.Equal(out))
	assert.True(t, logger.ContainsField(log.ColumnKey, "ghost"))
}

func TestNilDataset(t *testing.T) {
	p, _ := newTestProcessor(t)
	var valErr *errors.ValidationError

	_, err := p.DropColumns(nil, []string{"a"})
	assert.True(t, errors.As(err, &valErr))
	_, err = p.DropRows(nil, []int{0})
	assert.True(t, errors.As(err, &valErr))
	_, err = p.ScaleData(nil, nil)
	assert.True(t, errors.As(err, &valErr))
	_, err = p.EncodeCategories(nil)
	assert.True(t, errors.As(err, &valErr))
	_, _, err = p.Split(nil, 0.5)
	assert.True(t, errors.As(err, &valErr))
	_, _, err = p.SeparateIO(nil, nil, nil)
	assert.True(t, errors.As(err, &valErr))
}

func TestContents(t *testing.T) {
	p, _ := newTestProcessor(t)

	names := make([]string, 0)
	for _, op := range p.Contents() {
		assert.NotEmpty(t, op.Description)
		names = append(names, op.Name)
	}
	for _, want := range []string{"ReadData", "DropColumns", "DropRows", "Sanitize", "ScaleData", "EncodeCategories", "Split", "SeparateIO"} {
		assert.Contains(t, names, want)
	}

	var buf bytes.Buffer
	require.NoError(t, p.WriteContents(&buf))
	assert.Contains(t, buf.String(), "Method name: Split\nMethod description: ")
}
