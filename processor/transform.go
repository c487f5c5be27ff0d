package processor

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dataprep/dataset"
	"github.com/YuminosukeSato/dataprep/pkg/errors"
	"github.com/YuminosukeSato/dataprep/pkg/log"
	"github.com/YuminosukeSato/dataprep/preprocessing"
)

// ScaleData fits a fresh scaler of the mapped kind to each mapped column,
// caches it under the column name, and writes the scaled values back into
// that column as Float. Columns are processed in dataset order.
//
// An unknown ScalerKind fails the whole call. Mapped names that are not
// columns are logged and ignored. A column that cannot be scaled (non-numeric,
// holding missing values, or empty) is left unchanged and reported in the
// returned *errors.SelectionError.
func (p *DataProcessor) ScaleData(data *dataset.Dataset, scalerMap map[string]preprocessing.ScalerKind) (out *dataset.Dataset, err error) {
	const op = "DataProcessor.ScaleData"
	defer errors.Recover(&err, op)

	if err := requireData(op, data); err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(scalerMap) {
		if _, err := scalerMap[name].New(); err != nil {
			return nil, err
		}
		if !data.Has(name) {
			p.logger.Warn("column to scale not found, ignoring",
				log.OperationKey, log.OperationScaleData,
				log.ColumnKey, name,
				log.ErrorCodeKey, log.ErrorUnknownColumn,
			)
		}
	}

	selErr := errors.NewSelectionError(op)
	out = data
	for _, name := range data.Names() {
		kind, ok := scalerMap[name]
		if !ok {
			continue
		}
		col, _ := data.Col(name)
		scaler, scaled, cerr := fitScaler(kind, col)
		if cerr == nil {
			out, cerr = out.WithColumn(scaled)
		}
		if cerr != nil {
			p.logger.Warn("column could not be scaled, leaving it unchanged",
				log.OperationKey, log.OperationScaleData,
				log.ColumnKey, name,
				log.ModelNameKey, kind.String(),
				log.ErrorCodeKey, log.ErrorTransformFailed,
				log.ErrAttrKey, cerr,
			)
			selErr.AddColumnError(name, cerr)
			continue
		}
		p.storeScaler(name, scaler)
		p.logger.Debug("column scaled",
			log.OperationKey, log.OperationScaleData,
			log.ColumnKey, name,
			log.ModelNameKey, scaler.String(),
		)
	}
	return out, selErr.Err()
}

// fitScaler fits a new scaler of kind to col and returns the scaled column.
func fitScaler(kind preprocessing.ScalerKind, col series.Series) (preprocessing.Scaler, series.Series, error) {
	switch col.Type() {
	case series.Int, series.Float:
	default:
		return nil, series.Series{}, errors.Wrapf(errors.ErrNonNumeric, "column %q has type %s", col.Name, col.Type())
	}
	if col.Len() == 0 {
		return nil, series.Series{}, errors.Wrapf(errors.ErrEmptyData, "column %q", col.Name)
	}
	if col.HasNaN() {
		return nil, series.Series{}, errors.Wrapf(errors.ErrMissingValues, "column %q", col.Name)
	}

	scaler, err := kind.New()
	if err != nil {
		return nil, series.Series{}, err
	}
	X := mat.NewDense(col.Len(), 1, col.Float())
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		return nil, series.Series{}, err
	}
	if col.Type() == series.Int {
		errors.Warn(errors.NewDataConversionWarning("int", "float",
			fmt.Sprintf("column %q is stored as float after %s scaling", col.Name, kind)))
	}
	return scaler, series.New(mat.Col(nil, 0, scaled), series.Float, col.Name), nil
}

type encodeConfig struct {
	threshold   int
	doNotEncode map[string]struct{}
}

// EncodeOption configures EncodeCategories.
type EncodeOption func(*encodeConfig)

// WithCardinalityThreshold overrides the processor's one-hot threshold for a
// single call. A column with at most threshold distinct values is one-hot
// encoded; a column with more is label encoded.
func WithCardinalityThreshold(threshold int) EncodeOption {
	return func(c *encodeConfig) {
		c.threshold = threshold
	}
}

// WithDoNotEncode excludes the named columns from encoding.
func WithDoNotEncode(names ...string) EncodeOption {
	return func(c *encodeConfig) {
		for _, name := range names {
			c.doNotEncode[name] = struct{}{}
		}
	}
}

// EncodeCategories encodes every column not excluded with WithDoNotEncode, in
// dataset order.
//
// Cardinality counts distinct non-missing values. A column at or below the
// threshold is replaced, at its position, by Int indicator columns named
// "<column>_<value>" for every category except the first in sorted order;
// missing cells become all zeros. A column above the threshold is replaced
// by Int codes from a LabelEncoder, which is cached under the column name;
// missing cells stay missing.
//
// A negative threshold fails the whole call. A column whose indicator names
// collide with existing columns, or that holds no values, is left unchanged
// and reported in the returned *errors.SelectionError.
func (p *DataProcessor) EncodeCategories(data *dataset.Dataset, opts ...EncodeOption) (out *dataset.Dataset, err error) {
	const op = "DataProcessor.EncodeCategories"
	defer errors.Recover(&err, op)

	if err := requireData(op, data); err != nil {
		return nil, err
	}
	cfg := encodeConfig{
		threshold:   p.threshold,
		doNotEncode: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.threshold < 0 {
		p.logger.Warn("incorrect value for threshold, expected a non-negative integer",
			log.OperationKey, log.OperationEncodeCategories,
			"threshold", cfg.threshold,
			log.ErrorCodeKey, log.ErrorInvalidParameter,
		)
		return nil, errors.NewValidationError("threshold", "must be non-negative", cfg.threshold)
	}
	skipped := make([]string, 0, len(cfg.doNotEncode))
	for name := range cfg.doNotEncode {
		skipped = append(skipped, name)
	}
	sort.Strings(skipped)
	for _, name := range skipped {
		if !data.Has(name) {
			p.logger.Warn("column excluded from encoding not found, ignoring",
				log.OperationKey, log.OperationEncodeCategories,
				log.ColumnKey, name,
				log.ErrorCodeKey, log.ErrorUnknownColumn,
			)
		}
	}

	selErr := errors.NewSelectionError(op)
	out = data
	for _, name := range data.Names() {
		if _, ok := cfg.doNotEncode[name]; ok {
			continue
		}
		col, _ := data.Col(name)
		records := categoryKeys(col)
		missing := col.IsNaN()
		values := make([]string, 0, len(records))
		for i, r := range records {
			if !missing[i] {
				values = append(values, r)
			}
		}

		var next *dataset.Dataset
		var cerr error
		cardinality := len(preprocessing.SortCategories(values))
		switch {
		case cardinality == 0:
			cerr = errors.Wrapf(errors.ErrEmptyData, "column %q has no values to encode", name)
		case cardinality <= cfg.threshold:
			next, cerr = oneHotColumn(out, name, records, missing, values)
		default:
			var enc *preprocessing.LabelEncoder
			next, enc, cerr = labelColumn(out, name, records, missing, values)
			if cerr == nil {
				p.storeEncoder(name, enc, col.Type())
			}
		}
		if cerr != nil {
			p.logger.Warn("column could not be encoded, leaving it unchanged",
				log.OperationKey, log.OperationEncodeCategories,
				log.ColumnKey, name,
				log.CardinalityKey, cardinality,
				log.ErrorCodeKey, log.ErrorTransformFailed,
				log.ErrAttrKey, cerr,
			)
			selErr.AddColumnError(name, cerr)
			continue
		}
		out = next
		p.logger.Debug("column encoded",
			log.OperationKey, log.OperationEncodeCategories,
			log.ColumnKey, name,
			log.CardinalityKey, cardinality,
			"one_hot", cardinality <= cfg.threshold,
		)
	}
	return out, selErr.Err()
}

// categoryKeys renders the values of col as category keys. Float values use
// the shortest representation that parses back to the same float, so values
// differing past gota's six-decimal Records format stay distinct.
func categoryKeys(col series.Series) []string {
	if col.Type() != series.Float {
		return col.Records()
	}
	values := col.Float()
	keys := make([]string, len(values))
	for i, v := range values {
		keys[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return keys
}

// oneHotColumn replaces column name of data with drop-first indicator columns.
func oneHotColumn(data *dataset.Dataset, name string, records []string, missing []bool, values []string) (*dataset.Dataset, error) {
	enc := preprocessing.NewOneHotEncoder(true)
	if err := enc.Fit(values); err != nil {
		return nil, err
	}
	indicators, err := enc.Transform(records, missing)
	if err != nil {
		return nil, err
	}

	names := enc.FeatureNames(name)
	columns := make([]series.Series, len(names))
	for j, feature := range names {
		bits := make([]int, len(records))
		for i := range bits {
			bits[i] = int(indicators.At(i, j))
		}
		columns[j] = series.New(bits, series.Int, feature)
	}
	return data.Replace(name, columns...)
}

// labelColumn replaces column name of data with its label codes.
func labelColumn(data *dataset.Dataset, name string, records []string, missing []bool, values []string) (*dataset.Dataset, *preprocessing.LabelEncoder, error) {
	enc := preprocessing.NewLabelEncoder()
	codes, err := enc.FitTransform(values)
	if err != nil {
		return nil, nil, err
	}

	encoded := make([]string, len(records))
	k := 0
	for i := range records {
		if missing[i] {
			encoded[i] = "NaN"
			continue
		}
		encoded[i] = strconv.Itoa(codes[k])
		k++
	}
	out, err := data.Replace(name, series.New(encoded, series.Int, name))
	if err != nil {
		return nil, nil, err
	}
	return out, enc, nil
}

// DecodeColumn maps the codes of a label-encoded column back to the original
// values, with the type the column had when it was encoded, using the encoder
// cached for it. Missing codes stay missing.
func (p *DataProcessor) DecodeColumn(data *dataset.Dataset, name string) (out *dataset.Dataset, err error) {
	const op = "DataProcessor.DecodeColumn"
	defer errors.Recover(&err, op)

	if err := requireData(op, data); err != nil {
		return nil, err
	}
	enc, sourceType, ok := p.encoder(name)
	if !ok {
		return nil, errors.NewNotFittedError("LabelEncoder("+name+")", "DecodeColumn")
	}
	col, ok := data.Col(name)
	if !ok {
		return nil, errors.NewOpError(op, fmt.Sprintf("column %q not found", name), nil)
	}
	if col.Type() != series.Int {
		return nil, errors.Wrapf(errors.ErrNonNumeric, "column %q has type %s", name, col.Type())
	}

	missing := col.IsNaN()
	records := col.Records()
	codes := make([]int, 0, len(missing))
	for i, m := range missing {
		if m {
			continue
		}
		code, err := strconv.Atoi(records[i])
		if err != nil {
			return nil, errors.Wrapf(err, "column %q row %d", name, i)
		}
		codes = append(codes, code)
	}
	labels, err := enc.InverseTransform(codes)
	if err != nil {
		return nil, err
	}

	decoded := make([]string, len(missing))
	k := 0
	for i, m := range missing {
		if m {
			decoded[i] = "NaN"
			continue
		}
		decoded[i] = labels[k]
		k++
	}
	return data.Replace(name, series.New(decoded, sourceType, name))
}

// InverseScale maps a scaled column back to its original values with the
// scaler cached for it.
func (p *DataProcessor) InverseScale(data *dataset.Dataset, name string) (out *dataset.Dataset, err error) {
	const op = "DataProcessor.InverseScale"
	defer errors.Recover(&err, op)

	if err := requireData(op, data); err != nil {
		return nil, err
	}
	scaler, ok := p.Scaler(name)
	if !ok {
		return nil, errors.NewNotFittedError("Scaler("+name+")", "InverseScale")
	}
	col, ok := data.Col(name)
	if !ok {
		return nil, errors.NewOpError(op, fmt.Sprintf("column %q not found", name), nil)
	}
	if col.Type() != series.Float && col.Type() != series.Int {
		return nil, errors.Wrapf(errors.ErrNonNumeric, "column %q has type %s", name, col.Type())
	}
	if col.Len() == 0 {
		return data, nil
	}
	if col.HasNaN() {
		return nil, errors.Wrapf(errors.ErrMissingValues, "column %q", name)
	}

	restored, err := scaler.InverseTransform(mat.NewDense(col.Len(), 1, col.Float()))
	if err != nil {
		return nil, err
	}
	return data.Replace(name, series.New(mat.Col(nil, 0, restored), series.Float, name))
}
