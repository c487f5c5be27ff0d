package dataset

import (
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/dataprep/pkg/errors"
)

// DefaultNaNValues are the cell contents read as missing values.
var DefaultNaNValues = []string{"", "NA", "NaN", "<nil>"}

type readConfig struct {
	delimiter rune
	nanValues []string
	types     map[string]series.Type
}

// ReadOption configures ReadCSV.
type ReadOption func(*readConfig)

// WithDelimiter sets the field delimiter (default ',').
func WithDelimiter(delimiter rune) ReadOption {
	return func(c *readConfig) {
		c.delimiter = delimiter
	}
}

// WithNaNValues replaces the set of cell contents read as missing.
func WithNaNValues(values ...string) ReadOption {
	return func(c *readConfig) {
		c.nanValues = values
	}
}

// WithTypes forces column types instead of detecting them.
func WithTypes(types map[string]series.Type) ReadOption {
	return func(c *readConfig) {
		c.types = types
	}
}

// ReadCSV loads delimited text with a header row. Column types are detected
// per column (int, float, bool, string).
func ReadCSV(r io.Reader, opts ...ReadOption) (*Dataset, error) {
	cfg := readConfig{
		delimiter: ',',
		nanValues: DefaultNaNValues,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	loadOpts := []dataframe.LoadOption{
		dataframe.WithDelimiter(cfg.delimiter),
		dataframe.NaNValues(cfg.nanValues),
	}
	if len(cfg.types) > 0 {
		loadOpts = append(loadOpts, dataframe.WithTypes(cfg.types))
	}

	df := dataframe.ReadCSV(r, loadOpts...)
	if df.Err != nil {
		return nil, errors.NewOpError("dataset.ReadCSV", "malformed input", df.Err)
	}
	return FromFrame(df)
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string, opts ...ReadOption) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewOpError("dataset.ReadCSVFile", "unreadable input", err)
	}
	defer f.Close()

	ds, err := ReadCSV(f, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return ds, nil
}
