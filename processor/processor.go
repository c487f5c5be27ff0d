// Package processor provides DataProcessor, a set of independent cleaning
// transforms over dataset.Dataset values.
//
// Operations never modify their input. Errors follow one contract:
//
//   - a bad scalar parameter (split ratio, threshold, nil dataset) fails fast
//     with a *errors.ValidationError and no result;
//   - a selector that cannot be resolved (unknown column, row position out of
//     range, a column a transform cannot handle) is skipped, logged, and
//     reported in a *errors.SelectionError returned together with the result
//     built from the selectors that did resolve.
//
// Fitted label encoders and scalers are cached per processor, keyed by column
// name, so values can be decoded or unscaled later. The caches are guarded by
// a mutex; independent pipelines should use independent processors.
package processor

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/dataprep/dataset"
	"github.com/YuminosukeSato/dataprep/pkg/errors"
	"github.com/YuminosukeSato/dataprep/pkg/log"
	"github.com/YuminosukeSato/dataprep/preprocessing"
)

const (
	// DefaultThreshold is the cardinality at or below which EncodeCategories
	// one-hot encodes a column.
	DefaultThreshold = 20

	// DefaultParallelThreshold is the row count above which Sanitize builds its
	// row mask concurrently.
	DefaultParallelThreshold = 50000
)

// DataProcessor applies cleaning transforms and remembers fitted transforms.
type DataProcessor struct {
	logger            log.Logger
	threshold         int
	parallelThreshold int

	mu       sync.RWMutex
	encoders map[string]encodedColumn
	scalers  map[string]preprocessing.Scaler
}

// encodedColumn is a cached label encoder and the type of the column it was
// fitted on.
type encodedColumn struct {
	encoder    *preprocessing.LabelEncoder
	sourceType series.Type
}

// Option configures a DataProcessor.
type Option func(*DataProcessor)

// WithLogger sets the logger diagnostics are written to.
func WithLogger(logger log.Logger) Option {
	return func(p *DataProcessor) {
		p.logger = logger
	}
}

// WithThreshold sets the default one-hot cardinality threshold.
func WithThreshold(threshold int) Option {
	return func(p *DataProcessor) {
		p.threshold = threshold
	}
}

// WithParallelThreshold sets the row count above which Sanitize runs in parallel.
func WithParallelThreshold(rows int) Option {
	return func(p *DataProcessor) {
		p.parallelThreshold = rows
	}
}

// New creates a DataProcessor with empty caches.
func New(opts ...Option) *DataProcessor {
	p := &DataProcessor{
		threshold:         DefaultThreshold,
		parallelThreshold: DefaultParallelThreshold,
		encoders:          make(map[string]encodedColumn),
		scalers:           make(map[string]preprocessing.Scaler),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.GetLogger()
	}
	p.logger = p.logger.With(log.ComponentKey, "processor", log.PhaseKey, log.PhasePreprocessing)
	return p
}

// Encoder returns the label encoder fitted for column name.
func (p *DataProcessor) Encoder(name string) (*preprocessing.LabelEncoder, bool) {
	enc, _, ok := p.encoder(name)
	return enc, ok
}

func (p *DataProcessor) encoder(name string) (*preprocessing.LabelEncoder, series.Type, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cached, ok := p.encoders[name]
	return cached.encoder, cached.sourceType, ok
}

// Scaler returns the scaler fitted for column name.
func (p *DataProcessor) Scaler(name string) (preprocessing.Scaler, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sc, ok := p.scalers[name]
	return sc, ok
}

// Encoders lists the columns with a cached label encoder, sorted.
func (p *DataProcessor) Encoders() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return sortedKeys(p.encoders)
}

// Scalers lists the columns with a cached scaler, sorted.
func (p *DataProcessor) Scalers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return sortedKeys(p.scalers)
}

// ResetCaches forgets every fitted encoder and scaler.
func (p *DataProcessor) ResetCaches() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.encoders = make(map[string]encodedColumn)
	p.scalers = make(map[string]preprocessing.Scaler)
}

func (p *DataProcessor) storeEncoder(name string, enc *preprocessing.LabelEncoder, sourceType series.Type) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.encoders[name] = encodedColumn{encoder: enc, sourceType: sourceType}
}

func (p *DataProcessor) storeScaler(name string, sc preprocessing.Scaler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scalers[name] = sc
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func requireData(op string, data *dataset.Dataset) error {
	if data == nil {
		return errors.NewValidationError("data", op+" requires a dataset", nil)
	}
	return nil
}

// OperationInfo names a processor operation and what it does.
type OperationInfo struct {
	Name        string
	Description string
}

var operations = []OperationInfo{
	{"ReadData", "Read a delimited text file into a Dataset. Returns an error and no dataset if the file cannot be read."},
	{"DropColumns", "Remove the named columns. Unknown names are skipped and reported."},
	{"DropRows", "Remove the rows at the given positions (negative counts from the end). Invalid positions are skipped and reported."},
	{"Sanitize", "Keep only the rows without a missing value in any column."},
	{"ScaleData", "Fit a scaler per mapped column, cache it, and replace the column with its scaled values."},
	{"EncodeCategories", "One-hot encode low-cardinality columns (dropping the first indicator) and label encode the rest, caching label encoders."},
	{"Split", "Split rows into a leading training slice and a trailing testing slice by ratio in [0, 1]."},
	{"SeparateIO", "Project the dataset onto input fields and output fields with the same row alignment."},
	{"DecodeColumn", "Restore a label-encoded column using its cached encoder."},
	{"InverseScale", "Restore a scaled column using its cached scaler."},
	{"Contents", "List the available operations with their descriptions."},
}

// Contents lists the available operations with their descriptions.
func (p *DataProcessor) Contents() []OperationInfo {
	return append([]OperationInfo(nil), operations...)
}

// WriteContents prints Contents to w.
func (p *DataProcessor) WriteContents(w io.Writer) error {
	for _, op := range operations {
		if _, err := fmt.Fprintf(w, "Method name: %s\nMethod description: %s\n\n", op.Name, op.Description); err != nil {
			return err
		}
	}
	return nil
}
