package processor

import (
	"math"

	"github.com/YuminosukeSato/dataprep/core/parallel"
	"github.com/YuminosukeSato/dataprep/dataset"
	"github.com/YuminosukeSato/dataprep/pkg/errors"
	"github.com/YuminosukeSato/dataprep/pkg/log"
)

// ReadData loads a delimited text file. On failure it logs the cause and
// returns no dataset.
func (p *DataProcessor) ReadData(path string, opts ...dataset.ReadOption) (*dataset.Dataset, error) {
	ds, err := dataset.ReadCSVFile(path, opts...)
	if err != nil {
		p.logger.Warn("could not read data, check the file name and format",
			log.OperationKey, log.OperationReadData,
			log.PathKey, path,
			log.ErrorCodeKey, log.ErrorUnreadableInput,
			log.ErrAttrKey, err,
		)
		return nil, err
	}
	p.logger.Debug("data read",
		log.OperationKey, log.OperationReadData,
		log.PathKey, path,
		log.SamplesKey, ds.Nrow(),
		log.FeaturesKey, ds.Ncol(),
	)
	return ds, nil
}

// DropColumns returns data without the named columns. Unknown names are
// skipped and reported in a *errors.SelectionError alongside the result.
func (p *DataProcessor) DropColumns(data *dataset.Dataset, columns []string) (*dataset.Dataset, error) {
	const op = "DataProcessor.DropColumns"
	if err := requireData(op, data); err != nil {
		return nil, err
	}

	out, missing := data.Drop(columns)

	selErr := errors.NewSelectionError(op)
	for _, name := range missing {
		p.logger.Warn("there was a problem removing a column: not found",
			log.OperationKey, log.OperationDropColumns,
			log.ColumnKey, name,
			log.ErrorCodeKey, log.ErrorUnknownColumn,
		)
		selErr.MissingColumns = append(selErr.MissingColumns, name)
	}
	return out, selErr.Err()
}

// DropRows returns data without the rows at positions. Each position is
// resolved to its row label first, so all rows are removed at once and the
// positions refer to the input. Negative positions count from the end.
// Invalid positions are skipped and reported.
func (p *DataProcessor) DropRows(data *dataset.Dataset, positions []int) (*dataset.Dataset, error) {
	const op = "DataProcessor.DropRows"
	if err := requireData(op, data); err != nil {
		return nil, err
	}

	selErr := errors.NewSelectionError(op)
	labels := make([]int, 0, len(positions))
	for _, pos := range positions {
		label, ok := data.Label(pos)
		if !ok {
			p.logger.Warn("there was a problem removing a row: position out of range",
				log.OperationKey, log.OperationDropRows,
				log.RowKey, pos,
				log.SamplesKey, data.Nrow(),
				log.ErrorCodeKey, log.ErrorInvalidRow,
			)
			selErr.InvalidRows = append(selErr.InvalidRows, pos)
			continue
		}
		labels = append(labels, label)
	}

	return data.DropLabels(labels), selErr.Err()
}

// Sanitize returns the rows of data that have no missing value in any column.
func (p *DataProcessor) Sanitize(data *dataset.Dataset) (*dataset.Dataset, error) {
	const op = "DataProcessor.Sanitize"
	if err := requireData(op, data); err != nil {
		return nil, err
	}

	masks := data.Missing()
	keep := make([]bool, data.Nrow())
	parallel.ParallelizeWithThreshold(len(keep), p.parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			keep[i] = true
			for _, mask := range masks {
				if mask[i] {
					keep[i] = false
					break
				}
			}
		}
	})

	out, err := data.Filter(keep)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("rows with missing values removed",
		log.OperationKey, log.OperationSanitize,
		log.SamplesKey, out.Nrow(),
		"data.removed", data.Nrow()-out.Nrow(),
	)
	return out, nil
}

// Split cuts data into a leading training slice of floor(ratio*n) rows and a
// trailing testing slice holding the rest. ratio must be in [0, 1].
func (p *DataProcessor) Split(data *dataset.Dataset, ratio float64) (train, test *dataset.Dataset, err error) {
	const op = "DataProcessor.Split"
	if err := requireData(op, data); err != nil {
		return nil, nil, err
	}
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		p.logger.Warn("incorrect value for split, expected a number in the range [0, 1]",
			log.OperationKey, log.OperationSplit,
			"split", ratio,
			log.ErrorCodeKey, log.ErrorInvalidParameter,
		)
		return nil, nil, errors.NewValidationError("split", "must be in [0, 1]", ratio)
	}

	n := data.Nrow()
	cut := int(math.Floor(ratio * float64(n)))
	if train, err = data.Slice(0, cut); err != nil {
		return nil, nil, err
	}
	if test, err = data.Slice(cut, n); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// SeparateIO projects data onto inputFields and onto outputFields. Both
// results keep the row labels of data. Unknown names are skipped and reported.
func (p *DataProcessor) SeparateIO(data *dataset.Dataset, inputFields, outputFields []string) (inputs, outputs *dataset.Dataset, err error) {
	const op = "DataProcessor.SeparateIO"
	if err := requireData(op, data); err != nil {
		return nil, nil, err
	}

	inputs, missingIn := data.Select(inputFields)
	outputs, missingOut := data.Select(outputFields)

	selErr := errors.NewSelectionError(op)
	seen := make(map[string]struct{})
	for _, name := range append(missingIn, missingOut...) {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		p.logger.Warn("field not found",
			log.OperationKey, log.OperationSeparateIO,
			log.ColumnKey, name,
			log.ErrorCodeKey, log.ErrorUnknownColumn,
		)
		selErr.MissingColumns = append(selErr.MissingColumns, name)
	}
	return inputs, outputs, selErr.Err()
}
