// Package dataprep is a small toolkit for cleaning tabular data before it is
// handed to a model.
//
// A delimited text file is read into a dataset.Dataset, an ordered set of
// typed gota series with stable row labels, and a processor.DataProcessor
// applies independent transforms to it. Every transform returns a new
// dataset; inputs are never modified.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/dataprep/preprocessing"
//	    "github.com/YuminosukeSato/dataprep/processor"
//	)
//
//	func main() {
//	    p := processor.New()
//
//	    data, err := p.ReadData("customers.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    data, _ = p.DropColumns(data, []string{"id"})
//	    data, _ = p.Sanitize(data)
//	    data, _ = p.ScaleData(data, map[string]preprocessing.ScalerKind{
//	        "age": preprocessing.StandardScaling,
//	    })
//	    data, _ = p.EncodeCategories(data, processor.WithDoNotEncode("age", "churned"))
//
//	    train, test, err := p.Split(data, 0.8)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(train.Nrow(), test.Nrow())
//	}
//
// # Errors
//
// A bad scalar parameter (split ratio, encode threshold, unknown scaler kind)
// fails the call with a *errors.ValidationError and no result. Column names
// and row positions that cannot be resolved are skipped: the operation
// returns the result built from the rest together with a
// *errors.SelectionError listing what was skipped, and logs a warning for
// each. Callers that only care about the data may ignore that error.
//
// # Packages
//
//   - dataset: the Dataset type and the CSV reader
//   - processor: DataProcessor and its encoder and scaler caches
//   - preprocessing: StandardScaler, MinMaxScaler, MaxAbsScaler, LabelEncoder, OneHotEncoder
//   - core/model: fitted state and transformer interfaces
//   - core/parallel: chunked parallel loops
//   - pkg/errors: error and warning types
//   - pkg/log: structured logging on slog or zerolog
package dataprep
