// Standard attribute keys for dataset operations.
//
// Keys follow a hierarchical naming convention ("ml.operation",
// "data.samples") so logs from different operations can be filtered together.

package log

// Operation context
const (
	// ModelNameKey identifies the transform type.
	// Examples: "StandardScaler", "LabelEncoder"
	ModelNameKey = "model.name"

	// OperationKey specifies the processor operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	// Examples: "processor", "dataset"
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase.
	PhaseKey = "ml.phase"
)

// Data shape
const (
	// SamplesKey is the number of rows in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of columns in the dataset.
	FeaturesKey = "data.features"

	// ColumnKey names the column an entry refers to.
	ColumnKey = "data.column"

	// RowKey is the row position an entry refers to.
	RowKey = "data.row"

	// CardinalityKey is the number of distinct values of a column.
	CardinalityKey = "data.cardinality"

	// PathKey is the input file path.
	PathKey = "data.path"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"

	// MissingColumnsKey lists the column names an operation could not resolve.
	MissingColumnsKey = "error.missing_columns"

	// InvalidRowsKey lists the row positions an operation could not resolve.
	InvalidRowsKey = "error.invalid_rows"

	// FailedColumnsKey lists the columns a transform left unchanged.
	FailedColumnsKey = "error.failed_columns"
)

// Standard operation names.
const (
	OperationReadData         = "read_data"
	OperationDropColumns      = "drop_columns"
	OperationDropRows         = "drop_rows"
	OperationSanitize         = "sanitize"
	OperationScaleData        = "scale_data"
	OperationEncodeCategories = "encode_categories"
	OperationSplit            = "split"
	OperationSeparateIO       = "separate_io"
	OperationFit              = "fit"
	OperationTransform        = "transform"

	PhasePreprocessing = "preprocessing"

	ErrorUnknownColumn    = "UNKNOWN_COLUMN"
	ErrorInvalidRow       = "INVALID_ROW"
	ErrorInvalidParameter = "INVALID_PARAMETER"
	ErrorUnreadableInput  = "UNREADABLE_INPUT"
	ErrorTransformFailed  = "TRANSFORM_FAILED"
)
