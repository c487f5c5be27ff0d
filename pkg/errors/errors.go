// Package errors はdataprep全体のエラーハンドリングと警告システムを提供します。
// 選択子単位の失敗（列・行の不在）とパラメータ検証の失敗を区別し、
// 構造化されたエラー情報を返します。
package errors

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("dataprep-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nilを渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// DataConversionWarning は列の型が暗黙的に変換された場合に発生する警告です。
// 例えば、Int列をスケーリングするとFloat列に置き換わります。
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning は新しいDataConversionWarningを作成します。
func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError は未学習の変換器で `Transform` などを呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("dataprep: %s: this transform is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

func (e *DimensionError) Error() string {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("dataprep: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
// このエラーが返された操作は結果を返しません。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dataprep: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// OpError は操作全体が失敗した場合の一般的なエラーです。
// 読み込めない入力ファイルや空のデータなど。
type OpError struct {
	Op   string
	Kind string
	Err  error
}

func (e *OpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dataprep: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("dataprep: %s: %s", e.Op, e.Kind)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError は新しいOpErrorを作成し、スタックトレースを付与します。
func NewOpError(op, kind string, err error) error {
	opErr := &OpError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(opErr)
}

// SelectionError は一部の選択子（列名・行位置）が解決できなかったことを表します。
// 操作自体は続行され、解決できた選択子だけを適用した部分結果と一緒に返されます。
type SelectionError struct {
	Op             string
	MissingColumns []string
	InvalidRows    []int
	// ColumnErrors は列ごとの変換失敗（非数値列、欠損値を含む列など）
	ColumnErrors map[string]error
}

func (e *SelectionError) Error() string {
	var parts []string
	if len(e.MissingColumns) > 0 {
		parts = append(parts, fmt.Sprintf("unknown columns %v", e.MissingColumns))
	}
	if len(e.InvalidRows) > 0 {
		parts = append(parts, fmt.Sprintf("invalid row positions %v", e.InvalidRows))
	}
	if len(e.ColumnErrors) > 0 {
		names := make([]string, 0, len(e.ColumnErrors))
		for name := range e.ColumnErrors {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("column %q: %v", name, e.ColumnErrors[name]))
		}
	}
	return fmt.Sprintf("dataprep: %s: skipped %s", e.Op, strings.Join(parts, "; "))
}

// Empty は報告すべき失敗がないかどうかを返します。
func (e *SelectionError) Empty() bool {
	return len(e.MissingColumns) == 0 && len(e.InvalidRows) == 0 && len(e.ColumnErrors) == 0
}

// AddColumnError は列ごとの失敗を記録します。
func (e *SelectionError) AddColumnError(column string, err error) {
	if e.ColumnErrors == nil {
		e.ColumnErrors = make(map[string]error)
	}
	e.ColumnErrors[column] = err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SelectionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Strs("missing_columns", e.MissingColumns).
		Ints("invalid_rows", e.InvalidRows).
		Int("column_errors", len(e.ColumnErrors)).
		Str("type", "SelectionError")
}

// NewSelectionError は空のSelectionErrorを作成します。
// 失敗を記録した後、Err で error に変換してください。
func NewSelectionError(op string) *SelectionError {
	return &SelectionError{Op: op}
}

// Err は失敗が記録されていればスタックトレース付きのerrorを返し、なければnilを返します。
func (e *SelectionError) Err() error {
	if e.Empty() {
		return nil
	}
	return errors.WithStack(e)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// NumericalInstabilityError は変換の入力や出力にNaN・Infが含まれる場合のエラーです。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "StandardScaler.Fit"）
	Values    []float64 // 問題のある値
	Row       int       // 最初に見つかった行
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("dataprep: non-finite values in %s at row %d. Values: [%s]",
		e.Operation, e.Row, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, row int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Row:       row,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrNonNumeric は数値でない列に数値変換を適用しようとした場合のエラーです。
	ErrNonNumeric = New("non-numeric column")

	// ErrMissingValues は欠損値を含む列を変換しようとした場合のエラーです。
	ErrMissingValues = New("column contains missing values")

	// ErrUnknownCategory はエンコーダが学習していない値を変換しようとした場合のエラーです。
	ErrUnknownCategory = New("unknown category")

	// ErrDuplicateColumn は列名が重複する場合のエラーです。
	ErrDuplicateColumn = New("duplicate column name")
)
