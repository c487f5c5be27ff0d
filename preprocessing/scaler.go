package preprocessing

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/dataprep/core/model"
	"github.com/YuminosukeSato/dataprep/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler は列ごとに学習する数値スケーラーの共通インターフェース
type Scaler interface {
	model.InverseTransformer
	IsFitted() bool
	String() string
}

// ScalerKind はスケーラーの種類を表す閉じた列挙型
// 呼び出し側はクラスではなくこのタグを渡し、インスタンスはNewで生成する
type ScalerKind int

const (
	// StandardScaling は平均0・標準偏差1への標準化
	StandardScaling ScalerKind = iota
	// MinMaxScaling は[0,1]への正規化
	MinMaxScaling
	// MaxAbsScaling は最大絶対値による[-1,1]への正規化
	MaxAbsScaling
)

// String はスケーラー種別の名前を返す
func (k ScalerKind) String() string {
	switch k {
	case StandardScaling:
		return "standard"
	case MinMaxScaling:
		return "minmax"
	case MaxAbsScaling:
		return "maxabs"
	default:
		return fmt.Sprintf("ScalerKind(%d)", int(k))
	}
}

// New は種別に対応する未学習のスケーラーを生成する
func (k ScalerKind) New() (Scaler, error) {
	switch k {
	case StandardScaling:
		return NewStandardScalerDefault(), nil
	case MinMaxScaling:
		return NewMinMaxScalerDefault(), nil
	case MaxAbsScaling:
		return NewMaxAbsScaler(), nil
	default:
		return nil, errors.NewValidationError("scaler_kind", "unknown scaler kind", int(k))
	}
}

// ParseScalerKind は名前（"standard", "minmax", "maxabs"）からScalerKindを得る
func ParseScalerKind(name string) (ScalerKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "standard", "standardscaler":
		return StandardScaling, nil
	case "minmax", "minmaxscaler":
		return MinMaxScaling, nil
	case "maxabs", "maxabsscaler":
		return MaxAbsScaling, nil
	default:
		return 0, errors.NewValidationError("scaler_kind", "unknown scaler name", name)
	}
}

// checkInput は空データと非有限値を拒否する
func checkInput(op string, X mat.Matrix) (r, c int, err error) {
	r, c = X.Dims()
	if r == 0 || c == 0 {
		return r, c, errors.NewOpError(op, "empty data", errors.ErrEmptyData)
	}
	if err := errors.CheckMatrix(op, X, r, c); err != nil {
		return r, c, err
	}
	return r, c, nil
}

// StandardScaler は標準化スケーラー
// データを平均0、標準偏差1に変換する
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各列の平均値
	Mean []float64

	// Scale は各列の標準偏差（母標準偏差）
	Scale []float64

	// NFeatures は列の数
	NFeatures int

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c, err := checkInput("StandardScaler.Fit", X)
	if err != nil {
		return err
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, variance := stat.PopMeanVariance(col, nil)

		if s.WithMean {
			s.Mean[j] = mean
		}

		s.Scale[j] = 1.0
		if s.WithStd {
			// 標準偏差が0に近い場合は1のまま（ゼロ除算を避ける）
			if std := math.Sqrt(variance); std >= 1e-8 {
				s.Scale[j] = std
			}
		}
	}

	s.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各列の幅 (max - min)、定数列では1
	Scale []float64

	// NFeatures は列の数
	NFeatures int

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	if m.FeatureRange[0] >= m.FeatureRange[1] {
		return errors.NewValidationError("feature_range", "minimum must be smaller than maximum", m.FeatureRange)
	}
	r, c, err := checkInput("MinMaxScaler.Fit", X)
	if err != nil {
		return err
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		m.DataMin[j] = floats.Min(col)
		m.DataMax[j] = floats.Max(col)

		// 定数列の場合、スケールを1に設定
		m.Scale[j] = 1.0
		if dataRange := m.DataMax[j] - m.DataMin[j]; math.Abs(dataRange) >= 1e-8 {
			m.Scale[j] = dataRange
		}
	}

	m.SetFitted()
	return nil
}

// Transform は学習済みの最小値・最大値を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", m.NFeatures, c, 1)
	}

	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v-m.DataMin[j])/m.Scale[j]*featureRange + m.FeatureRange[0]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.InverseTransform", m.NFeatures, c, 1)
	}

	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v-m.FeatureRange[0])/featureRange*m.Scale[j] + m.DataMin[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}

// MaxAbsScaler は各列を最大絶対値で割り、[-1,1]に収める
// 平均を引かないため疎なデータの0を保つ
type MaxAbsScaler struct {
	model.BaseEstimator

	// MaxAbs は各列の最大絶対値
	MaxAbs []float64

	// NFeatures は列の数
	NFeatures int
}

// NewMaxAbsScaler は新しいMaxAbsScalerを作成する
func NewMaxAbsScaler() *MaxAbsScaler {
	return &MaxAbsScaler{}
}

// Fit は各列の最大絶対値を計算する
func (a *MaxAbsScaler) Fit(X mat.Matrix) error {
	r, c, err := checkInput("MaxAbsScaler.Fit", X)
	if err != nil {
		return err
	}

	a.NFeatures = c
	a.MaxAbs = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		a.MaxAbs[j] = math.Max(math.Abs(floats.Min(col)), math.Abs(floats.Max(col)))
	}

	a.SetFitted()
	return nil
}

// Transform は学習済みの最大絶対値でデータを割る
func (a *MaxAbsScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !a.IsFitted() {
		return nil, errors.NewNotFittedError("MaxAbsScaler", "Transform")
	}

	r, c := X.Dims()
	if c != a.NFeatures {
		return nil, errors.NewDimensionError("MaxAbsScaler.Transform", a.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return errors.SafeDivide(v, a.MaxAbs[j])
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (a *MaxAbsScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := a.Fit(X); err != nil {
		return nil, err
	}
	return a.Transform(X)
}

// InverseTransform はスケーリングされたデータを元に戻す
func (a *MaxAbsScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !a.IsFitted() {
		return nil, errors.NewNotFittedError("MaxAbsScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != a.NFeatures {
		return nil, errors.NewDimensionError("MaxAbsScaler.InverseTransform", a.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		if math.Abs(a.MaxAbs[j]) < 1e-8 {
			return v
		}
		return v * a.MaxAbs[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (a *MaxAbsScaler) String() string {
	if !a.IsFitted() {
		return "MaxAbsScaler()"
	}
	return fmt.Sprintf("MaxAbsScaler(n_features=%d)", a.NFeatures)
}

var (
	_ Scaler = (*StandardScaler)(nil)
	_ Scaler = (*MinMaxScaler)(nil)
	_ Scaler = (*MaxAbsScaler)(nil)
)
