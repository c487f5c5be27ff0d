package preprocessing

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/YuminosukeSato/dataprep/core/model"
	"github.com/YuminosukeSato/dataprep/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SortCategories はvaluesの重複を除き、エンコード順に並べて返す
// 全ての値が数値として解釈できる場合は数値順、それ以外は辞書順
func SortCategories(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}

	numeric := make([]float64, len(unique))
	allNumeric := true
	for i, v := range unique {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			allNumeric = false
			break
		}
		numeric[i] = f
	}

	if allNumeric {
		idx := make([]int, len(unique))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return numeric[idx[a]] < numeric[idx[b]] })
		sorted := make([]string, len(unique))
		for i, k := range idx {
			sorted[i] = unique[k]
		}
		return sorted
	}

	sort.Strings(unique)
	return unique
}

// LabelEncoder はカテゴリ値を0..n-1の整数に変換する
// クラスはSortCategoriesの順に番号付けされる
type LabelEncoder struct {
	model.BaseEstimator

	classes []string
	index   map[string]int
}

// NewLabelEncoder は新しいLabelEncoderを作成する
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit はカテゴリの集合を学習する
func (le *LabelEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return errors.NewOpError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	le.classes = SortCategories(values)
	le.index = make(map[string]int, len(le.classes))
	for i, c := range le.classes {
		le.index[c] = i
	}

	le.SetFitted()
	return nil
}

// Transform は値を整数コードに変換する
// 学習していない値が含まれる場合はErrUnknownCategoryを返す
func (le *LabelEncoder) Transform(values []string) ([]int, error) {
	if !le.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "Transform")
	}

	codes := make([]int, len(values))
	for i, v := range values {
		code, ok := le.index[v]
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnknownCategory, "LabelEncoder.Transform: %q at row %d", v, i)
		}
		codes[i] = code
	}
	return codes, nil
}

// FitTransform は学習と変換を同時に実行する
func (le *LabelEncoder) FitTransform(values []string) ([]int, error) {
	if err := le.Fit(values); err != nil {
		return nil, err
	}
	return le.Transform(values)
}

// InverseTransform は整数コードを元の値に戻す
func (le *LabelEncoder) InverseTransform(codes []int) ([]string, error) {
	if !le.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "InverseTransform")
	}

	values := make([]string, len(codes))
	for i, code := range codes {
		if code < 0 || code >= len(le.classes) {
			return nil, errors.Wrapf(errors.ErrUnknownCategory, "LabelEncoder.InverseTransform: code %d at row %d", code, i)
		}
		values[i] = le.classes[code]
	}
	return values, nil
}

// Classes は学習したクラスをコード順に返す
func (le *LabelEncoder) Classes() []string {
	return append([]string(nil), le.classes...)
}

// String はエンコーダの文字列表現を返す
func (le *LabelEncoder) String() string {
	if !le.IsFitted() {
		return "LabelEncoder()"
	}
	return fmt.Sprintf("LabelEncoder(n_classes=%d)", len(le.classes))
}

// OneHotEncoder はカテゴリ値を指示変数（0/1）の列に展開する
type OneHotEncoder struct {
	model.BaseEstimator

	// DropFirst は最初のカテゴリの列を落として多重共線性を避けるかどうか
	DropFirst bool

	categories []string
}

// NewOneHotEncoder は新しいOneHotEncoderを作成する
func NewOneHotEncoder(dropFirst bool) *OneHotEncoder {
	return &OneHotEncoder{DropFirst: dropFirst}
}

// Fit はカテゴリの集合を学習する
func (oh *OneHotEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return errors.NewOpError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	oh.categories = SortCategories(values)
	oh.SetFitted()
	return nil
}

// Classes は学習したカテゴリを返す（落とした列のカテゴリも含む）
func (oh *OneHotEncoder) Classes() []string {
	return append([]string(nil), oh.categories...)
}

// outputCategories は出力列に対応するカテゴリを返す
func (oh *OneHotEncoder) outputCategories() []string {
	if oh.DropFirst && len(oh.categories) > 0 {
		return oh.categories[1:]
	}
	return oh.categories
}

// NOutputs は出力列の数を返す
func (oh *OneHotEncoder) NOutputs() int {
	return len(oh.outputCategories())
}

// FeatureNames は出力列の名前を "<prefix>_<category>" の形で返す
func (oh *OneHotEncoder) FeatureNames(prefix string) []string {
	cats := oh.outputCategories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = prefix + "_" + c
	}
	return names
}

// Transform は値を len(values) × NOutputs() の指示行列に変換する
// missingがtrueの行や学習していない値の行は全て0になる
// 出力列が0本の場合はnilを返す
func (oh *OneHotEncoder) Transform(values []string, missing []bool) (*mat.Dense, error) {
	if !oh.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	if missing != nil && len(missing) != len(values) {
		return nil, errors.NewDimensionError("OneHotEncoder.Transform", len(values), len(missing), 0)
	}

	cats := oh.outputCategories()
	if len(cats) == 0 || len(values) == 0 {
		return nil, nil
	}
	col := make(map[string]int, len(cats))
	for j, c := range cats {
		col[c] = j
	}

	result := mat.NewDense(len(values), len(cats), nil)
	for i, v := range values {
		if missing != nil && missing[i] {
			continue
		}
		if j, ok := col[v]; ok {
			result.Set(i, j, 1)
		}
	}
	return result, nil
}

// String はエンコーダの文字列表現を返す
func (oh *OneHotEncoder) String() string {
	if !oh.IsFitted() {
		return fmt.Sprintf("OneHotEncoder(drop_first=%t)", oh.DropFirst)
	}
	return fmt.Sprintf("OneHotEncoder(drop_first=%t, n_categories=%d)", oh.DropFirst, len(oh.categories))
}

var (
	_ model.CategoricalEncoder = (*LabelEncoder)(nil)
	_ model.CategoricalEncoder = (*OneHotEncoder)(nil)
)
