package model

import "gonum.org/v1/gonum/mat"

// Transformer は数値列の変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InverseTransformer は逆変換可能な変換器のインターフェース
type InverseTransformer interface {
	Transformer

	// InverseTransform は変換を逆方向に適用する
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

// CategoricalEncoder はカテゴリ値（文字列）を学習するエンコーダのインターフェース
type CategoricalEncoder interface {
	// Fit はカテゴリの集合を学習する
	Fit(values []string) error

	// Classes は学習したカテゴリをエンコード順に返す
	Classes() []string

	// IsFitted は学習済みかどうかを返す
	IsFitted() bool
}
