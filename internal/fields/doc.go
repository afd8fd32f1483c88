// Package fields turns delimited input rows into canonical reference entries.
//
// Input files come in several historical layouts: the current column names,
// legacy short names (norm_low, prep, ...) and headerless exports addressed by
// column position. An Aliases table lists, per canonical Field, the column names
// that may carry it; Resolve picks the first alias with a non-blank value.
package fields
