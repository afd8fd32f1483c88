package history

import (
	"git.home.luguber.info/inful/labref/internal/foundation/errors"
)

var (
	// ErrOpenFailed indicates the SQLite database could not be opened.
	ErrOpenFailed = errors.HistoryError("could not open build history database").Build()

	// ErrSchemaFailed indicates the database schema could not be initialized.
	ErrSchemaFailed = errors.HistoryError("failed to initialize build history schema").Build()

	// ErrAppendFailed indicates recording a build failed.
	ErrAppendFailed = errors.HistoryError("failed to record build").Build()

	// ErrQueryFailed indicates reading builds failed.
	ErrQueryFailed = errors.HistoryError("failed to query build history").Build()

	// ErrNotFound indicates no build carries the requested id.
	ErrNotFound = errors.HistoryError("build not found").Build()
)
