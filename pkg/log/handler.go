package log

import (
	"context"
	"log/slog"
	"sort"

	"github.com/cockroachdb/errors"

	dperrors "github.com/YuminosukeSato/dataprep/pkg/errors"
)

// ErrFmtHandler is a slog handler for records carrying an ErrAttrKey attribute.
// It adds the stacktrace recorded by cockroachdb/errors, and when the error is
// a *errors.SelectionError it also adds the skipped selectors as attributes
// (MissingColumnsKey, InvalidRowsKey, FailedColumnsKey) so they can be
// filtered on without parsing the message.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{
		handler: handler,
	}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == ErrAttrKey {
			err, _ = attr.Value.Any().(error)
			return false
		}
		return true
	})
	if err == nil {
		return eh.handler.Handle(ctx, r)
	}

	if stacktrace := extractStacktrace(err); stacktrace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, stacktrace))
	}
	r.AddAttrs(selectionAttrs(err)...)
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

// selectionAttrs は SelectionError の中身を属性に展開する
func selectionAttrs(err error) []slog.Attr {
	var selErr *dperrors.SelectionError
	if !errors.As(err, &selErr) {
		return nil
	}
	var attrs []slog.Attr
	if len(selErr.MissingColumns) > 0 {
		attrs = append(attrs, slog.Any(MissingColumnsKey, selErr.MissingColumns))
	}
	if len(selErr.InvalidRows) > 0 {
		attrs = append(attrs, slog.Any(InvalidRowsKey, selErr.InvalidRows))
	}
	if len(selErr.ColumnErrors) > 0 {
		failed := make([]string, 0, len(selErr.ColumnErrors))
		for name := range selErr.ColumnErrors {
			failed = append(failed, name)
		}
		sort.Strings(failed)
		attrs = append(attrs, slog.Any(FailedColumnsKey, failed))
	}
	return attrs
}
