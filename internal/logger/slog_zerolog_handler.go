package logger

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// NewSlog wraps a zerolog logger in the slog API. Request-scoped fields
// stored on the context (request id, collection, component) are attached to
// every record.
func NewSlog(zl *zerolog.Logger) *slog.Logger {
	return slog.New(&slogAdapter{zl: zl})
}

type slogAdapter struct {
	zl    *zerolog.Logger
	attrs []slog.Attr
}

func (a *slogAdapter) Enabled(context.Context, slog.Level) bool { return true }

func (a *slogAdapter) Handle(ctx context.Context, rec slog.Record) error {
	ev := a.event(rec.Level)

	for _, key := range []ctxKey{ctxReqIDKey, ctxCollectionKey, ctxComponentKey} {
		if s, ok := ctx.Value(key).(string); ok && s != "" {
			ev = ev.Str(string(key), s)
		}
	}

	for _, attr := range a.attrs {
		ev = appendAttr(ev, attr)
	}
	rec.Attrs(func(attr slog.Attr) bool {
		ev = appendAttr(ev, attr)
		return true
	})

	ev.Msg(rec.Message)
	return nil
}

func (a *slogAdapter) event(level slog.Level) *zerolog.Event {
	switch {
	case level >= slog.LevelError:
		return a.zl.Error()
	case level >= slog.LevelWarn:
		return a.zl.Warn()
	case level >= slog.LevelInfo:
		return a.zl.Info()
	default:
		return a.zl.Debug()
	}
}

func (a *slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(a.attrs)+len(attrs))
	merged = append(merged, a.attrs...)
	merged = append(merged, attrs...)
	return &slogAdapter{zl: a.zl, attrs: merged}
}

func (a *slogAdapter) WithGroup(string) slog.Handler { return a }

func appendAttr(ev *zerolog.Event, attr slog.Attr) *zerolog.Event {
	v := attr.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return ev.Str(attr.Key, v.String())
	case slog.KindInt64:
		return ev.Int64(attr.Key, v.Int64())
	case slog.KindUint64:
		return ev.Uint64(attr.Key, v.Uint64())
	case slog.KindFloat64:
		return ev.Float64(attr.Key, v.Float64())
	case slog.KindBool:
		return ev.Bool(attr.Key, v.Bool())
	case slog.KindDuration:
		return ev.Dur(attr.Key, v.Duration())
	default:
		return ev.Interface(attr.Key, v.Any())
	}
}
