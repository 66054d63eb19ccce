package log

import "log/slog"

func FlowID[T ~string](id T) slog.Attr {
	return slog.String("flow_id", string(id))
}

func Kind(kind string) slog.Attr {
	return slog.String("kind", kind)
}

func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
