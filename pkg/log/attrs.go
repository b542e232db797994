package log

import "log/slog"

func FlowKey[T ~string](key T) slog.Attr {
	return slog.String("flow_key", string(key))
}

func FlowType[T ~string](name T) slog.Attr {
	return slog.String("flow_type", string(name))
}

func Activity[T ~string](name T) slog.Attr {
	return slog.String("activity", string(name))
}

func Property[T ~string](name T) slog.Attr {
	return slog.String("property", string(name))
}

func Namespace[T ~string](ns T) slog.Attr {
	return slog.String("namespace", string(ns))
}

func State[T ~string](state T) slog.Attr {
	return slog.String("state", string(state))
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}
