package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Machine records the state machine name under the key "machine".
func Machine(name string) slog.Attr {
	return slog.String("machine", name)
}

// State records a state name under the key "state".
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// Callback records a callback name under the key "callback".
func Callback(name string) slog.Attr {
	return slog.String("callback", name)
}

// Phase records a dispatch phase under the key "phase".
func Phase(name string) slog.Attr {
	return slog.String("phase", name)
}

// Reason records why a state change happened under the key "reason".
func Reason(reason string) slog.Attr {
	return slog.String("reason", reason)
}

// Transition groups the outbound and inbound state names under "transition".
func Transition(from, to string) slog.Attr {
	return Group("transition", slog.String("from", from), slog.String("to", to))
}

// Lifecycle groups a host lifecycle change under "lifecycle".
func Lifecycle(from, to string) slog.Attr {
	return Group("lifecycle", slog.String("from", from), slog.String("to", to))
}

// Frame records the host frame number under the key "frame".
func Frame(n uint64) slog.Attr {
	return slog.Uint64("frame", n)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}
