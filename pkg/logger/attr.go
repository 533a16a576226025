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

// UserID records the recipient identifier under the key "user_id".
// Empty ids produce an empty Attr.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// NotificationID records the notification record identifier under the key "notification_id".
// Empty ids produce an empty Attr.
func NotificationID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("notification_id", id)
}

// NotificationType records a notification type under the key "notification_type".
func NotificationType[T ~string](t T) slog.Attr {
	return slog.String("notification_type", string(t))
}

// Channel records a delivery channel under the key "channel".
func Channel[T ~string](ch T) slog.Attr {
	return slog.String("channel", string(ch))
}

// Channels records a list of delivery channels under the key "channels".
func Channels[T ~string](chs []T) slog.Attr {
	names := make([]string, len(chs))
	for i, ch := range chs {
		names[i] = string(ch)
	}
	return slog.Any("channels", names)
}

// Priority records a notification priority under the key "priority".
func Priority[T ~string](p T) slog.Attr {
	return slog.String("priority", string(p))
}

// WorkflowID records the workflow instance identifier under the key "workflow_id".
// Empty ids produce an empty Attr.
func WorkflowID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("workflow_id", id)
}

// StepID records the workflow step identifier under the key "step_id".
func StepID(id string) slog.Attr {
	return slog.String("step_id", id)
}

// StepType records the workflow step type under the key "step_type".
func StepType[T ~string](t T) slog.Attr {
	return slog.String("step_type", string(t))
}

// Count records a number of items under the key "count".
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
