// Package logger builds *slog.Logger instances for notifyplan components and
// provides attribute helpers so every package logs the same keys.
//
// New takes functional options selecting the output format, level, static
// attributes and context extractors. The resulting handler is wrapped by
// LogHandlerDecorator, which adds attributes pulled from the context.Context
// passed to each *Context logging call.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithProduction("notifications"),
//	    logger.WithContextValue("tenant_id", tenantKey{}),
//	)
//
//	log.LogAttrs(ctx, slog.LevelWarn, "channel delivery failed",
//	    logger.NotificationID(rec.ID),
//	    logger.Channel(notifications.ChannelSMS),
//	    logger.Error(err),
//	)
//
// The workflow engine tags each step's context with ContextWithWorkflow.
// Loggers from New, and any logger passed through Contextual, then add
// workflow_id and step_id to records written by the orchestrator and the
// transports during that step.
//
// Helpers such as Error, UserID and WorkflowID return an empty slog.Attr for
// nil or empty input, so they can be passed without additional checks.
package logger
