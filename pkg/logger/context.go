package logger

import (
	"context"
	"log/slog"
)

type workflowKey struct{}

type workflowScope struct {
	workflowID string
	stepID     string
}

// ContextWithWorkflow tags ctx with the workflow instance and step being
// executed. Loggers built by New or Contextual log both ids for any record
// written with the returned context.
func ContextWithWorkflow(ctx context.Context, workflowID, stepID string) context.Context {
	return context.WithValue(ctx, workflowKey{}, workflowScope{workflowID: workflowID, stepID: stepID})
}

// WorkflowFromContext returns the ids stored by ContextWithWorkflow.
func WorkflowFromContext(ctx context.Context) (workflowID, stepID string, ok bool) {
	scope, ok := ctx.Value(workflowKey{}).(workflowScope)
	return scope.workflowID, scope.stepID, ok
}

func workflowExtractor(ctx context.Context) (slog.Attr, bool) {
	id, _, ok := WorkflowFromContext(ctx)
	if !ok || id == "" {
		return slog.Attr{}, false
	}
	return WorkflowID(id), true
}

func stepExtractor(ctx context.Context) (slog.Attr, bool) {
	_, id, ok := WorkflowFromContext(ctx)
	if !ok || id == "" {
		return slog.Attr{}, false
	}
	return StepID(id), true
}

// Contextual wraps l with the workflow extractors. Loggers that already
// decorate their handler are returned unchanged.
func Contextual(l *slog.Logger) *slog.Logger {
	if l == nil {
		return nil
	}
	if _, ok := l.Handler().(*LogHandlerDecorator); ok {
		return l
	}
	return slog.New(NewLogHandlerDecorator(l.Handler(), workflowExtractor, stepExtractor))
}
