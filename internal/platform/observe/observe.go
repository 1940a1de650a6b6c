// Package observe bundles the logging, audit, tracing, and metrics hooks each
// marketplace service calls around its operations.
package observe

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paperledger/internal/platform/metrics"
	"paperledger/pkg/attrs"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/audit"
	"paperledger/pkg/requestcontext"
)

const tracerName = "paperledger"

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Observer is owned by one service. All hooks are optional; a zero Observer
// only traces through the global (no-op by default) tracer provider.
type Observer struct {
	Module  string
	Logger  *slog.Logger
	Audit   AuditPublisher
	Metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(module string) *Observer {
	return &Observer{Module: module, tracer: otel.Tracer(tracerName)}
}

// Start opens a span for operation and returns a finish func that records
// the outcome. Use as:
//
//	ctx, finish := s.obs.Start(ctx, "purchase")
//	defer func() { finish(err) }()
func (o *Observer) Start(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, o.Module+"."+operation,
		trace.WithAttributes(attribute.String("request_id", requestcontext.RequestID(ctx))))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
			if o.Logger != nil && dErrors.HasCode(err, dErrors.CodeInternal) {
				o.Logger.ErrorContext(ctx, "operation failed",
					"module", o.Module,
					"operation", operation,
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
			}
		}
		span.End()
		o.Metrics.ObserveOperation(o.Module, operation, start, err)
	}
}

// LogAudit writes an audit log line and emits an audit event.
func (o *Observer) LogAudit(ctx context.Context, event audit.AuditEvent, actor domain.Identity, subject domain.Address, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if o.Logger != nil {
		args := append([]any{
			"module", o.Module,
			"actor", actor.String(),
			"subject", subject.String(),
		}, attributes...)
		if requestID != "" {
			args = append(args, "request_id", requestID)
		}
		args = append(args, "event", string(event), "log_type", "audit")
		o.Logger.InfoContext(ctx, string(event), args...)
	}
	if o.Audit == nil {
		return
	}
	_ = o.Audit.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Module:    o.Module,
		Action:    string(event),
		Actor:     actor.String(),
		Subject:   subject.String(),
		RequestID: requestID,
		Attrs:     attrs.ToStringMap(attributes),
	})
}
