package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	invitationCounter   metric.Int64Counter
	acceptDuration      metric.Float64Histogram
	invitationConflicts metric.Int64Counter
)

// InitWorkflowMetrics creates the invitation lifecycle instruments on the global meter.
func InitWorkflowMetrics() error {
	meter := otel.Meter("artel.invitation")

	var err error
	invitationCounter, err = meter.Int64Counter(
		"invitation.transitions",
		metric.WithDescription("Invitation lifecycle transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	acceptDuration, err = meter.Float64Histogram(
		"invitation.accept.duration",
		metric.WithDescription("Duration of the accept transaction"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	invitationConflicts, err = meter.Int64Counter(
		"invitation.conflicts",
		metric.WithDescription("Refused invitation operations by reason"),
		metric.WithUnit("{operation}"),
	)
	return err
}

// RecordInvitationTransition counts sent/accepted/rejected transitions.
func RecordInvitationTransition(ctx context.Context, transition string) {
	if invitationCounter != nil {
		invitationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("transition", transition)))
	}
}

func RecordAcceptDuration(ctx context.Context, durationMs float64, outcome string) {
	if acceptDuration != nil {
		acceptDuration.Record(ctx, durationMs, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// RecordInvitationConflict counts refusals such as a duplicate pending invite or an existing chat.
func RecordInvitationConflict(ctx context.Context, reason string) {
	if invitationConflicts != nil {
		invitationConflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}
