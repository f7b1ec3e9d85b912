package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// ApplicationDecidedArgs is enqueued in the same transaction that decides an
// application, so the notification is never sent for a rolled-back decision.
type ApplicationDecidedArgs struct {
	ApplicationID uuid.UUID `json:"application_id"`
	ProjectID     uuid.UUID `json:"project_id"`
	FreelancerID  uuid.UUID `json:"freelancer_id"`
	Decision      string    `json:"decision"`
}

func (ApplicationDecidedArgs) Kind() string { return "application_decided" }

// PayoutRecordedArgs is enqueued when escrow is released to a freelancer.
type PayoutRecordedArgs struct {
	ProjectID    uuid.UUID `json:"project_id"`
	FreelancerID uuid.UUID `json:"freelancer_id"`
	Amount       int64     `json:"amount"`
}

func (PayoutRecordedArgs) Kind() string { return "payout_recorded" }

type ApplicationDecidedWorker struct {
	river.WorkerDefaults[ApplicationDecidedArgs]
	Logger *slog.Logger
}

func (w *ApplicationDecidedWorker) Work(ctx context.Context, job *river.Job[ApplicationDecidedArgs]) error {
	w.Logger.Info("application decided",
		"application_id", job.Args.ApplicationID,
		"project_id", job.Args.ProjectID,
		"freelancer_id", job.Args.FreelancerID,
		"decision", job.Args.Decision)
	return nil
}

type PayoutRecordedWorker struct {
	river.WorkerDefaults[PayoutRecordedArgs]
	Logger *slog.Logger
}

func (w *PayoutRecordedWorker) Work(ctx context.Context, job *river.Job[PayoutRecordedArgs]) error {
	w.Logger.Info("payout recorded",
		"project_id", job.Args.ProjectID,
		"freelancer_id", job.Args.FreelancerID,
		"amount", job.Args.Amount)
	return nil
}
