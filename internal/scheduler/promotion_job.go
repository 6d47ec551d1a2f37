package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/ArowuTest/crowdfund-backend/internal/services"
)

// PromotionJob promotes validated projects that reached their vote threshold
type PromotionJob struct {
	promoter services.PromotionService
	interval time.Duration
	timeout  time.Duration
	log      *zap.SugaredLogger
}

// NewPromotionJob creates a PromotionJob that runs every interval
func NewPromotionJob(promoter services.PromotionService, interval time.Duration, log *zap.SugaredLogger) *PromotionJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PromotionJob{
		promoter: promoter,
		interval: interval,
		timeout:  interval,
		log:      log.Named("promotion_job"),
	}
}

func (j *PromotionJob) Name() string {
	return "vote_threshold_promotion"
}

func (j *PromotionJob) Definition() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute runs one sweep bounded by the job interval
func (j *PromotionJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	report, err := j.promoter.PromoteEligible(ctx)
	if err != nil {
		j.log.Errorw("promotion sweep failed", "error", err)
		return
	}
	if len(report.Promoted) > 0 || len(report.Failed) > 0 {
		j.log.Infow("promotion sweep",
			"candidates", report.Candidates, "promoted", len(report.Promoted), "failed", len(report.Failed))
	}
}
