package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fidus/MT5-Allocation-Backend/internal/model"
	"github.com/fidus/MT5-Allocation-Backend/internal/repository"
)

// commissionRate is the flat management commission applied to allocated capital.
const commissionRate = 0.015

// RecalculationService recomputes the derived reports that depend on
// allocations: cash-flow per fund, commissions, performance, P&L and the
// manager/fund distribution. Each job persists its latest result keyed by
// job name.
type RecalculationService struct {
	reportRepo *repository.ReportRepository
}

// NewRecalculationService creates a new RecalculationService with the provided repository dependency.
func NewRecalculationService(reportRepo *repository.ReportRepository) *RecalculationService {
	return &RecalculationService{
		reportRepo: reportRepo,
	}
}

type recalcJob struct {
	name string
	run  func(ctx context.Context, q repository.DBTX) error
}

func (s *RecalculationService) jobs() []recalcJob {
	return []recalcJob{
		{model.RecalcCashflow, s.recalcCashflow},
		{model.RecalcCommissions, s.recalcCommissions},
		{model.RecalcPerformance, s.recalcPerformance},
		{model.RecalcPnL, s.recalcPnL},
		{model.RecalcDistribution, s.recalcDistribution},
	}
}

// RunAll executes every recalculation job concurrently against the live
// database. Used by the nightly refresh; all jobs run to completion even when
// some fail, so the results always cover the full set.
func (s *RecalculationService) RunAll(ctx context.Context) []model.RecalculationResult {
	jobs := s.jobs()
	results := make([]model.RecalculationResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = s.runOne(ctx, nil, job)
			return nil
		})
	}
	// Errors are carried in the per-job results.
	_ = g.Wait()

	return results
}

// RunWithin executes every job on the caller's transaction. A *sql.Tx is
// bound to a single connection, so jobs run in order here.
func (s *RecalculationService) RunWithin(ctx context.Context, q repository.DBTX) []model.RecalculationResult {
	jobs := s.jobs()
	results := make([]model.RecalculationResult, len(jobs))

	for i, job := range jobs {
		results[i] = s.runOne(ctx, q, job)
	}

	return results
}

func (s *RecalculationService) runOne(ctx context.Context, q repository.DBTX, job recalcJob) model.RecalculationResult {
	start := time.Now()
	err := job.run(ctx, q)

	result := model.RecalculationResult{
		Job:        job.name,
		Success:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
	}

	return result
}

// AllSucceeded reports whether every job in a result set succeeded.
func AllSucceeded(results []model.RecalculationResult) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}

func (s *RecalculationService) recalcCashflow(ctx context.Context, q repository.DBTX) error {
	totals, err := s.reportRepo.CashflowByFund(ctx, q)
	if err != nil {
		return err
	}
	return s.reportRepo.UpsertSummary(ctx, q, model.RecalcCashflow, totals)
}

func (s *RecalculationService) recalcCommissions(ctx context.Context, q repository.DBTX) error {
	totals, err := s.reportRepo.TotalsByManager(ctx, q)
	if err != nil {
		return err
	}

	type managerCommission struct {
		Manager    string  `json:"manager"`
		Capital    float64 `json:"capital"`
		Commission float64 `json:"commission"`
	}

	commissions := make([]managerCommission, 0, len(totals))
	for _, t := range totals {
		commissions = append(commissions, managerCommission{
			Manager:    t.Manager,
			Capital:    t.AllocatedCapital,
			Commission: t.AllocatedCapital * commissionRate,
		})
	}

	return s.reportRepo.UpsertSummary(ctx, q, model.RecalcCommissions, commissions)
}

func (s *RecalculationService) recalcPerformance(ctx context.Context, q repository.DBTX) error {
	counts, err := s.reportRepo.PoolStatusCounts(ctx, q)
	if err != nil {
		return err
	}

	total := 0
	for _, count := range counts {
		total += count
	}
	allocated := counts[model.StatusAllocated]

	utilization := 0.0
	if total > 0 {
		utilization = float64(allocated) / float64(total) * 100
	}

	payload := map[string]any{
		"poolAccounts":    total,
		"allocated":       allocated,
		"utilizationRate": utilization,
	}

	return s.reportRepo.UpsertSummary(ctx, q, model.RecalcPerformance, payload)
}

func (s *RecalculationService) recalcPnL(ctx context.Context, q repository.DBTX) error {
	totals, err := s.reportRepo.TotalsByManager(ctx, q)
	if err != nil {
		return err
	}

	type managerPnL struct {
		Manager string  `json:"manager"`
		PnL     float64 `json:"pnl"`
	}

	pnl := make([]managerPnL, 0, len(totals))
	for _, t := range totals {
		pnl = append(pnl, managerPnL{
			Manager: t.Manager,
			PnL:     t.Balance - t.AllocatedCapital,
		})
	}

	return s.reportRepo.UpsertSummary(ctx, q, model.RecalcPnL, pnl)
}

func (s *RecalculationService) recalcDistribution(ctx context.Context, q repository.DBTX) error {
	totals, err := s.reportRepo.DistributionByFund(ctx, q)
	if err != nil {
		return err
	}
	return s.reportRepo.UpsertSummary(ctx, q, model.RecalcDistribution, totals)
}

// RefreshReports is the nightly entry point: runs all jobs and returns an
// error naming the failed ones, for the scheduler's log.
func (s *RecalculationService) RefreshReports(ctx context.Context) error {
	results := s.RunAll(ctx)

	var failed []string
	for _, r := range results {
		if !r.Success {
			failed = append(failed, fmt.Sprintf("%s (%s)", r.Job, r.Error))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("recalculation jobs failed: %v", failed)
	}

	return nil
}
