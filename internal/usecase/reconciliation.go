package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sox-reconciler/internal/bridges"
	"sox-reconciler/internal/categorize"
	"sox-reconciler/internal/config"
	"sox-reconciler/internal/domain"
	"sox-reconciler/internal/rules"
	"sox-reconciler/internal/schema"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const moduleName = "usecase"

// Request identifies one reconciliation run.
type Request struct {
	CutoffDate string
	Source     string
}

// ReconciliationUseCase orchestrates the five reconciliation phases:
// extraction, preprocessing, categorization, bridge analysis and metrics.
type ReconciliationUseCase struct {
	repo        ExtractRepository
	cfg         config.Config
	logger      *logrus.Logger
	classifier  *rules.Classifier
	calculators []bridges.Calculator
	now         func() time.Time
	newRunID    func() string
}

// Option customizes a ReconciliationUseCase.
type Option func(*ReconciliationUseCase)

// WithClock sets the clock used for the report timestamp.
func WithClock(now func() time.Time) Option {
	return func(uc *ReconciliationUseCase) { uc.now = now }
}

// WithRunID sets the run id generator.
func WithRunID(f func() string) Option {
	return func(uc *ReconciliationUseCase) { uc.newRunID = f }
}

// WithCalculators replaces the bridge calculators.
func WithCalculators(calcs ...bridges.Calculator) Option {
	return func(uc *ReconciliationUseCase) { uc.calculators = calcs }
}

// WithRegistry replaces the bridge rule registry used by the classifier.
func WithRegistry(r *rules.Registry) Option {
	return func(uc *ReconciliationUseCase) { uc.classifier = rules.NewClassifier(r) }
}

// NewReconciliationUseCase creates a new instance of the usecase.
func NewReconciliationUseCase(repo ExtractRepository, cfg config.Config, logger *logrus.Logger, opts ...Option) *ReconciliationUseCase {
	cfg = cfg.Clone()
	logger = config.OrDefault(logger)
	uc := &ReconciliationUseCase{
		repo:        repo,
		cfg:         cfg,
		logger:      logger,
		classifier:  rules.NewClassifier(rules.DefaultRegistry(cfg)),
		calculators: bridges.All(cfg, logger),
		now:         time.Now,
		newRunID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Reconcile validates the cutoff date, loads the extracts and reconciles them.
// A malformed cutoff is rejected before the repository is called.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, req Request) (*domain.Report, error) {
	cutoff, err := schema.ParseCutoff(req.CutoffDate)
	if err != nil {
		return nil, err
	}

	// Phase 1: extraction
	extracts, err := uc.repo.LoadExtracts(ctx, req.Source)
	if err != nil {
		return nil, fmt.Errorf("could not load extracts: %w", err)
	}
	return uc.ReconcileExtracts(ctx, cutoff, extracts)
}

// ReconcileExtracts runs phases two to five on already materialized extracts.
func (uc *ReconciliationUseCase) ReconcileExtracts(ctx context.Context, cutoff time.Time, extracts *domain.Extracts) (*domain.Report, error) {
	if extracts == nil {
		return nil, errors.New("no extracts supplied")
	}
	cutoff = schema.DateOnly(cutoff)
	runID := uc.newRunID()
	log := uc.logger.WithFields(logrus.Fields{"module": moduleName, "run_id": runID})

	report := &domain.Report{
		RunID:      runID,
		Timestamp:  uc.now().UTC().Format(time.RFC3339),
		CutoffDate: cutoff.Format(time.DateOnly),
		Bridges:    make(map[string]domain.BridgeReport, len(uc.calculators)),
		Errors:     make([]string, 0),
		Warnings:   make([]string, 0),
		Proofs:     make(map[string]*domain.Table, len(uc.calculators)),
	}

	// Phase 2: preprocessing
	log.Info("preprocessing extracts")
	prep, err := preprocess(uc.cfg, cutoff, extracts)
	if err != nil {
		config.LogError(uc.logger, moduleName, "ReconcileExtracts", "preprocessing", runID, err)
		return nil, err
	}
	uc.addWarnings(report, prep.warnings)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 3: categorization
	log.WithField("entries", len(prep.entries)).Info("categorizing gl entries")
	categorized := categorize.Categorize(categorize.Input{
		Entries:  prep.entries,
		Vouchers: prep.vouchers.Rows,
		Usage:    prep.usage.Rows,
	})
	report.CategorizationSummary = categorize.Summarize(categorized)
	report.Classified = uc.classifier.Classify(categorize.ToTable(categorized))
	report.CategorizationSummary.ByBridgeKey = rules.Summary(report.Classified)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 4: bridge analysis
	in := bridges.Inputs{
		Cutoff:          cutoff,
		Entries:         categorized,
		Vouchers:        prep.vouchers.Rows,
		VoucherColumns:  prep.vouchers.Present,
		Usage:           prep.usage.Rows,
		UsageColumns:    prep.usage.Present,
		CustomerLedger:  prep.ledger.Rows,
		CustomerColumns: prep.ledger.Present,
	}
	for _, calc := range uc.calculators {
		name := calc.Name()
		res, failure := runBridge(calc, in)
		if failure != nil {
			config.LogError(uc.logger, moduleName, "ReconcileExtracts", "bridge analysis", name, failure)
			report.Errors = append(report.Errors, failure.Error())
			report.Bridges[name] = domain.BridgeReport{Metrics: map[string]any{}, Error: failure}
			continue
		}
		amount := res.Amount
		metrics := res.Metrics
		if metrics == nil {
			metrics = map[string]any{}
		}
		report.Bridges[name] = domain.BridgeReport{
			Amount:        &amount,
			ProofRowCount: res.Proof.Len(),
			Metrics:       metrics,
		}
		if res.Proof != nil {
			report.Proofs[name] = res.Proof
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 5: reconciliation metrics
	result, warnings, err := computeMetrics(extracts, uc.cfg.VarianceThreshold)
	if err != nil {
		config.LogError(uc.logger, moduleName, "ReconcileExtracts", "metrics", runID, err)
		return nil, err
	}
	uc.addWarnings(report, warnings)
	report.Actuals = &result.Actuals
	report.TargetValues = &result.TargetValues
	report.Variance = &result.Variance
	report.Status = result.Status
	report.ComponentTotals = result.ComponentTotals

	log.WithFields(logrus.Fields{
		"status":   report.Status,
		"variance": result.Variance,
		"errors":   len(report.Errors),
		"warnings": len(report.Warnings),
	}).Info("reconciliation finished")
	return report, nil
}

func (uc *ReconciliationUseCase) addWarnings(report *domain.Report, warnings []domain.Warning) {
	for _, w := range warnings {
		uc.logger.WithFields(logrus.Fields{"module": moduleName, "source": w.Source}).Warn(w.Message)
		report.Warnings = append(report.Warnings, w.String())
	}
}

// runBridge isolates one calculator. Errors and panics become a BridgeFailure.
func runBridge(calc bridges.Calculator, in bridges.Inputs) (res domain.BridgeResult, failure *domain.BridgeFailure) {
	name := calc.Name()
	defer func() {
		if r := recover(); r != nil {
			res = domain.BridgeResult{}
			failure = &domain.BridgeFailure{Bridge: name, Kind: domain.FailureKindPanic, Message: fmt.Sprint(r)}
		}
	}()

	res, err := calc.Calculate(in)
	if err != nil {
		kind := domain.FailureKindData
		var schemaErr *domain.SchemaError
		if errors.As(err, &schemaErr) {
			kind = domain.FailureKindSchema
		}
		return domain.BridgeResult{}, &domain.BridgeFailure{Bridge: name, Kind: kind, Message: err.Error()}
	}
	return res, nil
}
