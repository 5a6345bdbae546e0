package ingest

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"cadlink/internal/audit"
	"cadlink/internal/cad"
	"cadlink/internal/classify"
	"cadlink/internal/ingest/joblock"
	"cadlink/internal/link"
	"cadlink/internal/objects"
	"cadlink/internal/review"
	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
	"cadlink/pkg/platform/tx"
	"cadlink/pkg/requestcontext"
)

// Service runs import and re-import jobs and exposes the manual operations
// that close review items, resolve conflicts, and confirm deletions.
//
// A job is a finite, restartable sequence of entities. Classification and
// hashing fan out ahead of time; all writes stay serialized under the
// per-project job lock, one transaction per entity.
type Service struct {
	classifier   *classify.Classifier
	objects      objects.Store
	links        *link.Registry
	review       review.Store
	materializer *Materializer
	reconciler   *Reconciler

	locks   joblock.Locker
	runner  tx.Runner
	audit   *audit.Publisher
	metrics Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// Metrics is the narrow slice of ingest metrics the service records.
// Satisfied by *metrics.Metrics; nil methods are safe there, so tests can
// leave it unset via the noop default.
type Metrics interface {
	IncrementOutcome(mode, outcome string)
	ObserveBatch(mode string, d time.Duration)
	IncrementReviewQueued()
	IncrementLockContention()
}

type noopMetrics struct{}

func (noopMetrics) IncrementOutcome(string, string)    {}
func (noopMetrics) ObserveBatch(string, time.Duration) {}
func (noopMetrics) IncrementReviewQueued()             {}
func (noopMetrics) IncrementLockContention()           {}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLocker(l joblock.Locker) Option  { return func(s *Service) { s.locks = l } }
func WithRunner(r tx.Runner) Option       { return func(s *Service) { s.runner = r } }
func WithAudit(p *audit.Publisher) Option { return func(s *Service) { s.audit = p } }
func WithMetrics(m Metrics) Option        { return func(s *Service) { s.metrics = m } }
func WithTracer(t trace.Tracer) Option    { return func(s *Service) { s.tracer = t } }
func WithLogger(l *slog.Logger) Option    { return func(s *Service) { s.logger = l } }

func NewService(classifier *classify.Classifier, objectStore objects.Store, links *link.Registry, reviewStore review.Store, opts ...Option) *Service {
	s := &Service{
		classifier: classifier,
		objects:    objectStore,
		links:      links,
		review:     reviewStore,
		locks:      joblock.NewInMemoryLocker(),
		runner:     tx.NopRunner{},
		metrics:    noopMetrics{},
		tracer:     noop.NewTracerProvider().Tracer("cadlink/ingest"),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.materializer = NewMaterializer(objectStore, links, reviewStore)
	s.reconciler = NewReconciler(s.materializer, objectStore, links)
	return s
}

// classified is one entity's precomputed pure work.
type classified struct {
	entity       cad.RawEntity
	cls          classify.Classification
	malformedErr error
}

// precompute classifies and validates every entity in parallel. Pure work
// only; nothing here touches a store.
func (s *Service) precompute(ctx context.Context, entities []cad.RawEntity) []classified {
	out := make([]classified, len(entities))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, entity := range entities {
		g.Go(func() error {
			out[i] = classified{entity: entity, malformedErr: entity.Validate()}
			if out[i].malformedErr == nil {
				out[i].cls = s.classifier.Classify(entity.LayerName)
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors
	return out
}

// ImportBatch runs a first-time import. Per-entity outcomes only: one
// entity's failure never aborts the rest.
func (s *Service) ImportBatch(ctx context.Context, projectID domain.ProjectID, entities []cad.RawEntity) (*ImportReport, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.ImportBatch",
		trace.WithAttributes(
			attribute.String("project_id", projectID.String()),
			attribute.Int("entities", len(entities)),
		))
	defer span.End()

	report := &ImportReport{ProjectID: projectID}
	err := s.runJob(ctx, projectID, "import", entities, func(ctx context.Context, c classified) {
		report.add(s.processOne(ctx, projectID, "import", c, s.materializer.Materialize))
	})
	if err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionBatchImported,
		ProjectID: projectID,
		Reason:    "entities=" + strconv.Itoa(len(entities)),
	})
	return report, nil
}

// Reimport reconciles a later drawing revision against the registry, then
// flags links whose handles went missing as deletion candidates.
func (s *Service) Reimport(ctx context.Context, projectID domain.ProjectID, entities []cad.RawEntity) (*ChangeReport, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.Reimport",
		trace.WithAttributes(
			attribute.String("project_id", projectID.String()),
			attribute.Int("entities", len(entities)),
		))
	defer span.End()

	report := &ChangeReport{ProjectID: projectID}

	// Every handle in the batch counts as present, whatever its outcome: a
	// malformed or skipped entity is still in the drawing, and only handles
	// absent from the batch entirely may become deletion candidates.
	seen := make(map[string]bool, len(entities))
	for _, e := range entities {
		seen[e.Handle] = true
	}

	err := s.runJob(ctx, projectID, "reimport", entities, func(ctx context.Context, c classified) {
		report.add(s.processOne(ctx, projectID, "reimport", c, s.reconciler.Reconcile))
	})
	if err != nil {
		return nil, err
	}

	// A cancelled job saw an arbitrary prefix of the batch; judging absence
	// would flag records whose entities were never looked at.
	if ctx.Err() == nil {
		candidates, err := s.flagAbsentees(ctx, projectID, seen)
		if err != nil {
			return nil, err
		}
		report.DeletionCandidates = candidates
	}

	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionBatchReimported,
		ProjectID: projectID,
		Reason:    "entities=" + strconv.Itoa(len(entities)),
	})
	return report, nil
}

// runJob holds the project lock, precomputes pure work, and walks the batch
// serially. Cancellation is cooperative at the entity boundary: processed
// entities stay committed, the rest report skipped.
func (s *Service) runJob(ctx context.Context, projectID domain.ProjectID, mode string, entities []cad.RawEntity, process func(ctx context.Context, c classified)) error {
	start := time.Now()
	release, err := s.locks.Acquire(ctx, projectID)
	if err != nil {
		if errors.Is(err, joblock.ErrProjectBusy) {
			s.metrics.IncrementLockContention()
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire project job lock")
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "failed to release project job lock",
				"project_id", projectID.String(),
				"error", err.Error(),
			)
		}
	}()

	for _, c := range s.precompute(ctx, entities) {
		process(ctx, c)
	}
	s.metrics.ObserveBatch(mode, time.Since(start))
	return nil
}

// processOne wraps one entity in its own transaction and translates every
// failure into a per-entity outcome.
func (s *Service) processOne(ctx context.Context, projectID domain.ProjectID, mode string, c classified, step func(ctx context.Context, projectID domain.ProjectID, entity cad.RawEntity, cls classify.Classification) (EntityOutcome, error)) EntityOutcome {
	var outcome EntityOutcome
	switch {
	case ctx.Err() != nil:
		outcome = EntityOutcome{Handle: c.entity.Handle, Kind: OutcomeSkipped, Reason: ReasonCancelled}
	case c.malformedErr != nil:
		s.logger.WarnContext(ctx, "skipping malformed raw entity",
			"project_id", projectID.String(),
			"handle", c.entity.Handle,
			"error", c.malformedErr.Error(),
		)
		outcome = EntityOutcome{Handle: c.entity.Handle, Kind: OutcomeSkipped, Reason: ReasonMalformedEntity}
	default:
		err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
			var stepErr error
			outcome, stepErr = step(txCtx, projectID, c.entity, c.cls)
			return stepErr
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "entity processing failed",
				"project_id", projectID.String(),
				"handle", c.entity.Handle,
				"error", err.Error(),
			)
			outcome = EntityOutcome{Handle: c.entity.Handle, Kind: OutcomeFailed, Reason: ReasonPersistence}
		}
	}

	s.metrics.IncrementOutcome(mode, string(outcome.Kind))
	if outcome.Kind == OutcomeQueuedForReview {
		s.metrics.IncrementReviewQueued()
	}
	return outcome
}

// flagAbsentees marks every active link whose handle did not appear in the
// batch as a deletion candidate. Domain records are untouched: absence from
// one revision does not prove intent to delete.
func (s *Service) flagAbsentees(ctx context.Context, projectID domain.ProjectID, seen map[string]bool) ([]string, error) {
	active, err := s.links.ListActive(ctx, projectID)
	if err != nil {
		return nil, err
	}
	candidates := make([]string, 0)
	for _, l := range active {
		if seen[l.CadHandle] {
			continue
		}
		if !l.DeletionCandidate {
			if _, err := s.links.MarkDeletionCandidate(ctx, l.ID); err != nil {
				return nil, err
			}
		}
		candidates = append(candidates, l.CadHandle)
	}
	return candidates, nil
}

// ResolveReviewItem closes a queued item with an operator-chosen type and
// attributes, then materializes it at full confidence.
func (s *Service) ResolveReviewItem(ctx context.Context, reviewID domain.ReviewItemID, chosenType domain.ObjectType, attrs classify.Attributes) (EntityOutcome, error) {
	item, err := s.review.Find(ctx, reviewID)
	if err != nil {
		return EntityOutcome{}, err
	}
	if item.Resolved {
		return EntityOutcome{}, dErrors.New(dErrors.CodeInvariantViolation, "review item is already resolved")
	}
	if !chosenType.IsMaterializable() {
		return EntityOutcome{}, dErrors.Newf(dErrors.CodeBadRequest, "cannot resolve review item to type %q", chosenType)
	}
	if !classify.IsCompatible(chosenType, item.Entity.Geometry.Kind) {
		return EntityOutcome{
			Handle: item.Entity.Handle,
			Kind:   OutcomeRejected,
			Reason: ReasonGeometryMismatch,
		}, nil
	}
	if err := classify.ValidateRenderable(chosenType, attrs); err != nil {
		return EntityOutcome{}, err
	}
	if attrs == nil {
		attrs = classify.Attributes{}
	}
	cls := classify.Classification{
		ObjectType:  chosenType,
		Attributes:  attrs,
		Confidence:  1.0,
		MatchedRule: "manual-review",
	}

	var outcome EntityOutcome
	err = s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		var stepErr error
		outcome, stepErr = s.materializer.Materialize(txCtx, item.ProjectID, item.Entity, cls)
		if stepErr != nil {
			return stepErr
		}
		return s.review.MarkResolved(txCtx, reviewID, requestcontext.Now(txCtx))
	})
	if err != nil {
		return EntityOutcome{}, err
	}
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionReviewResolved,
		ProjectID: item.ProjectID,
		CadHandle: item.Entity.Handle,
		Reason:    "resolved as " + chosenType.String(),
	})
	return outcome, nil
}

// ResolveConflict applies an explicit keep-cad or keep-db decision to a
// conflicted link. Never invoked automatically by reconciliation.
func (s *Service) ResolveConflict(ctx context.Context, linkID domain.LinkID, resolution ConflictResolution) error {
	return s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		// The type check runs before the transition is requested: once the
		// registry resolves, the link has already adopted the pending hash.
		current, err := s.links.Get(txCtx, linkID)
		if err != nil {
			return err
		}
		if resolution == KeepCad && current.Pending != nil &&
			current.Pending.Classification.ObjectType != current.ObjectType {
			// Cross-table migration still needs a human; the old record and
			// link are confirmed away first, then the entity re-imports fresh.
			return dErrors.New(dErrors.CodeInvariantViolation,
				"pending change targets a different object type; delete and re-import instead")
		}

		l, pending, err := s.links.ResolveConflict(txCtx, linkID, string(resolution))
		if err != nil {
			return err
		}
		if resolution != KeepCad {
			return nil
		}
		data, err := objects.DataFromClassification(pending.Classification.ObjectType, pending.Classification.Attributes)
		if err != nil {
			return err
		}
		obj, err := s.objects.Find(txCtx, l.ObjectType, l.ObjectID)
		if err != nil {
			return err
		}
		obj.Discipline = pending.Classification.Discipline
		obj.Geometry = pending.Geometry
		obj.Data = data
		obj.UpdatedAt = requestcontext.Now(txCtx)
		return s.objects.Upsert(txCtx, obj)
	})
}

// ConfirmDeletion finalizes a deletion candidate: the link goes terminal and
// the domain record is removed.
func (s *Service) ConfirmDeletion(ctx context.Context, linkID domain.LinkID) error {
	return s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		l, err := s.links.ConfirmDeletion(txCtx, linkID)
		if err != nil {
			return err
		}
		if err := s.objects.Delete(txCtx, l.ObjectType, l.ObjectID); err != nil && !errors.Is(err, objects.ErrNotFound) {
			return err
		}
		return nil
	})
}

// ListOpenReviewItems exposes the queue for the surrounding UI.
func (s *Service) ListOpenReviewItems(ctx context.Context, projectID domain.ProjectID) ([]*review.Item, error) {
	return s.review.ListOpen(ctx, projectID)
}
