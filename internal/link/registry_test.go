package link

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"cadlink/internal/audit"
	"cadlink/internal/classify"
	"cadlink/internal/geometry"
	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
	"cadlink/pkg/testutil"
)

type RegistrySuite struct {
	suite.Suite

	ctx       context.Context
	projectID domain.ProjectID
	sink      *audit.MemorySink
	registry  *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = testutil.Context(s.T())
	s.projectID = domain.NewProjectID()
	s.sink = audit.NewMemorySink()
	s.registry = NewRegistry(NewInMemoryStore(), audit.NewPublisher(s.sink, slog.Default()), slog.Default())
}

func (s *RegistrySuite) create(handle string) *EntityLink {
	l, err := s.registry.Create(s.ctx, s.projectID, handle, domain.ObjectTypeUtilityLine, domain.NewObjectID(), "hash-v1")
	s.Require().NoError(err)
	return l
}

func (s *RegistrySuite) pending() PendingChange {
	return PendingChange{
		GeometryHash: "hash-v2",
		Geometry:     geometry.Geometry{Kind: geometry.KindLine, Points: []geometry.Point{{X: 0}, {X: 9}}},
		Classification: classify.Classification{
			ObjectType: domain.ObjectTypeUtilityLine,
			Discipline: "utility",
			Attributes: classify.Attributes{classify.AttrDiameter: classify.Number(15)},
			Confidence: 0.8,
		},
	}
}

func (s *RegistrySuite) TestCreateStartsSynced() {
	l := s.create("E1")

	s.Equal(StatusSynced, l.Status)
	s.Equal(testutil.FixedTime, l.LastSyncedAt)
	s.False(l.DeletionCandidate)

	events, err := s.sink.ListByProject(s.ctx, s.projectID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionLinkCreated, events[0].Action)
	s.Equal(string(StatusSynced), events[0].To)
}

func (s *RegistrySuite) TestOneActiveLinkPerHandle() {
	s.create("E1")

	_, err := s.registry.Create(s.ctx, s.projectID, "E1", domain.ObjectTypeTree, domain.NewObjectID(), "other")
	s.Require().ErrorIs(err, ErrHandleTaken)
}

func (s *RegistrySuite) TestHandleReusableAfterDeletion() {
	l := s.create("E1")

	_, err := s.registry.MarkDeletionCandidate(s.ctx, l.ID)
	s.Require().NoError(err)
	_, err = s.registry.ConfirmDeletion(s.ctx, l.ID)
	s.Require().NoError(err)

	fresh, err := s.registry.Create(s.ctx, s.projectID, "E1", domain.ObjectTypeUtilityLine, domain.NewObjectID(), "hash-v3")
	s.Require().NoError(err)
	s.NotEqual(l.ID, fresh.ID)
}

func (s *RegistrySuite) TestApplyCadChangeReturnsToSynced() {
	l := s.create("E1")
	later := testutil.FixedTime.Add(time.Hour)

	updated, err := s.registry.ApplyCadChange(testutil.ContextWithTime(s.T(), later), l.ID, "hash-v2")
	s.Require().NoError(err)

	s.Equal(StatusSynced, updated.Status)
	s.Equal("hash-v2", updated.GeometryHash)
	s.Equal(later, updated.LastSyncedAt)
}

func (s *RegistrySuite) TestMarkConflictSnapshotsPending() {
	l := s.create("E1")

	conflicted, err := s.registry.MarkConflict(s.ctx, l.ID, s.pending())
	s.Require().NoError(err)

	s.Equal(StatusConflict, conflicted.Status)
	s.Require().NotNil(conflicted.Pending)
	s.Equal("hash-v2", conflicted.Pending.GeometryHash)

	events, err := s.sink.ListByProject(s.ctx, s.projectID)
	s.Require().NoError(err)
	s.Equal(audit.ActionLinkConflictDetected, events[len(events)-1].Action)
}

func (s *RegistrySuite) TestResolveConflictAdoptsPendingHash() {
	l := s.create("E1")
	_, err := s.registry.MarkConflict(s.ctx, l.ID, s.pending())
	s.Require().NoError(err)

	resolved, pending, err := s.registry.ResolveConflict(s.ctx, l.ID, "keep_db")
	s.Require().NoError(err)

	s.Equal(StatusSynced, resolved.Status)
	s.Equal("hash-v2", resolved.GeometryHash)
	s.Nil(resolved.Pending)
	s.Require().NotNil(pending)
	s.Equal("hash-v2", pending.GeometryHash)
}

func (s *RegistrySuite) TestResolveRequiresConflict() {
	l := s.create("E1")

	_, _, err := s.registry.ResolveConflict(s.ctx, l.ID, "keep_cad")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *RegistrySuite) TestDeletionRequiresCandidacy() {
	l := s.create("E1")

	_, err := s.registry.ConfirmDeletion(s.ctx, l.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *RegistrySuite) TestDeletedIsTerminal() {
	l := s.create("E1")
	_, err := s.registry.MarkDeletionCandidate(s.ctx, l.ID)
	s.Require().NoError(err)
	_, err = s.registry.ConfirmDeletion(s.ctx, l.ID)
	s.Require().NoError(err)

	s.Run("apply cad change", func() {
		_, err := s.registry.ApplyCadChange(s.ctx, l.ID, "hash-v9")
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
	s.Run("mark conflict", func() {
		_, err := s.registry.MarkConflict(s.ctx, l.ID, s.pending())
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
	s.Run("mark deletion candidate", func() {
		_, err := s.registry.MarkDeletionCandidate(s.ctx, l.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
	s.Run("hidden from active lookups", func() {
		_, err := s.registry.FindActive(s.ctx, s.projectID, "E1")
		s.Require().ErrorIs(err, ErrNotFound)

		active, err := s.registry.ListActive(s.ctx, s.projectID)
		s.Require().NoError(err)
		s.Empty(active)
	})
}

func (s *RegistrySuite) TestMarkUnchangedClearsCandidacy() {
	l := s.create("E1")
	_, err := s.registry.MarkDeletionCandidate(s.ctx, l.ID)
	s.Require().NoError(err)

	cleared, err := s.registry.MarkUnchanged(s.ctx, l.ID)
	s.Require().NoError(err)
	s.False(cleared.DeletionCandidate)
	s.Equal(StatusSynced, cleared.Status)
}

func TestMarkUnchangedDoesNotTouchTimestamps(t *testing.T) {
	ctx := testutil.Context(t)
	registry := NewRegistry(NewInMemoryStore(), nil, slog.Default())
	l, err := registry.Create(ctx, domain.NewProjectID(), "E1", domain.ObjectTypeTree, domain.NewObjectID(), "h")
	require.NoError(t, err)

	later := testutil.ContextWithTime(t, testutil.FixedTime.Add(time.Hour))
	same, err := registry.MarkUnchanged(later, l.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.FixedTime, same.UpdatedAt)
	require.Equal(t, testutil.FixedTime, same.LastSyncedAt)
}
