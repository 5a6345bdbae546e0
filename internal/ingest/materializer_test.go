package ingest

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"cadlink/internal/cad"
	"cadlink/internal/classify"
	"cadlink/internal/geometry"
	"cadlink/internal/link"
	"cadlink/internal/objects"
	"cadlink/internal/review"
	"cadlink/pkg/domain"
	"cadlink/pkg/testutil"
)

type MaterializerSuite struct {
	suite.Suite

	ctx       context.Context
	projectID domain.ProjectID
	objects   *objects.InMemoryStore
	links     *link.Registry
	review    *review.InMemoryStore
	m         *Materializer
}

func TestMaterializerSuite(t *testing.T) {
	suite.Run(t, new(MaterializerSuite))
}

func (s *MaterializerSuite) SetupTest() {
	s.ctx = testutil.Context(s.T())
	s.projectID = domain.NewProjectID()
	s.objects = objects.NewInMemoryStore()
	s.links = link.NewRegistry(link.NewInMemoryStore(), nil, slog.Default())
	s.review = review.NewInMemoryStore()
	s.m = NewMaterializer(s.objects, s.links, s.review)
}

func lineEntity(handle string) cad.RawEntity {
	return cad.RawEntity{
		Handle:    handle,
		LayerName: "12IN-STORM",
		Geometry:  geometry.Geometry{Kind: geometry.KindLine, Points: []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}},
	}
}

func utilityLineClassification() classify.Classification {
	return classify.Classification{
		ObjectType: domain.ObjectTypeUtilityLine,
		Discipline: "utility",
		Attributes: classify.Attributes{
			classify.AttrDiameter:    classify.Number(12),
			classify.AttrUnit:        classify.Text("inch"),
			classify.AttrUtilityType: classify.Text("Storm"),
		},
		Confidence:  0.8,
		MatchedRule: "utility-line-size-type",
	}
}

func (s *MaterializerSuite) TestCreatesObjectAndLink() {
	entity := lineEntity("E1")

	outcome, err := s.m.Materialize(s.ctx, s.projectID, entity, utilityLineClassification())
	s.Require().NoError(err)

	s.Equal(OutcomeCreated, outcome.Kind)
	s.Require().False(outcome.ObjectID.IsNil())
	s.Require().False(outcome.LinkID.IsNil())

	obj, err := s.objects.Find(s.ctx, domain.ObjectTypeUtilityLine, outcome.ObjectID)
	s.Require().NoError(err)
	s.Equal("utility", obj.Discipline)
	line, ok := obj.Data.(objects.UtilityLine)
	s.Require().True(ok)
	s.Equal(12.0, line.Diameter)
	s.Equal("inch", line.Unit)
	s.Equal("Storm", line.UtilityType)

	l, err := s.links.FindActive(s.ctx, s.projectID, "E1")
	s.Require().NoError(err)
	s.Equal(link.StatusSynced, l.Status)
	s.Equal(outcome.ObjectID, l.ObjectID)
	s.Equal(GeometryHash(entity.Geometry, utilityLineClassification().Attributes), l.GeometryHash)
}

func (s *MaterializerSuite) TestGeometryMismatchRejectsWithoutWrites() {
	// A structure classification on line geometry is a hard rejection.
	entity := lineEntity("E1")
	cls := classify.Classification{
		ObjectType:  domain.ObjectTypeStructure,
		Discipline:  "utility",
		Attributes:  classify.Attributes{classify.AttrStructureCode: classify.Text("MH")},
		Confidence:  0.85,
		MatchedRule: "structure-code-type",
	}

	outcome, err := s.m.Materialize(s.ctx, s.projectID, entity, cls)
	s.Require().NoError(err)

	s.Equal(OutcomeRejected, outcome.Kind)
	s.Equal(ReasonGeometryMismatch, outcome.Reason)
	s.True(outcome.ObjectID.IsNil())

	_, err = s.links.FindActive(s.ctx, s.projectID, "E1")
	s.Require().ErrorIs(err, link.ErrNotFound)

	all, err := s.objects.List(s.ctx, s.projectID, objects.Filter{})
	s.Require().NoError(err)
	s.Empty(all)

	open, err := s.review.ListOpen(s.ctx, s.projectID)
	s.Require().NoError(err)
	s.Empty(open)
}

func (s *MaterializerSuite) TestLowConfidenceQueuesForReview() {
	entity := lineEntity("E1")
	cls := utilityLineClassification()
	cls.Confidence = 0.6

	outcome, err := s.m.Materialize(s.ctx, s.projectID, entity, cls)
	s.Require().NoError(err)

	s.Equal(OutcomeQueuedForReview, outcome.Kind)
	s.Require().False(outcome.ReviewID.IsNil())

	open, err := s.review.ListOpen(s.ctx, s.projectID)
	s.Require().NoError(err)
	s.Require().Len(open, 1)
	s.Equal("E1", open[0].Entity.Handle)

	_, err = s.links.FindActive(s.ctx, s.projectID, "E1")
	s.Require().ErrorIs(err, link.ErrNotFound)
}

func (s *MaterializerSuite) TestThresholdConfidenceMaterializes() {
	cls := utilityLineClassification()
	cls.Confidence = AutoCreateThreshold

	outcome, err := s.m.Materialize(s.ctx, s.projectID, lineEntity("E1"), cls)
	s.Require().NoError(err)
	s.Equal(OutcomeCreated, outcome.Kind)
}

func (s *MaterializerSuite) TestUnclassifiedQueuesForReview() {
	entity := cad.RawEntity{
		Handle:    "E1",
		LayerName: "DOODLES",
		Geometry:  geometry.Geometry{Kind: geometry.KindPoint, Points: []geometry.Point{{X: 1, Y: 2}}},
	}

	outcome, err := s.m.Materialize(s.ctx, s.projectID, entity, classify.Unclassified())
	s.Require().NoError(err)

	s.Equal(OutcomeQueuedForReview, outcome.Kind)
	open, err := s.review.ListOpen(s.ctx, s.projectID)
	s.Require().NoError(err)
	s.Require().Len(open, 1)
	s.True(open[0].Classification.IsUnclassified())
}

func (s *MaterializerSuite) TestExistingLinkTakesUpdatePath() {
	first, err := s.m.Materialize(s.ctx, s.projectID, lineEntity("E1"), utilityLineClassification())
	s.Require().NoError(err)

	moved := lineEntity("E1")
	moved.Geometry.Points[1].X = 42

	outcome, err := s.m.Materialize(s.ctx, s.projectID, moved, utilityLineClassification())
	s.Require().NoError(err)

	s.Equal(OutcomeModified, outcome.Kind)
	s.Equal(first.ObjectID, outcome.ObjectID)
	s.Equal(first.LinkID, outcome.LinkID)

	obj, err := s.objects.Find(s.ctx, domain.ObjectTypeUtilityLine, first.ObjectID)
	s.Require().NoError(err)
	s.Equal(42.0, obj.Geometry.Points[1].X)
}

func (s *MaterializerSuite) TestReclassifiedTypeParksAsConflict() {
	first, err := s.m.Materialize(s.ctx, s.projectID, lineEntity("E1"), utilityLineClassification())
	s.Require().NoError(err)

	renamed := cad.RawEntity{
		Handle:    "E1",
		LayerName: "ALIGN-MAINST",
		Geometry:  lineEntity("E1").Geometry,
	}
	cls := classify.Classification{
		ObjectType:  domain.ObjectTypeAlignment,
		Discipline:  "civil",
		Attributes:  classify.Attributes{classify.AttrAlignmentName: classify.Text("MAINST")},
		Confidence:  0.75,
		MatchedRule: "alignment-name",
	}

	outcome, err := s.m.Materialize(s.ctx, s.projectID, renamed, cls)
	s.Require().NoError(err)

	s.Equal(OutcomeConflict, outcome.Kind)

	l, err := s.links.Get(s.ctx, first.LinkID)
	s.Require().NoError(err)
	s.Equal(link.StatusConflict, l.Status)
	s.Equal(domain.ObjectTypeUtilityLine, l.ObjectType)
	s.Require().NotNil(l.Pending)
	s.Equal(domain.ObjectTypeAlignment, l.Pending.Classification.ObjectType)
}
