package export

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"cadlink/internal/cad"
	"cadlink/internal/classify"
	"cadlink/internal/geometry"
	"cadlink/internal/ingest"
	"cadlink/internal/link"
	"cadlink/internal/objects"
	"cadlink/internal/review"
	"cadlink/pkg/domain"
	"cadlink/pkg/testutil"
)

type ExporterSuite struct {
	suite.Suite

	ctx       context.Context
	projectID domain.ProjectID
	svc       *ingest.Service
	exporter  *Exporter
}

func TestExporterSuite(t *testing.T) {
	suite.Run(t, new(ExporterSuite))
}

func (s *ExporterSuite) SetupTest() {
	s.ctx = testutil.Context(s.T())
	s.projectID = domain.NewProjectID()
	objectStore := objects.NewInMemoryStore()
	links := link.NewRegistry(link.NewInMemoryStore(), nil, slog.Default())
	s.svc = ingest.NewService(classify.New(), objectStore, links, review.NewInMemoryStore())
	s.exporter = NewExporter(objectStore, links)
}

func (s *ExporterSuite) importBatch(entities ...cad.RawEntity) {
	report, err := s.svc.ImportBatch(s.ctx, s.projectID, entities)
	s.Require().NoError(err)
	s.Require().Equal(len(entities), report.Created)
}

func (s *ExporterSuite) TestRoundTripPreservesLayerAndHandle() {
	original := []cad.RawEntity{
		{Handle: "A1", LayerName: "12IN-STORM", Geometry: geometry.Geometry{Kind: geometry.KindLine, Points: []geometry.Point{{X: 0}, {X: 50}}}},
		{Handle: "B2", LayerName: "BMP-BIORETENTION-500CF", Geometry: geometry.Geometry{Kind: geometry.KindPolygon, Points: []geometry.Point{{X: 0}, {X: 5}, {Y: 5}}}},
		{Handle: "C3", LayerName: "TREE-OAK-24IN", Geometry: geometry.Geometry{Kind: geometry.KindPoint, Points: []geometry.Point{{X: 9, Y: 9}}}},
	}
	s.importBatch(original...)

	exported, err := s.exporter.ExportProject(s.ctx, s.projectID, objects.Filter{})
	s.Require().NoError(err)
	s.Require().Len(exported, 3)

	byHandle := map[string]cad.OutgoingEntity{}
	for _, e := range exported {
		byHandle[e.Handle] = e
	}
	for _, in := range original {
		out, ok := byHandle[in.Handle]
		s.Require().True(ok, "handle %s missing from export", in.Handle)
		s.Equal(in.LayerName, out.LayerName)
		s.True(in.Geometry.Equal(out.Geometry))
	}
}

func (s *ExporterSuite) TestExportedLayerReclassifiesIdentically() {
	// The round-trip law: classify(export(materialize(classify(L)))) equals
	// classify(L) for every recognized layer grammar.
	classifier := classify.New()
	layers := []cad.RawEntity{
		{Handle: "H1", LayerName: "8MM-GAS", Geometry: geometry.Geometry{Kind: geometry.KindLine, Points: []geometry.Point{{X: 0}, {X: 1}}}},
		{Handle: "H2", LayerName: "MH-SANITARY", Geometry: geometry.Geometry{Kind: geometry.KindPoint, Points: []geometry.Point{{X: 1}}}},
		{Handle: "H3", LayerName: "BMP-POND-1200GAL", Geometry: geometry.Geometry{Kind: geometry.KindPoint, Points: []geometry.Point{{X: 2}}}},
		{Handle: "H4", LayerName: "SURF-PROPOSED", Geometry: geometry.Geometry{Kind: geometry.KindFace, Points: []geometry.Point{{X: 0}, {X: 1}, {Y: 1}}}},
		{Handle: "H5", LayerName: "ALIGN-PIPELINE7", Geometry: geometry.Geometry{Kind: geometry.KindLine, Points: []geometry.Point{{X: 0}, {X: 3}}}},
		{Handle: "H6", LayerName: "SPT-CP9", Geometry: geometry.Geometry{Kind: geometry.KindPoint, Points: []geometry.Point{{X: 4}}}},
		{Handle: "H7", LayerName: "PARCEL-42A", Geometry: geometry.Geometry{Kind: geometry.KindPolygon, Points: []geometry.Point{{X: 0}, {X: 9}, {Y: 9}}}},
	}
	s.importBatch(layers...)

	exported, err := s.exporter.ExportProject(s.ctx, s.projectID, objects.Filter{})
	s.Require().NoError(err)
	s.Require().Len(exported, len(layers))

	want := map[string]classify.Classification{}
	for _, in := range layers {
		want[in.Handle] = classifier.Classify(in.LayerName)
	}
	for _, out := range exported {
		reclassified := classifier.Classify(out.LayerName)
		s.Equal(want[out.Handle], reclassified, "layer %s did not survive the round trip", out.LayerName)
	}
}

func (s *ExporterSuite) TestExportFilters() {
	s.importBatch(
		cad.RawEntity{Handle: "A1", LayerName: "12IN-STORM", Geometry: geometry.Geometry{Kind: geometry.KindLine, Points: []geometry.Point{{X: 0}, {X: 1}}}},
		cad.RawEntity{Handle: "B2", LayerName: "TREE-OAK", Geometry: geometry.Geometry{Kind: geometry.KindPoint, Points: []geometry.Point{{X: 2}}}},
		cad.RawEntity{Handle: "C3", LayerName: "PARCEL-7", Geometry: geometry.Geometry{Kind: geometry.KindPoint, Points: []geometry.Point{{X: 3}}}},
	)

	s.Run("by type", func() {
		out, err := s.exporter.ExportProject(s.ctx, s.projectID, objects.Filter{Types: []domain.ObjectType{domain.ObjectTypeTree}})
		s.Require().NoError(err)
		s.Require().Len(out, 1)
		s.Equal("B2", out[0].Handle)
	})

	s.Run("by discipline", func() {
		out, err := s.exporter.ExportProject(s.ctx, s.projectID, objects.Filter{Discipline: "site"})
		s.Require().NoError(err)
		s.Require().Len(out, 2)
	})

	s.Run("unfiltered is ordered by handle", func() {
		out, err := s.exporter.ExportProject(s.ctx, s.projectID, objects.Filter{})
		s.Require().NoError(err)
		s.Require().Len(out, 3)
		s.Equal("A1", out[0].Handle)
		s.Equal("B2", out[1].Handle)
		s.Equal("C3", out[2].Handle)
	})
}

func (s *ExporterSuite) TestDeletedLinksAreNotExported() {
	s.importBatch(cad.RawEntity{Handle: "A1", LayerName: "TREE-OAK", Geometry: geometry.Geometry{Kind: geometry.KindPoint, Points: []geometry.Point{{X: 1}}}})

	_, err := s.svc.Reimport(s.ctx, s.projectID, nil)
	s.Require().NoError(err)
	links, err := s.exporter.links.ListActive(s.ctx, s.projectID)
	s.Require().NoError(err)
	s.Require().Len(links, 1)
	s.Require().NoError(s.svc.ConfirmDeletion(s.ctx, links[0].ID))

	out, err := s.exporter.ExportProject(s.ctx, s.projectID, objects.Filter{})
	s.Require().NoError(err)
	s.Empty(out)
}
