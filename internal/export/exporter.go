package export

import (
	"context"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"cadlink/internal/cad"
	"cadlink/internal/link"
	"cadlink/internal/objects"
	"cadlink/pkg/domain"
)

// Exporter renders a project's domain records back into drawing entities.
// Strictly read-only: it never touches link state, so exporting is always
// safe to run while a conflict sits unresolved (the database side wins the
// rendering until someone resolves it).
type Exporter struct {
	objects objects.Store
	links   *link.Registry
	tracer  trace.Tracer
	logger  *slog.Logger
}

type Option func(*Exporter)

func WithTracer(t trace.Tracer) Option { return func(e *Exporter) { e.tracer = t } }
func WithLogger(l *slog.Logger) Option { return func(e *Exporter) { e.logger = l } }

func NewExporter(objectStore objects.Store, links *link.Registry, opts ...Option) *Exporter {
	e := &Exporter{
		objects: objectStore,
		links:   links,
		tracer:  noop.NewTracerProvider().Tracer("cadlink/export"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExportProject renders every linked domain record that passes the filter.
// Handles come from the link registry, so a record re-exported after edits
// lands on the same drawing entity it was imported from. Output is ordered
// by handle.
func (e *Exporter) ExportProject(ctx context.Context, projectID domain.ProjectID, filter objects.Filter) ([]cad.OutgoingEntity, error) {
	ctx, span := e.tracer.Start(ctx, "export.ExportProject",
		trace.WithAttributes(attribute.String("project_id", projectID.String())))
	defer span.End()

	active, err := e.links.ListActive(ctx, projectID)
	if err != nil {
		return nil, err
	}
	handles := make(map[domain.ObjectID]string, len(active))
	for _, l := range active {
		handles[l.ObjectID] = l.CadHandle
	}

	records, err := e.objects.List(ctx, projectID, filter)
	if err != nil {
		return nil, err
	}

	out := make([]cad.OutgoingEntity, 0, len(records))
	for _, obj := range records {
		handle, ok := handles[obj.ID]
		if !ok {
			// A record with no active link has no drawing identity to target;
			// leave it out rather than invent a handle the drawing never had.
			e.logger.WarnContext(ctx, "skipping unlinked domain record on export",
				"project_id", projectID.String(),
				"object_id", obj.ID.String(),
				"object_type", obj.Type().String(),
			)
			continue
		}
		layerName, err := LayerName(obj.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, cad.OutgoingEntity{
			Handle:    handle,
			LayerName: layerName,
			Geometry:  obj.Geometry,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out, nil
}
