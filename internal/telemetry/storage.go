package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/types"
)

const storageScopeName = "github.com/steveyegge/redline/storage"

var _ storage.Storage = (*InstrumentedStorage)(nil)

// InstrumentedStorage wraps storage.Storage with OTel tracing and metrics.
// Every method gets a span and is counted in rl.storage.* metrics.
// Provider.WrapStorage creates one.
type InstrumentedStorage struct {
	inner  storage.Storage
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

func newInstrumented(s storage.Storage, m metric.Meter, tracer trace.Tracer) *InstrumentedStorage {
	ops, _ := m.Int64Counter("rl.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("rl.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("rl.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	return &InstrumentedStorage{
		inner:  s,
		tracer: tracer,
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

// start opens a client span for a storage call and counts it.
func (s *InstrumentedStorage) start(ctx context.Context, name string, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(attrs...))
	return ctx, span
}

// finish records the duration and outcome and ends the span.
func (s *InstrumentedStorage) finish(ctx context.Context, span trace.Span, began time.Time, err error, attrs []attribute.KeyValue) {
	set := metric.WithAttributes(attrs...)
	s.dur.Record(ctx, float64(time.Since(began).Microseconds())/1000, set)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, set)
	}
	span.End()
}

// exec instruments a call that returns only an error.
func (s *InstrumentedStorage) exec(ctx context.Context, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	began := time.Now()
	ctx, span := s.start(ctx, name, attrs)
	err := fn(ctx)
	s.finish(ctx, span, began, err, attrs)
	return err
}

// fetch instruments a call that returns a value.
func fetch[T any](ctx context.Context, s *InstrumentedStorage, name string, fn func(context.Context) (T, error), attrs ...attribute.KeyValue) (T, error) {
	began := time.Now()
	ctx, span := s.start(ctx, name, attrs)
	v, err := fn(ctx)
	s.finish(ctx, span, began, err, attrs)
	return v, err
}

// list is fetch for row sets; the span also carries the row count.
func list[T any](ctx context.Context, s *InstrumentedStorage, name string, fn func(context.Context) ([]T, error), attrs ...attribute.KeyValue) ([]T, error) {
	return fetch(ctx, s, name, func(ctx context.Context) ([]T, error) {
		rows, err := fn(ctx)
		if err == nil {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Int("rl.result.count", len(rows)))
		}
		return rows, err
	}, attrs...)
}

var (
	userID    = attribute.Key("rl.user.id").String
	projectID = attribute.Key("rl.project.id").String
	issueID   = attribute.Key("rl.issue.id").String
	entryID   = attribute.Key("rl.time_entry.id").String
	commentID = attribute.Key("rl.comment.id").String
)

func (s *InstrumentedStorage) CreateUser(ctx context.Context, user *types.User) error {
	return s.exec(ctx, "CreateUser", func(ctx context.Context) error { return s.inner.CreateUser(ctx, user) },
		attribute.String("rl.user.role", string(user.Role)))
}

func (s *InstrumentedStorage) GetUser(ctx context.Context, id string) (*types.User, error) {
	return fetch(ctx, s, "GetUser", func(ctx context.Context) (*types.User, error) { return s.inner.GetUser(ctx, id) }, userID(id))
}

func (s *InstrumentedStorage) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return fetch(ctx, s, "GetUserByEmail", func(ctx context.Context) (*types.User, error) { return s.inner.GetUserByEmail(ctx, email) })
}

func (s *InstrumentedStorage) ListUsers(ctx context.Context) ([]types.User, error) {
	return list(ctx, s, "ListUsers", s.inner.ListUsers)
}

func (s *InstrumentedStorage) UpdateUser(ctx context.Context, user *types.User) error {
	return s.exec(ctx, "UpdateUser", func(ctx context.Context) error { return s.inner.UpdateUser(ctx, user) }, userID(user.ID))
}

func (s *InstrumentedStorage) DeleteUser(ctx context.Context, id string) error {
	return s.exec(ctx, "DeleteUser", func(ctx context.Context) error { return s.inner.DeleteUser(ctx, id) }, userID(id))
}

func (s *InstrumentedStorage) CreateProject(ctx context.Context, project *types.Project) error {
	return s.exec(ctx, "CreateProject", func(ctx context.Context) error { return s.inner.CreateProject(ctx, project) },
		attribute.String("rl.project.identifier", project.Identifier))
}

func (s *InstrumentedStorage) GetProject(ctx context.Context, id string) (*types.Project, error) {
	return fetch(ctx, s, "GetProject", func(ctx context.Context) (*types.Project, error) { return s.inner.GetProject(ctx, id) }, projectID(id))
}

func (s *InstrumentedStorage) GetProjectByIdentifier(ctx context.Context, identifier string) (*types.Project, error) {
	return fetch(ctx, s, "GetProjectByIdentifier", func(ctx context.Context) (*types.Project, error) {
		return s.inner.GetProjectByIdentifier(ctx, identifier)
	}, attribute.String("rl.project.identifier", identifier))
}

func (s *InstrumentedStorage) ListProjects(ctx context.Context) ([]types.Project, error) {
	return list(ctx, s, "ListProjects", s.inner.ListProjects)
}

func (s *InstrumentedStorage) UpdateProject(ctx context.Context, project *types.Project) error {
	return s.exec(ctx, "UpdateProject", func(ctx context.Context) error { return s.inner.UpdateProject(ctx, project) }, projectID(project.ID))
}

func (s *InstrumentedStorage) DeleteProject(ctx context.Context, id string) error {
	return s.exec(ctx, "DeleteProject", func(ctx context.Context) error { return s.inner.DeleteProject(ctx, id) }, projectID(id))
}

func (s *InstrumentedStorage) CreateIssue(ctx context.Context, issue *types.Issue) error {
	return s.exec(ctx, "CreateIssue", func(ctx context.Context) error { return s.inner.CreateIssue(ctx, issue) },
		projectID(issue.ProjectID), attribute.String("rl.issue.tracker", string(issue.Tracker)))
}

func (s *InstrumentedStorage) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	return fetch(ctx, s, "GetIssue", func(ctx context.Context) (*types.Issue, error) { return s.inner.GetIssue(ctx, id) }, issueID(id))
}

func (s *InstrumentedStorage) ListIssues(ctx context.Context) ([]types.Issue, error) {
	return list(ctx, s, "ListIssues", s.inner.ListIssues)
}

func (s *InstrumentedStorage) ListIssuesByProject(ctx context.Context, id string) ([]types.Issue, error) {
	return list(ctx, s, "ListIssuesByProject", func(ctx context.Context) ([]types.Issue, error) {
		return s.inner.ListIssuesByProject(ctx, id)
	}, projectID(id))
}

func (s *InstrumentedStorage) UpdateIssue(ctx context.Context, issue *types.Issue) error {
	return s.exec(ctx, "UpdateIssue", func(ctx context.Context) error { return s.inner.UpdateIssue(ctx, issue) },
		issueID(issue.ID), attribute.String("rl.issue.status", string(issue.Status)))
}

func (s *InstrumentedStorage) DeleteIssue(ctx context.Context, id string) error {
	return s.exec(ctx, "DeleteIssue", func(ctx context.Context) error { return s.inner.DeleteIssue(ctx, id) }, issueID(id))
}

func (s *InstrumentedStorage) CreateTimeEntry(ctx context.Context, entry *types.TimeEntry) error {
	return s.exec(ctx, "CreateTimeEntry", func(ctx context.Context) error { return s.inner.CreateTimeEntry(ctx, entry) },
		issueID(entry.IssueID), attribute.String("rl.activity", string(entry.ActivityType)))
}

func (s *InstrumentedStorage) GetTimeEntry(ctx context.Context, id string) (*types.TimeEntry, error) {
	return fetch(ctx, s, "GetTimeEntry", func(ctx context.Context) (*types.TimeEntry, error) { return s.inner.GetTimeEntry(ctx, id) }, entryID(id))
}

func (s *InstrumentedStorage) ListTimeEntries(ctx context.Context) ([]types.TimeEntry, error) {
	return list(ctx, s, "ListTimeEntries", s.inner.ListTimeEntries)
}

func (s *InstrumentedStorage) ListTimeEntriesByIssue(ctx context.Context, id string) ([]types.TimeEntry, error) {
	return list(ctx, s, "ListTimeEntriesByIssue", func(ctx context.Context) ([]types.TimeEntry, error) {
		return s.inner.ListTimeEntriesByIssue(ctx, id)
	}, issueID(id))
}

func (s *InstrumentedStorage) UpdateTimeEntry(ctx context.Context, entry *types.TimeEntry) error {
	return s.exec(ctx, "UpdateTimeEntry", func(ctx context.Context) error { return s.inner.UpdateTimeEntry(ctx, entry) }, entryID(entry.ID))
}

func (s *InstrumentedStorage) DeleteTimeEntry(ctx context.Context, id string) error {
	return s.exec(ctx, "DeleteTimeEntry", func(ctx context.Context) error { return s.inner.DeleteTimeEntry(ctx, id) }, entryID(id))
}

func (s *InstrumentedStorage) CreateComment(ctx context.Context, comment *types.Comment) error {
	return s.exec(ctx, "CreateComment", func(ctx context.Context) error { return s.inner.CreateComment(ctx, comment) }, issueID(comment.IssueID))
}

func (s *InstrumentedStorage) GetComment(ctx context.Context, id string) (*types.Comment, error) {
	return fetch(ctx, s, "GetComment", func(ctx context.Context) (*types.Comment, error) { return s.inner.GetComment(ctx, id) }, commentID(id))
}

func (s *InstrumentedStorage) ListComments(ctx context.Context) ([]types.Comment, error) {
	return list(ctx, s, "ListComments", s.inner.ListComments)
}

func (s *InstrumentedStorage) ListCommentsByIssue(ctx context.Context, id string) ([]types.Comment, error) {
	return list(ctx, s, "ListCommentsByIssue", func(ctx context.Context) ([]types.Comment, error) {
		return s.inner.ListCommentsByIssue(ctx, id)
	}, issueID(id))
}

func (s *InstrumentedStorage) UpdateComment(ctx context.Context, comment *types.Comment) error {
	return s.exec(ctx, "UpdateComment", func(ctx context.Context) error { return s.inner.UpdateComment(ctx, comment) }, commentID(comment.ID))
}

func (s *InstrumentedStorage) DeleteComment(ctx context.Context, id string) error {
	return s.exec(ctx, "DeleteComment", func(ctx context.Context) error { return s.inner.DeleteComment(ctx, id) }, commentID(id))
}

// RunInTransaction gets one span for the whole transaction; calls made
// on tx inside it are not traced separately.
func (s *InstrumentedStorage) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	return s.exec(ctx, "RunInTransaction", func(ctx context.Context) error { return s.inner.RunInTransaction(ctx, fn) })
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
