package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"generalize-service/generalize"
	"generalize-service/geometry"
	"generalize-service/model"
	"generalize-service/session"
)

// ErrInvalidRequest marks requests rejected before any calculation.
var ErrInvalidRequest = errors.New("invalid request")

// Server implements GeneralizerServer on top of the engine. The HTTP
// handlers share its request handling.
type Server struct {
	Engine *generalize.Engine
	// Sessions is optional. Without it calculate responses carry no token.
	Sessions *session.Store
	// Defaults apply to requests that carry no options.
	Defaults generalize.Options
	// Deadline bounds every request. Zero means the caller's deadline only.
	Deadline time.Duration
	Metrics  *Metrics
	Logger   *slog.Logger
}

// NewServer creates a server with default request options.
func NewServer(engine *generalize.Engine, sessions *session.Store, metrics *Metrics, logger *slog.Logger) *Server {
	return &Server{
		Engine:   engine,
		Sessions: sessions,
		Defaults: generalize.DefaultOptions(),
		Metrics:  metrics,
		Logger:   logger,
	}
}

var _ GeneralizerServer = (*Server)(nil)

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Deadline > 0 {
		return context.WithTimeout(ctx, s.Deadline)
	}
	return context.WithCancel(ctx)
}

func (s *Server) options(o *generalize.Options) (generalize.Options, error) {
	opts := s.Defaults
	if o != nil {
		opts = *o
	}
	if err := opts.Validate(); err != nil {
		return opts, errors.Mark(err, ErrInvalidRequest)
	}
	return opts, nil
}

func (s *Server) CalculateRemovableSegments(ctx context.Context, req *CalculateRequest) (*CalculateResponse, error) {
	resp, err := s.calculate(ctx, req)
	return resp, toStatus(err)
}

func (s *Server) ApplySegmentRemoval(ctx context.Context, req *ApplyRequest) (*ApplyResponse, error) {
	resp, err := s.apply(ctx, req)
	return resp, toStatus(err)
}

func (s *Server) ClearSession(ctx context.Context, req *ClearRequest) (*ClearResponse, error) {
	resp, err := s.clear(req)
	return resp, toStatus(err)
}

func (s *Server) calculate(ctx context.Context, req *CalculateRequest) (resp *CalculateResponse, err error) {
	start := time.Now()
	defer func() { s.Metrics.observe("calculate", start, err) }()

	if req == nil {
		return nil, errors.Wrap(model.ErrNilParameter, "calculate request")
	}
	opts, err := s.options(req.Options)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	calc, err := s.Engine.CalculateRemovableSegments(ctx, req.Sources, toTargets(req.Targets), opts)
	if err != nil {
		s.logger().Warn("calculate failed", slog.Int("sources", len(req.Sources)), slog.Any("error", err))
		return nil, err
	}

	resp = &CalculateResponse{
		Removable:     calc.Removable,
		Overlaps:      calc.Overlaps,
		Notifications: calc.Notifications,
		Summary:       calc.Notifications.Summary(),
	}
	deleted := 0
	for _, g := range calc.Removable.All() {
		deleted += len(g.DeletablePoints)
	}
	s.Metrics.addDeleted(deleted)

	if req.Session != "" && s.Sessions != nil {
		token, err := s.Sessions.Put(req.Session, calc.Removable)
		if err != nil {
			return nil, err
		}
		resp.Token = token.String()
	}
	return resp, nil
}

func (s *Server) apply(ctx context.Context, req *ApplyRequest) (resp *ApplyResponse, err error) {
	start := time.Now()
	defer func() { s.Metrics.observe("apply", start, err) }()

	if req == nil {
		return nil, errors.Wrap(model.ErrNilParameter, "apply request")
	}
	opts, err := s.options(req.Options)
	if err != nil {
		return nil, err
	}
	removable := req.Removable
	if removable == nil && req.Token != "" {
		if removable, err = s.lookup(req.Token); err != nil {
			return nil, err
		}
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	app, err := s.Engine.ApplySegmentRemoval(ctx, req.Sources, removable, toTargets(req.Targets), opts)
	if err != nil {
		s.logger().Warn("apply failed", slog.Int("sources", len(req.Sources)), slog.Any("error", err))
		return nil, err
	}
	s.Metrics.addUpdated(len(app.Updated) + len(app.Affected))
	return &ApplyResponse{
		Updated:       app.Updated,
		Affected:      app.Affected,
		Notifications: app.Notifications,
		Summary:       app.Notifications.Summary(),
	}, nil
}

func (s *Server) lookup(token string) (*model.RemovableSegments, error) {
	if s.Sessions == nil {
		return nil, errors.Wrap(session.ErrNotFound, "no session store")
	}
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "token %q", token), ErrInvalidRequest)
	}
	return s.Sessions.Get(id)
}

func (s *Server) clear(req *ClearRequest) (resp *ClearResponse, err error) {
	start := time.Now()
	defer func() { s.Metrics.observe("clear", start, err) }()

	if req == nil {
		return nil, errors.Wrap(model.ErrNilParameter, "clear request")
	}
	if s.Sessions == nil {
		return &ClearResponse{}, nil
	}
	switch {
	case req.All:
		s.Sessions.ClearAll()
	case req.Session != "":
		s.Sessions.Clear(req.Session)
	default:
		return nil, errors.Mark(errors.New("session or all must be set"), ErrInvalidRequest)
	}
	return &ClearResponse{Remaining: s.Sessions.Len()}, nil
}

// code classifies err for both transports.
func code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, generalize.ErrCancelled), errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, geometry.ErrUnsupportedGeometryKind),
		errors.Is(err, model.ErrNilParameter),
		errors.Is(err, ErrInvalidRequest):
		return codes.InvalidArgument
	case errors.Is(err, session.ErrNotFound):
		return codes.NotFound
	default:
		return codes.Internal
	}
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(code(err), err.Error())
}

func outcome(err error) string {
	switch code(err) {
	case codes.OK:
		return "ok"
	case codes.Canceled, codes.DeadlineExceeded:
		return "cancelled"
	case codes.InvalidArgument, codes.NotFound:
		return "rejected"
	default:
		return "error"
	}
}
