package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"generalize-service/generalize"
	"generalize-service/geometry"
	"generalize-service/model"
	"generalize-service/session"
)

func v(x, y float64) geometry.Vertex { return geometry.Vertex{X: x, Y: y} }

// A square with a 0.01 bump on its bottom edge.
func bumpedSquare() *model.Feature {
	return &model.Feature{
		Ref:         model.FeatureRef{ClassID: 1, ObjectID: 7},
		XYTolerance: 0.001,
		Shape: geometry.Shape{Kind: geometry.KindPolygon, Parts: []geometry.Part{{
			Vertices: []geometry.Vertex{v(0, 0), v(5, 0.01), v(10, 0), v(10, 10), v(0, 10), v(0, 0)},
		}}},
	}
}

func weedOptions() *generalize.Options {
	opts := generalize.DefaultOptions()
	opts.WeedTolerance = 0.1
	return &opts
}

func testServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(generalize.NewEngine(logger, 2), session.NewStore(4, 16), NewMetrics(reg), logger)
	return srv, reg
}

func testClient(t *testing.T, srv *Server) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	RegisterGeneralizerServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	client, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRemoteCalculateApply(t *testing.T) {
	srv, reg := testServer(t)
	client := testClient(t, srv)
	ctx := context.Background()
	f := bumpedSquare()

	calc, err := client.CalculateRemovableSegments(ctx, &CalculateRequest{
		Session: "edit-1",
		Sources: []*model.Feature{f},
		Options: weedOptions(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, calc.Token)
	g, ok := calc.Removable.Get(f.Ref)
	require.True(t, ok)
	assert.Equal(t, []geometry.Vertex{v(5, 0.01)}, g.DeletablePoints)

	applied, err := client.ApplySegmentRemoval(ctx, &ApplyRequest{
		Sources: []*model.Feature{f},
		Token:   calc.Token,
		Options: weedOptions(),
	})
	require.NoError(t, err)
	require.Len(t, applied.Updated, 1)
	assert.Equal(t, f.Ref, applied.Updated[0].Ref)
	assert.Equal(t, 5, applied.Updated[0].Shape.VertexCount())
	assert.Empty(t, applied.Affected)

	cleared, err := client.ClearSession(ctx, &ClearRequest{Session: "edit-1"})
	require.NoError(t, err)
	assert.Zero(t, cleared.Remaining)

	_, err = client.ApplySegmentRemoval(ctx, &ApplyRequest{Sources: []*model.Feature{f}, Token: calc.Token})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, Code(err))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["generalize_requests_total"])
	assert.True(t, names["generalize_deletable_vertices_total"])
}

func TestRemoteInvalidArgument(t *testing.T) {
	srv, _ := testServer(t)
	client := testClient(t, srv)

	point := &model.Feature{
		Ref:   model.FeatureRef{ClassID: 1, ObjectID: 1},
		Shape: geometry.Shape{Kind: geometry.KindPoint, Parts: []geometry.Part{{Vertices: []geometry.Vertex{v(1, 1)}}}},
	}
	_, err := client.CalculateRemovableSegments(context.Background(), &CalculateRequest{
		Sources: []*model.Feature{point},
		Options: weedOptions(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemoteCall))
	assert.Equal(t, codes.InvalidArgument, Code(err))
	assert.False(t, IsRetryable(err))

	_, err = client.ApplySegmentRemoval(context.Background(), &ApplyRequest{Sources: []*model.Feature{bumpedSquare()}})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, Code(err), "apply without removable segments")

	_, err = client.ApplySegmentRemoval(context.Background(), &ApplyRequest{Token: "not-a-token"})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, Code(err))
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"cancelled", errors.Mark(errors.Wrap(context.Canceled, "weeding"), generalize.ErrCancelled), codes.Canceled},
		{"deadline", errors.Mark(errors.Wrap(context.DeadlineExceeded, "weeding"), generalize.ErrCancelled), codes.DeadlineExceeded},
		{"kind", errors.Wrap(geometry.ErrUnsupportedGeometryKind, "feature 1/1"), codes.InvalidArgument},
		{"nil parameter", errors.Wrap(model.ErrNilParameter, "removable"), codes.InvalidArgument},
		{"session", errors.Wrap(session.ErrNotFound, "token"), codes.NotFound},
		{"other", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, code(tt.err))
			if tt.err != nil {
				assert.Equal(t, tt.want, status.Code(toStatus(tt.err)))
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(remoteError(status.Error(codes.Unavailable, "down"), "calculating")))
	assert.True(t, IsRetryable(remoteError(status.Error(codes.DeadlineExceeded, "slow"), "calculating")))
	assert.False(t, IsRetryable(remoteError(status.Error(codes.InvalidArgument, "bad"), "calculating")))
	assert.False(t, IsRetryable(status.Error(codes.Unavailable, "not from the client")))

	err := remoteError(status.Error(codes.Canceled, "gone"), "applying")
	assert.True(t, errors.Is(err, generalize.ErrCancelled))
	assert.False(t, IsRetryable(err))
}

func postJSON(t *testing.T, h http.Handler, ctx context.Context, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHTTPHandlers(t *testing.T) {
	srv, reg := testServer(t)
	h := srv.Handler(reg)
	f := bumpedSquare()

	rec := postJSON(t, h, context.Background(), "/calculate", &CalculateRequest{
		Sources: []*model.Feature{f},
		Options: weedOptions(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var calc CalculateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &calc))
	assert.Empty(t, calc.Token, "no session requested")
	require.Equal(t, 1, calc.Removable.Len())

	rec = postJSON(t, h, context.Background(), "/apply", &ApplyRequest{
		Sources:   []*model.Feature{f},
		Removable: calc.Removable,
		Options:   weedOptions(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var applied ApplyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &applied))
	require.Len(t, applied.Updated, 1)
	assert.Equal(t, 5, applied.Updated[0].Shape.VertexCount())

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rec := postJSON(t, h, ctx, "/calculate", &CalculateRequest{Sources: []*model.Feature{f}, Options: weedOptions()})
		assert.Equal(t, statusClientClosedRequest, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["cancelled"])
	})

	t.Run("bad body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative crack tolerance", func(t *testing.T) {
		opts := weedOptions()
		opts.CrackTolerance = -1
		rec := postJSON(t, h, context.Background(), "/calculate", &CalculateRequest{Sources: []*model.Feature{f}, Options: opts})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apply", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/calculate", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("health and metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"ready"`)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `generalize_requests_total{op="calculate",outcome="cancelled"} 1`)
	})
}
