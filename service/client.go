package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"generalize-service/generalize"
)

// ErrRemoteCall marks every error returned by Client.
var ErrRemoteCall = errors.New("remote call failed")

// Client calls a remote generalize service. It has no retry logic; use
// IsRetryable to decide whether to resubmit.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for target. Options are applied after the insecure
// transport and the JSON codec defaults.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", target)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) CalculateRemovableSegments(ctx context.Context, req *CalculateRequest) (*CalculateResponse, error) {
	out := new(CalculateResponse)
	if err := c.conn.Invoke(ctx, calculateMethod, req, out); err != nil {
		return nil, remoteError(err, "calculating removable segments")
	}
	return out, nil
}

func (c *Client) ApplySegmentRemoval(ctx context.Context, req *ApplyRequest) (*ApplyResponse, error) {
	out := new(ApplyResponse)
	if err := c.conn.Invoke(ctx, applyMethod, req, out); err != nil {
		return nil, remoteError(err, "applying segment removal")
	}
	return out, nil
}

func (c *Client) ClearSession(ctx context.Context, req *ClearRequest) (*ClearResponse, error) {
	out := new(ClearResponse)
	if err := c.conn.Invoke(ctx, clearMethod, req, out); err != nil {
		return nil, remoteError(err, "clearing session")
	}
	return out, nil
}

func remoteError(err error, op string) error {
	wrapped := errors.Mark(errors.Wrap(err, op), ErrRemoteCall)
	switch status.Code(err) {
	case codes.Canceled, codes.DeadlineExceeded:
		wrapped = errors.Mark(wrapped, generalize.ErrCancelled)
	}
	return wrapped
}

// Code returns the gRPC code of an error returned by Client.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	return status.Code(errors.UnwrapAll(err))
}

// IsRetryable reports whether a failed remote call may succeed when
// resubmitted unchanged.
func IsRetryable(err error) bool {
	if !errors.Is(err, ErrRemoteCall) {
		return false
	}
	switch Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	}
	return false
}
