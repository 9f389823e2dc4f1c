package acquisition

import (
	"context"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region methods
// ServiceName is the gRPC service exposed by streaming bridges.
const ServiceName = "eeg.acquisition.v1.Acquisition"

const (
	describeMethod  = "/" + ServiceName + "/Describe"
	getWindowMethod = "/" + ServiceName + "/GetWindow"
)

// #endregion methods

// #region client-struct
// GRPC reads windows from a remote streaming bridge. Requests and responses
// are google.protobuf.Struct messages.
type GRPC struct {
	conn   grpc.ClientConnInterface
	closer io.Closer

	mu   sync.RWMutex
	rate int
}

// #endregion client-struct

// #region constructor
// DialGRPC creates a client for the bridge at addr. The connection is lazy;
// Start performs the first round trip.
func DialGRPC(addr string) (*GRPC, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &GRPC{conn: conn, closer: conn}, nil
}

// NewGRPCWithConn wraps an existing connection. The caller keeps ownership of conn.
func NewGRPCWithConn(conn grpc.ClientConnInterface) *GRPC {
	return &GRPC{conn: conn}
}

// #endregion constructor

// #region start
// Start asks the bridge for its sampling rate. Failure here is fatal for the
// session.
func (g *GRPC) Start(ctx context.Context) error {
	resp := new(structpb.Struct)
	if err := g.conn.Invoke(ctx, describeMethod, &structpb.Struct{}, resp); err != nil {
		return fmt.Errorf("describe rpc: %w", err)
	}
	rate := int(resp.GetFields()["sampling_rate"].GetNumberValue())
	if rate <= 0 {
		return fmt.Errorf("describe rpc: invalid sampling rate %d", rate)
	}

	g.mu.Lock()
	g.rate = rate
	g.mu.Unlock()
	return nil
}

// #endregion start

func (g *GRPC) SamplingRate() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rate
}

// #region window
func (g *GRPC) Window(ctx context.Context, channel string) (Window, error) {
	rate := g.SamplingRate()
	if rate == 0 {
		return Window{}, ErrNotStarted
	}

	req, err := structpb.NewStruct(map[string]any{
		"channel":     channel,
		"max_samples": WindowSeconds * rate,
	})
	if err != nil {
		return Window{}, fmt.Errorf("build request: %w", err)
	}

	resp := new(structpb.Struct)
	if err := g.conn.Invoke(ctx, getWindowMethod, req, resp); err != nil {
		switch status.Code(err) {
		case codes.FailedPrecondition:
			return Window{}, fmt.Errorf("%w: %s", ErrInsufficient, status.Convert(err).Message())
		case codes.NotFound:
			return Window{}, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
		}
		return Window{}, fmt.Errorf("get window rpc: %w", err)
	}

	values := resp.GetFields()["samples"].GetListValue().GetValues()
	w := Window{
		Channel:      channel,
		SamplingRate: rate,
		Samples:      make([]float64, len(values)),
	}
	for i, v := range values {
		w.Samples[i] = v.GetNumberValue()
	}
	if !w.Valid() {
		return Window{}, fmt.Errorf("%w: %s has %d of %d samples", ErrInsufficient, channel, len(w.Samples), rate)
	}
	return w, nil
}

// #endregion window

// #region close
// Close shuts down the connection if this client created it.
func (g *GRPC) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer.Close()
}

// #endregion close
