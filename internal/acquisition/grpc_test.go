package acquisition

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/schedule"
)

// bridge serves a synthetic board over an in-memory listener and returns a
// client wired to it.
func bridge(t *testing.T) (*GRPC, *Synthetic, *schedule.Simulated) {
	t.Helper()

	clock := schedule.NewSimulated(epoch)
	board := newBoard(clock)
	require.NoError(t, board.Start(context.Background()))

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterWindowServer(srv, NewSourceServer(board, board.Channels()))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewGRPCWithConn(conn), board, clock
}

func TestGRPCWindowBeforeStart(t *testing.T) {
	client, _, _ := bridge(t)
	_, err := client.Window(context.Background(), "C3")
	require.ErrorIs(t, err, ErrNotStarted)
}

func TestGRPCStartLearnsRate(t *testing.T) {
	client, _, _ := bridge(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.Start(ctx))
	require.Equal(t, 250, client.SamplingRate())
}

func TestGRPCWindowRoundTrip(t *testing.T) {
	client, board, clock := bridge(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Start(ctx))

	_, err := client.Window(ctx, "C3")
	require.ErrorIs(t, err, ErrInsufficient)

	clock.Advance(3 * time.Second)
	got, err := client.Window(ctx, "C3")
	require.NoError(t, err)

	want, err := board.Window(ctx, "C3")
	require.NoError(t, err)
	require.Equal(t, want.Samples, got.Samples)
	require.Equal(t, "C3", got.Channel)
}

func TestGRPCUnknownChannel(t *testing.T) {
	client, _, clock := bridge(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Start(ctx))

	clock.Advance(2 * time.Second)
	_, err := client.Window(ctx, "Cz")
	require.ErrorIs(t, err, ErrUnknownChannel)
}

func TestGRPCCloseWithoutOwnedConn(t *testing.T) {
	client, _, _ := bridge(t)
	require.NoError(t, client.Close())
}
