package grpcapi_test

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store/memory"
	"github.com/zhank48/ultfpeb-sub004/internal/grpcapi"
)

func startServer(t *testing.T) (*grpcapi.Server, healthpb.HealthClient) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpcapi.NewServer("", nil)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return srv, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealth_StartsNotServing(t *testing.T) {
	_, c := startServer(t)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, c, grpcapi.ServiceOverall))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, c, grpcapi.ServiceConsistency))
}

func TestHealth_StoreDrivesOverall(t *testing.T) {
	srv, c := startServer(t)

	srv.SetServing(grpcapi.ServiceStore, true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, c, grpcapi.ServiceStore))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, c, grpcapi.ServiceOverall))

	srv.SetServing(grpcapi.ServiceConsistency, false)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, c, grpcapi.ServiceOverall))

	srv.SetServing(grpcapi.ServiceStore, false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, c, grpcapi.ServiceOverall))
}

func TestProber_PublishesProbeResult(t *testing.T) {
	srv := grpcapi.NewServer("", nil)
	ctx := context.Background()

	var fail atomic.Bool
	p := grpcapi.NewProber(srv, grpcapi.ServiceStore, func(context.Context) error {
		if fail.Load() {
			return errors.New("db down")
		}
		return nil
	}, 10*time.Millisecond, nil)

	p.Start(ctx)
	defer p.Stop()

	st, err := srv.Status(ctx, grpcapi.ServiceStore)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, st)

	fail.Store(true)
	require.Eventually(t, func() bool {
		st, err := srv.Status(ctx, grpcapi.ServiceOverall)
		return err == nil && st == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 5*time.Millisecond)
}

func TestStoreProbe_Memory(t *testing.T) {
	probe := grpcapi.StoreProbe(memory.New())
	assert.NoError(t, probe(context.Background()))
}
