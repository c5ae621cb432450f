package rpcserver

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"nemesix/internal/health"
	"nemesix/pkg/logger"
	"nemesix/pkg/redis"
)

func TestMain(m *testing.M) {
	if err := logger.Init(&logger.Config{Level: "fatal", Output: "stdout"}); err != nil {
		panic("初始化日志失败: " + err.Error())
	}
	m.Run()
}

type fakeDB struct{ err error }

func (f *fakeDB) PingContext(context.Context) error { return f.err }

type fakeCounter struct{}

func (fakeCounter) Count(context.Context) (int64, error) { return 1, nil }

// startServer 在内存监听上启动服务，返回健康检查客户端
func startServer(t *testing.T, srv *Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func TestServer_HealthStatusFollowsChecker(t *testing.T) {
	db := &fakeDB{}
	srv := New(health.NewChecker(db, redis.NewMemoryClient(), fakeCounter{}), time.Hour)
	client := startServer(t, srv)
	ctx := context.Background()

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, srv.Refresh(ctx))
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	db.err = errors.New("db down")
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, srv.Refresh(ctx))
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestServer_UnknownService(t *testing.T) {
	srv := New(health.NewChecker(&fakeDB{}, redis.NewMemoryClient(), fakeCounter{}), 0)
	client := startServer(t, srv)

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "other"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestServer_WatchStopsOnCancel(t *testing.T) {
	srv := New(health.NewChecker(&fakeDB{}, redis.NewMemoryClient(), fakeCounter{}), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Watch(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch 未在取消后退出")
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/test/Panic"}
	_, err := RecoveryInterceptor()(context.Background(), nil, info,
		func(context.Context, interface{}) (interface{}, error) {
			panic("boom")
		})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/test/Echo"}
	resp, err := LoggingInterceptor()(context.Background(), "ping", info,
		func(_ context.Context, req interface{}) (interface{}, error) {
			return req, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "ping", resp)
}
