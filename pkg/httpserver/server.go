// Package httpserver はコンテキストの終了で停止するHTTPサーバーの起動処理を提供する。
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// ShutdownTimeout は処理中のリクエストの完了を待つ上限。
	ShutdownTimeout = 30 * time.Second
	// readHeaderTimeout はリクエストヘッダの読み込み期限。
	readHeaderTimeout = 10 * time.Second
)

// Run はaddrで待ち受け、ctxが終了するまでhandlerでリクエストを処理する。
func Run(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%sでの待ち受けに失敗: %w", addr, err)
	}
	return Serve(ctx, ln, handler, logger)
}

// Serve はlnでリクエストを処理し、ctxが終了したら新規接続を止めて
// 処理中のリクエストの完了をShutdownTimeoutまで待つ。
// 停止による終了ではnilを返す。
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("HTTPサーバーを起動", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTPサーバーが停止: %w", err)
	case <-ctx.Done():
	}

	logger.Info("HTTPサーバーを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTPサーバーが停止: %w", err)
	}
	return nil
}
