package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"market-loader/src/grpc_control"
	"market-loader/src/interfaces"
	"market-loader/src/server"
)

// -----------------------------------------------------------------------------

// serve runs the API server and the gRPC control server until ctx is done or
// one of them fails.
func serve(ctx context.Context) error {
	app, err := bootstrap(ctx, configFile)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 1. API server; run events go out over its websocket hub
	var srv interfaces.IDataExchanger = server.NewAPIServer(app.Config.MConfig, app.Registry)
	app.Runner.Publisher = srv

	errs := make(chan error, 2)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("api server: %w", err)
		}
	}()

	// 2. gRPC control server
	addr := fmt.Sprintf("%s:%d", app.Config.GrpcHost, app.Config.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		srv.Stop()
		return fmt.Errorf("failed to listen for gRPC on %s: %w", addr, err)
	}
	go func() {
		if err := grpc_control.Serve(ctx, lis, grpc_control.NewControlService(app.Registry)); err != nil {
			errs <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		app.Logger.Info("Shutting down...")
	case err = <-errs:
		app.Logger.Error("%v", err)
	}

	cancel()
	if stopErr := srv.Stop(); stopErr != nil {
		app.Logger.Warning("API server shutdown: %v", stopErr)
	}
	return err
}
