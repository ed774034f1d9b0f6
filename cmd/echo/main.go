// Command echo runs the TCP echo (smoke test) server.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/netprax/protohackers/internal/echo"
)

func main() {
	listenAddr := pflag.String("listen", ":50001", "TCP listen address")
	pflag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "echo:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	listener, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		logger.Fatal("listen failed", zap.Error(err))
	}
	logger.Info("listening", zap.Stringer("addr", listener.Addr()))

	if err := echo.NewServer(logger).Serve(listener); err != nil {
		logger.Fatal("serve failed", zap.Error(err))
	}
}
