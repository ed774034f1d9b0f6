// Command pricedb runs the asset price store and query server.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/netprax/protohackers/internal/prices"
)

func main() {
	listenAddr := pflag.String("listen", ":50003", "TCP listen address")
	pflag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "pricedb:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	listener, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		logger.Fatal("listen failed", zap.Error(err))
	}
	logger.Info("listening", zap.Stringer("addr", listener.Addr()))

	if err := prices.NewServer(logger).Serve(listener); err != nil {
		logger.Fatal("serve failed", zap.Error(err))
	}
}
