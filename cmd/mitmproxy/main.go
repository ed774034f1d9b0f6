// Command mitmproxy runs the boguscoin-rewriting chat proxy.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/netprax/protohackers/internal/proxy"
)

func main() {
	listenAddr := pflag.String("listen", ":50006", "TCP listen address")
	upstreamAddr := pflag.String("upstream", proxy.DefaultUpstreamAddr, "upstream chat server address")
	pflag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "mitmproxy:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	listener, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		logger.Fatal("listen failed", zap.Error(err))
	}
	logger.Info("listening", zap.Stringer("addr", listener.Addr()))

	if err := proxy.NewServer(*upstreamAddr, logger).Serve(listener); err != nil {
		logger.Fatal("serve failed", zap.Error(err))
	}
}
