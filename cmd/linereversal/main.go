// Command linereversal runs the line-reversal server over LRCP.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/netprax/protohackers/internal/lrcp"
)

func main() {
	listenAddr := pflag.String("listen", ":50007", "UDP listen address")
	pflag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "linereversal:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	conn, err := net.ListenPacket("udp", *listenAddr)
	if err != nil {
		logger.Fatal("listen failed", zap.Error(err))
	}
	logger.Info("listening", zap.Stringer("addr", conn.LocalAddr()))

	if err := lrcp.NewServer(conn, logger).Serve(); err != nil {
		logger.Fatal("serve failed", zap.Error(err))
	}
}
