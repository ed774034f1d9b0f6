// Command kvstore runs the UDP key-value store.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/netprax/protohackers/internal/kv"
)

func main() {
	listenAddr := pflag.String("listen", ":50005", "UDP listen address")
	pflag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "kvstore:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	conn, err := net.ListenPacket("udp", *listenAddr)
	if err != nil {
		logger.Fatal("listen failed", zap.Error(err))
	}
	logger.Info("listening", zap.Stringer("addr", conn.LocalAddr()))

	if err := kv.NewServer(kv.NewStore(), logger).Serve(conn); err != nil {
		logger.Fatal("serve failed", zap.Error(err))
	}
}
