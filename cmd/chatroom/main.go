// Command chatroom runs the budget chat server.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/netprax/protohackers/internal/chat"
)

func main() {
	listenAddr := pflag.String("listen", ":50004", "TCP listen address")
	namePrompt := pflag.String("name-prompt", chat.DefaultNamePrompt, "message sent to new connections")
	pflag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "chatroom:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	listener, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		logger.Fatal("listen failed", zap.Error(err))
	}
	logger.Info("listening", zap.Stringer("addr", listener.Addr()))

	if err := chat.NewServer(*namePrompt, logger).Serve(listener); err != nil {
		logger.Fatal("serve failed", zap.Error(err))
	}
}
