package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"

	"blockfall/pb"
	"blockfall/server"

	"google.golang.org/grpc"
)

func main() {
	port := flag.Int("port", 9000, "port the spectator relay listens on")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	defer lis.Close()
	s := grpc.NewServer()
	defer s.Stop()
	pb.RegisterSpectatorServer(s, server.New(logger))

	logger.Info("starting spectator relay", slog.String("addr", lis.Addr().String()))
	if err := s.Serve(lis); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
