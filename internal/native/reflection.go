package native

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// LoadReflection describes every service a gRPC server exposes through the
// server reflection protocol. The reflection services themselves are skipped.
func LoadReflection(ctx context.Context, cc grpc.ClientConnInterface) (*Static, error) {
	client := grpcreflect.NewClientAuto(ctx, cc)
	defer client.Reset()

	services, err := client.ListServices()
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	var files []*desc.FileDescriptor
	seen := make(map[string]bool)
	for _, name := range services {
		if strings.HasPrefix(name, "grpc.reflection.") {
			continue
		}
		sd, err := client.ResolveService(name)
		if err != nil {
			return nil, fmt.Errorf("resolving service %s: %w", name, err)
		}
		fd := sd.GetFile()
		if !seen[fd.GetName()] {
			seen[fd.GetName()] = true
			files = append(files, fd)
		}
	}
	return FromProtoFiles(files)
}

// DialReflection connects to target without transport security and loads
// its reflection catalog.
func DialReflection(ctx context.Context, target string) (*Static, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", target, err)
	}
	defer conn.Close()
	return LoadReflection(ctx, conn)
}
