// Package proto содержит интерфейс gRPC сервиса редиректов
package proto

import (
	"context"

	"google.golang.org/grpc"
)

// RedirectServiceServer представляет интерфейс gRPC сервиса
type RedirectServiceServer interface {
	ResolveLink(ctx context.Context, req *ResolveLinkRequest) (*ResolveLinkResponse, error)
	GetLinkStats(ctx context.Context, req *GetLinkStatsRequest) (*GetLinkStatsResponse, error)
	GetServiceStats(ctx context.Context, req *GetServiceStatsRequest) (*GetServiceStatsResponse, error)
	Ping(ctx context.Context, req *PingRequest) (*PingResponse, error)
}

// UnimplementedRedirectServiceServer предоставляет базовую реализацию интерфейса
type UnimplementedRedirectServiceServer struct{}

// ResolveLink предоставляет базовую реализацию резолва ссылки
func (UnimplementedRedirectServiceServer) ResolveLink(ctx context.Context, req *ResolveLinkRequest) (*ResolveLinkResponse, error) {
	return nil, nil
}

// GetLinkStats предоставляет базовую реализацию получения статистики ссылки
func (UnimplementedRedirectServiceServer) GetLinkStats(ctx context.Context, req *GetLinkStatsRequest) (*GetLinkStatsResponse, error) {
	return nil, nil
}

// GetServiceStats предоставляет базовую реализацию получения статистики сервиса
func (UnimplementedRedirectServiceServer) GetServiceStats(ctx context.Context, req *GetServiceStatsRequest) (*GetServiceStatsResponse, error) {
	return nil, nil
}

// Ping предоставляет базовую реализацию проверки состояния сервиса
func (UnimplementedRedirectServiceServer) Ping(ctx context.Context, req *PingRequest) (*PingResponse, error) {
	return nil, nil
}

// RegisterRedirectServiceServer регистрирует реализацию сервиса в gRPC сервере
func RegisterRedirectServiceServer(s *grpc.Server, srv RedirectServiceServer) {
	// В реальном проекте это было бы автоматически сгенерировано protoc
	// Здесь заглушка для демонстрации
}
