// Package grpc содержит реализацию внутреннего gRPC сервера сервиса редиректов
package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/tempizhere/goredirect/internal/grpc/proto"
	"github.com/tempizhere/goredirect/internal/repository"
	"github.com/tempizhere/goredirect/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server реализует gRPC сервер для внутренних потребителей:
// резолв ссылок и чтение счётчиков без HTTP-обвязки
type Server struct {
	proto.UnimplementedRedirectServiceServer
	svc      *service.Service
	resolver *service.Resolver
	db       repository.Database
	logger   *zap.Logger
}

// NewServer создаёт новый gRPC сервер
func NewServer(svc *service.Service, resolver *service.Resolver, db repository.Database, logger *zap.Logger) *Server {
	return &Server{
		svc:      svc,
		resolver: resolver,
		db:       db,
		logger:   logger,
	}
}

// ResolveLink резолвит slug и применяет политику ссылки.
// Клик при этом не записывается: запись аналитики остаётся
// ответственностью HTTP-пути редиректа.
func (s *Server) ResolveLink(ctx context.Context, req *proto.ResolveLinkRequest) (*proto.ResolveLinkResponse, error) {
	if req.Slug == "" {
		return nil, status.Error(codes.InvalidArgument, "slug is required")
	}

	link, exists := s.resolver.Resolve(req.Slug)
	if !exists {
		return &proto.ResolveLinkResponse{Found: false}, nil
	}

	decision := service.Evaluate(link, time.Now())
	switch decision.Outcome {
	case service.OutcomeDisabled:
		return &proto.ResolveLinkResponse{Found: true, Blocked: true, BlockedReason: "disabled"}, nil
	case service.OutcomeExpired:
		return &proto.ResolveLinkResponse{Found: true, Blocked: true, BlockedReason: "expired"}, nil
	case service.OutcomeMissingDestination:
		return &proto.ResolveLinkResponse{Found: true, Blocked: true, BlockedReason: "missing_destination"}, nil
	}

	return &proto.ResolveLinkResponse{
		DestinationURL: link.DestinationURL,
		Found:          true,
		Permanent:      decision.StatusCode == 301,
	}, nil
}

// GetLinkStats возвращает показания счётчиков ссылки
func (s *Server) GetLinkStats(ctx context.Context, req *proto.GetLinkStatsRequest) (*proto.GetLinkStatsResponse, error) {
	if req.Slug == "" {
		return nil, status.Error(codes.InvalidArgument, "slug is required")
	}
	if req.UserID == "" {
		return nil, status.Error(codes.InvalidArgument, "user ID is required")
	}

	stats, err := s.svc.GetLinkStats(req.UserID, req.Slug, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) || errors.Is(err, service.ErrNotOwner) {
			return &proto.GetLinkStatsResponse{Found: false}, nil
		}
		s.logger.Error("Failed to get link stats", zap.String("slug", req.Slug), zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to get link stats")
	}

	return &proto.GetLinkStatsResponse{
		Slug:            stats.Slug,
		ClickCount:      stats.ClickCount,
		TotalClicks:     stats.TotalClicks,
		TodayClicks:     stats.TodayClicks,
		UserMonthClicks: stats.UserMonthClicks,
		Found:           true,
	}, nil
}

// GetServiceStats возвращает статистику сервиса
func (s *Server) GetServiceStats(ctx context.Context, req *proto.GetServiceStatsRequest) (*proto.GetServiceStatsResponse, error) {
	links, users, err := s.svc.GetStats()
	if err != nil {
		s.logger.Error("Failed to get stats", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to get statistics")
	}

	return &proto.GetServiceStatsResponse{
		LinksCount: int32(links),
		UsersCount: int32(users),
	}, nil
}

// Ping проверяет состояние сервиса
func (s *Server) Ping(ctx context.Context, req *proto.PingRequest) (*proto.PingResponse, error) {
	if s.db == nil {
		return &proto.PingResponse{DatabaseAvailable: false}, nil
	}

	err := s.db.Ping()
	return &proto.PingResponse{
		DatabaseAvailable: err == nil,
	}, nil
}
