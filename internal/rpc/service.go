// ============================================================================
// Periodic Engine Control Plane - Service
// ============================================================================
//
// Package: internal/rpc
// File: service.go
// Purpose: the control-plane handlers wrapping a running
//          *periodic.Worker, grounded on the teacher's Server struct
//          wrapping its Controller
//
// ============================================================================

package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ChuLiYu/periodic-engine/internal/periodic"
	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// ControlPlaneServer is the interface the hand-written ServiceDesc
// dispatches to, the Go analogue of a generated *_grpc.pb.go server
// interface.
type ControlPlaneServer interface {
	AddTask(context.Context, *AddTaskRequest) (*AddTaskResponse, error)
	Stop(context.Context, *StopRequest) (*StopResponse, error)
	ListWatchers(context.Context, *ListWatchersRequest) (*ListWatchersResponse, error)
	ExecutorStats(context.Context, *ExecutorStatsRequest) (*ExecutorStatsResponse, error)
}

// Service implements ControlPlaneServer over a worker and a catalog of
// named callables it is allowed to register on request.
type Service struct {
	worker *periodic.Worker

	mu      sync.RWMutex
	catalog map[string]func() (any, error)
}

// NewService wraps worker, exposing only the callables named in catalog
// to AddTask.
func NewService(worker *periodic.Worker, catalog map[string]func() (any, error)) *Service {
	c := make(map[string]func() (any, error), len(catalog))
	for k, v := range catalog {
		c[k] = v
	}
	return &Service{worker: worker, catalog: c}
}

func (s *Service) AddTask(ctx context.Context, req *AddTaskRequest) (*AddTaskResponse, error) {
	s.mu.RLock()
	fn, ok := s.catalog[req.CallableName]
	s.mu.RUnlock()
	if !ok {
		return &AddTaskResponse{Accepted: false, Error: fmt.Sprintf("unknown callable %q", req.CallableName)}, nil
	}

	spec := types.TaskSpec{
		Enabled:        true,
		Spacing:        time.Duration(req.SpacingMs) * time.Millisecond,
		RunImmediately: req.RunImmediately,
	}
	if _, err := s.worker.Add(req.CallableName, spec, fn); err != nil {
		return &AddTaskResponse{Accepted: false, Error: err.Error()}, nil
	}
	return &AddTaskResponse{Accepted: true}, nil
}

func (s *Service) Stop(ctx context.Context, req *StopRequest) (*StopResponse, error) {
	s.worker.Stop()
	return &StopResponse{Stopped: true}, nil
}

func (s *Service) ListWatchers(ctx context.Context, req *ListWatchersRequest) (*ListWatchersResponse, error) {
	resp := &ListWatchersResponse{}
	for watcher := range s.worker.IterWatchers() {
		resp.Watchers = append(resp.Watchers, WatcherStats{
			Name:      watcher.Name(),
			Runs:      watcher.Runs(),
			Successes: watcher.Successes(),
			Failures:  watcher.Failures(),
		})
	}
	return resp, nil
}

func (s *Service) ExecutorStats(ctx context.Context, req *ExecutorStatsRequest) (*ExecutorStatsResponse, error) {
	stats := s.worker.ExecutorStatistics()
	return &ExecutorStatsResponse{
		Executed:  stats.Executed,
		Cancelled: stats.Cancelled,
		Failures:  stats.Failures,
	}, nil
}
