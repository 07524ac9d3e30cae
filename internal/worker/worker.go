package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"codesurvey/internal/export"
)

type Server struct {
	Webhook *export.Webhook
	Log     *zap.Logger
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(export.TaskForwardResponse, s.handleForward)
	return mux
}

// handleForward delivers one queued record. Failures are logged and never
// retried; the session store already holds the record.
func (s *Server) handleForward(ctx context.Context, t *asynq.Task) error {
	p, err := export.DecodeForwardTask(t)
	if err != nil {
		s.Log.Error("bad forward task", zap.Error(err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if err := s.Webhook.Post(ctx, p); err != nil {
		s.Log.Warn("forward response failed",
			zap.String("session_id", p.SessionID),
			zap.Int("trial", p.Trial),
			zap.Error(err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	s.Log.Info("forwarded response", zap.String("session_id", p.SessionID), zap.Int("trial", p.Trial))
	return nil
}

func Run(redisAddr string, concurrency int, w *Server) error {
	if w.Log == nil {
		w.Log = zap.NewNop()
	}
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: concurrency,
		Logger:      w.Log.Sugar(),
	})
	return srv.Run(w.mux())
}
