// Package service answers "what should the display show right now" by
// deriving the bucket, resolving it through the coordinator and assembling
// the result.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/leonardcser/clockverse/internal/assembler"
	"github.com/leonardcser/clockverse/internal/bucket"
	"github.com/leonardcser/clockverse/internal/content"
	"github.com/leonardcser/clockverse/internal/coordinator"
)

// Response is what a transport renders. MaxAge is how long the record stays
// current for this bucket.
type Response struct {
	Record  content.Record
	Outcome coordinator.Outcome
	Bucket  bucket.Keys
	MaxAge  time.Duration
}

type Service struct {
	policy bucket.Policy
	coord  *coordinator.Coordinator
	asm    *assembler.Assembler
	now    func() time.Time
	log    *zap.Logger
}

type Option func(*Service)

// WithClock replaces time.Now for bucket derivation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(policy bucket.Policy, coord *coordinator.Coordinator, asm *assembler.Assembler, log *zap.Logger, opts ...Option) *Service {
	s := &Service{policy: policy, coord: coord, asm: asm, now: time.Now, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Current returns the record for the bucket containing now.
//
// The error is content.ErrUnavailable when there is nothing to show, or
// content.ErrRateLimited when a provider refused us; in the latter case the
// Response still carries fallback content.
func (s *Service) Current(ctx context.Context, params bucket.Params) (Response, error) {
	now := s.now()
	keys := s.policy.Derive(now, params)
	req := content.Request{Time: keys.Start, Poet: s.policy.Poet(keys), Variant: params.Variant}

	res := s.coord.Resolve(ctx, keys, req)
	resp := Response{
		Outcome: res.Outcome,
		Bucket:  keys,
		MaxAge:  s.policy.Remaining(now, keys.Start),
	}

	rec, err := s.asm.Assemble(res)
	if err != nil {
		s.log.Warn("nothing to serve", zap.String("key", keys.Data), zap.Stringer("outcome", res.Outcome), zap.NamedError("cause", res.Err))
		return resp, err
	}
	resp.Record = rec

	if errors.Is(res.Err, content.ErrRateLimited) {
		return resp, content.ErrRateLimited
	}
	return resp, nil
}

// Ready reports whether the shared store answers.
func (s *Service) Ready(ctx context.Context) error {
	return s.coord.Ping(ctx)
}
