package summary

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/allisson/wallets/internal/errors"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

// WalletLister pages through wallets.
type WalletLister interface {
	List(ctx context.Context, q walletDomain.WalletQuery) ([]*walletDomain.Wallet, error)
}

// SweeperConfig configures a Sweeper.
type SweeperConfig struct {
	// Schedule is a cron expression or descriptor such as "@every 1h".
	Schedule string
	// PageSize is the number of wallets loaded per page.
	PageSize int
	// Concurrency bounds the wallets recomputed at once; values below 2
	// recompute sequentially.
	Concurrency int
	// Rate is the maximum number of recomputes per second; zero disables
	// throttling.
	Rate float64
}

// SweepResult counts the wallets visited by one sweep.
type SweepResult struct {
	Recomputed int64
	Failed     int64
}

// Sweeper reruns the summary recompute for every wallet. Each wallet is
// recomputed in its own transaction and a failure only skips that wallet.
type Sweeper struct {
	wallets    WalletLister
	recomputer Recomputer
	lock       Lock
	limiter    *rate.Limiter
	cfg        SweeperConfig
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewSweeper creates a Sweeper. A nil lock is replaced by NoopLock.
func NewSweeper(
	wallets WalletLister,
	recomputer Recomputer,
	lock Lock,
	cfg SweeperConfig,
	logger *slog.Logger,
) *Sweeper {
	if lock == nil {
		lock = NoopLock{}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}

	return &Sweeper{
		wallets:    wallets,
		recomputer: recomputer,
		lock:       lock,
		limiter:    rate.NewLimiter(limit, 1),
		cfg:        cfg,
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:     logger,
	}
}

// Start schedules the sweep. Runs use ctx and stop when it is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("summary sweep failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return errors.Wrap(err, "invalid summary sweep schedule")
	}

	s.cron.Start()
	s.logger.Info("summary sweep scheduled", slog.String("schedule", s.cfg.Schedule))
	return nil
}

// Stop unschedules the sweep and waits for a running one to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep recomputes every wallet, page by page. It returns without work
// when another instance holds the sweep lock.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	release, acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return SweepResult{}, err
	}
	if !acquired {
		s.logger.Info("summary sweep skipped, lock held elsewhere")
		return SweepResult{}, nil
	}
	defer release()

	var recomputed, failed atomic.Int64
	if err := s.sweepPage(ctx, 0, &recomputed, &failed); err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{Recomputed: recomputed.Load(), Failed: failed.Load()}
	s.logger.Info("summary sweep finished",
		slog.Int64("recomputed", result.Recomputed),
		slog.Int64("failed", result.Failed),
	)
	return result, nil
}

// sweepPage recomputes the page at offset and recurses into the next one
// until a short page is read.
func (s *Sweeper) sweepPage(ctx context.Context, offset int, recomputed, failed *atomic.Int64) error {
	page, err := s.wallets.List(ctx, walletDomain.WalletQuery{Offset: offset, Limit: s.cfg.PageSize})
	if err != nil {
		return errors.Wrap(err, "failed to list wallets")
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(s.cfg.Concurrency, 1))

	for _, wallet := range page {
		walletID := wallet.ID
		group.Go(func() error {
			if err := s.limiter.Wait(groupCtx); err != nil {
				return err
			}
			if _, err := s.recomputer.Recompute(groupCtx, walletID); err != nil {
				failed.Add(1)
				s.logger.Warn("summary recompute failed",
					slog.String("wallet_id", walletID),
					slog.Any("error", err),
				)
				return nil
			}
			recomputed.Add(1)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if len(page) < s.cfg.PageSize {
		return nil
	}
	return s.sweepPage(ctx, offset+s.cfg.PageSize, recomputed, failed)
}
