package runner

import (
	"context"
	"fmt"
	"time"

	"ticket-resolver/internal/common/errors"
	"ticket-resolver/internal/common/logger"
	"ticket-resolver/internal/common/metrics"
	"ticket-resolver/internal/common/observability"
	"ticket-resolver/internal/models"
	"ticket-resolver/internal/resolver"
)

// TicketLister supplies the open backlog for a sweep.
type TicketLister interface {
	ListOpen(ctx context.Context) ([]models.Ticket, error)
}

// Processor runs one ticket through the resolution conversation.
type Processor interface {
	Process(ctx context.Context, ticket *models.Ticket) (*resolver.Outcome, error)
}

// Summary reports what one sweep did. Unresolved counts tickets left
// untouched for the next pass: free-text answers and exhausted turn budgets.
type Summary struct {
	Listed     int
	Resolved   int
	Unresolved int
	Skipped    int
	Locked     int
	Failed     int
}

// Sweeper processes the open-ticket backlog one ticket at a time. A failing
// ticket never aborts the sweep; it is logged, counted, and left for the
// next run.
type Sweeper struct {
	tickets       TicketLister
	processor     Processor
	locks         *TicketLocks
	obs           *observability.Observability
	logger        logger.Logger
	ticketTimeout time.Duration
}

func NewSweeper(tickets TicketLister, processor Processor, locks *TicketLocks, obs *observability.Observability, log logger.Logger, ticketTimeout time.Duration) *Sweeper {
	return &Sweeper{
		tickets:       tickets,
		processor:     processor,
		locks:         locks,
		obs:           obs,
		logger:        log.WithFields(map[string]interface{}{"component": "sweeper"}),
		ticketTimeout: ticketTimeout,
	}
}

// Sweep lists open tickets and resolves them in listing order.
func (s *Sweeper) Sweep(ctx context.Context) (*Summary, error) {
	tickets, err := s.tickets.ListOpen(ctx)
	if err != nil {
		return nil, errors.NewTicketQueryFailedError(err)
	}

	summary := &Summary{Listed: len(tickets)}
	s.logger.Info("sweep started", map[string]interface{}{"openTickets": len(tickets)})

	for i := range tickets {
		if ctx.Err() != nil {
			s.logger.Warn("sweep interrupted", map[string]interface{}{"remaining": len(tickets) - i})
			break
		}
		s.processOne(ctx, &tickets[i], summary)
	}

	s.logger.Info("sweep finished", map[string]interface{}{
		"listed":     summary.Listed,
		"resolved":   summary.Resolved,
		"unresolved": summary.Unresolved,
		"skipped":    summary.Skipped,
		"locked":     summary.Locked,
		"failed":     summary.Failed,
	})
	return summary, nil
}

func (s *Sweeper) processOne(ctx context.Context, ticket *models.Ticket, summary *Summary) {
	log := s.logger.WithFields(map[string]interface{}{"ticketId": ticket.ID})

	if s.locks != nil {
		acquired, err := s.locks.Acquire(ctx, ticket.ID)
		if err != nil {
			log.WithError(err).Error("lock acquire failed", nil)
			summary.Failed++
			return
		}
		if !acquired {
			log.Debug("ticket locked by another sweeper", nil)
			summary.Locked++
			return
		}
		defer func() {
			if err := s.locks.Release(ctx, ticket.ID); err != nil {
				log.WithError(err).Warn("lock release failed", nil)
			}
		}()
	}

	runCtx := ctx
	if s.ticketTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.ticketTimeout)
		defer cancel()
	}

	start := time.Now()
	outcome, err := s.run(runCtx, ticket)
	elapsed := time.Since(start)

	label := "error"
	switch {
	case err != nil:
		log.WithError(err).Error("ticket processing failed", map[string]interface{}{
			"code":      string(errors.CodeOf(err)),
			"retryable": errors.IsRetryable(err),
		})
		summary.Failed++
	case outcome.Kind == resolver.OutcomeResolved:
		label = string(outcome.Kind)
		summary.Resolved++
		metrics.ReasoningTurns.WithLabelValues(label).Observe(float64(outcome.Turns))
	case outcome.Kind == resolver.OutcomeSkipped:
		label = string(outcome.Kind)
		summary.Skipped++
	default:
		label = string(outcome.Kind)
		summary.Unresolved++
		metrics.ReasoningTurns.WithLabelValues(label).Observe(float64(outcome.Turns))
	}

	metrics.TicketsProcessed.WithLabelValues(label).Inc()
	if s.obs != nil {
		s.obs.RecordTicketProcessed(ctx, label)
		s.obs.RecordTicketDuration(ctx, elapsed, label)
	}
}

// run wraps one ticket's processing with panic recovery: a panic in the
// conversation loop must not take down the whole sweep.
func (s *Sweeper) run(ctx context.Context, ticket *models.Ticket) (outcome *resolver.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = fmt.Errorf("panic while processing ticket %s: %v", ticket.ID, r)
		}
	}()
	return s.processor.Process(ctx, ticket)
}
