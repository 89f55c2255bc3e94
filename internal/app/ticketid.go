package app

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/jimz159753/omnia-api/internal/clock"
	"github.com/jimz159753/omnia-api/internal/domain"
)

type TicketIDChecker interface {
	TicketIDExists(ctx context.Context, id string) (bool, error)
}

const (
	ticketIDCharset  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ticketIDSuffix   = 6
	ticketIDAttempts = 10
)

// TicketIDGenerator mints human-readable ticket ids of the form
// TK-<year>-<6 chars>, retrying on collision up to a fixed bound.
type TicketIDGenerator struct {
	check TicketIDChecker
	clock clock.Clock
}

func NewTicketIDGenerator(check TicketIDChecker, clk clock.Clock) *TicketIDGenerator {
	return &TicketIDGenerator{
		check: check,
		clock: clk,
	}
}

func (g *TicketIDGenerator) Generate(ctx context.Context) (string, error) {
	year := g.clock.Now().Year()
	for i := 0; i < ticketIDAttempts; i++ {
		suffix, err := randomSuffix(ticketIDSuffix)
		if err != nil {
			return "", fmt.Errorf("generate ticket id: %w", err)
		}
		candidate := fmt.Sprintf("TK-%d-%s", year, suffix)

		exists, err := g.check.TicketIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", domain.ErrTicketIDExhausted
}

func randomSuffix(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = ticketIDCharset[int(b[i])%len(ticketIDCharset)]
	}
	return string(b), nil
}
