package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"docvault/internal/repository/mocks"
)

func TestSweeper_Sweep(t *testing.T) {
	t.Run("deletes expired tokens", func(t *testing.T) {
		tokens := new(mocks.MockTokenRepository)
		tokens.On("DeleteExpired", mock.Anything, mock.Anything).Return(int64(3), nil)

		s := NewSweeper(tokens, 0, zap.NewNop())
		s.sweep(context.Background())

		tokens.AssertExpectations(t)
	})

	t.Run("survives repository errors", func(t *testing.T) {
		tokens := new(mocks.MockTokenRepository)
		tokens.On("DeleteExpired", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

		s := NewSweeper(tokens, 0, zap.NewNop())
		s.sweep(context.Background())

		tokens.AssertExpectations(t)
	})
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	tokens := new(mocks.MockTokenRepository)
	s := NewSweeper(tokens, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}
