package mocks

import (
	"context"

	"github.com/phrazzld/natours-api/internal/platform/mailer"
	"github.com/stretchr/testify/mock"
)

// Mailer is a mock of mailer.Mailer for use with testify/mock
type Mailer struct {
	mock.Mock
}

var _ mailer.Mailer = (*Mailer)(nil)

// Send is a mock implementation of mailer.Mailer.Send
func (m *Mailer) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
