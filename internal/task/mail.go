package task

import (
	"context"

	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/platform/mailer"
)

// TypeSendEmail identifies email delivery tasks.
const TypeSendEmail = "send_email"

// MailTask delivers one message.
type MailTask struct {
	mailer mailer.Mailer
	msg    mailer.Message
	ctx    context.Context
}

var _ Task = (*MailTask)(nil)

// Type implements Task.
func (t *MailTask) Type() string { return TypeSendEmail }

// Execute implements Task. The request logger of the enqueuing context is
// kept so that the delivery is logged with its request id.
func (t *MailTask) Execute(ctx context.Context) error {
	if l := logger.FromContextOrDefault(t.ctx, nil); l != nil {
		ctx = logger.WithLogger(ctx, l)
	}
	return t.mailer.Send(ctx, t.msg)
}

// QueuedMailer sends email from the worker pool. Send returns once the
// message is queued; delivery errors reach the pool's error handler.
type QueuedMailer struct {
	next  mailer.Mailer
	queue QueueWriter
}

var _ mailer.Mailer = (*QueuedMailer)(nil)

// NewQueuedMailer wraps next so that messages are delivered asynchronously.
func NewQueuedMailer(next mailer.Mailer, queue QueueWriter) *QueuedMailer {
	return &QueuedMailer{next: next, queue: queue}
}

// Send implements mailer.Mailer.
func (m *QueuedMailer) Send(ctx context.Context, msg mailer.Message) error {
	return m.queue.Enqueue(&MailTask{
		mailer: m.next,
		msg:    msg,
		ctx:    context.WithoutCancel(ctx),
	})
}
