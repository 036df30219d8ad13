package focusService

import (
	"sync"
	"time"

	"FocusSentry/internal/api/focus"
	focusRepository "FocusSentry/internal/api/focus/repository"
	"FocusSentry/pkg/classifier"
	"FocusSentry/pkg/redis"
	"FocusSentry/pkg/s3"
	"FocusSentry/pkg/smtp"
	"FocusSentry/pkg/whatsapp"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IFocusService interface {
	StartSession(ctx context.Context, req focus.StartSessionRequest) (*focus.StartSessionResponse, error)
	ClassifyFrame(ctx context.Context, sessionID int64, frame []byte) focus.FrameResponse
	EndSession(ctx context.Context, req focus.EndSessionRequest) (*focus.EndSessionResponse, error)
	GetHistory(ctx context.Context, limit int) (*focus.HistoryResponse, error)
	// Wait blocks until every summary delivery started by EndSession is done.
	Wait()
}

const defaultDeliveryTimeout = time.Minute

type focusService struct {
	log        *logrus.Logger
	repo       focusRepository.Repository
	classifier classifier.IClassifier
	redis      redis.IRedis
	mailer     smtp.ItfSmtp
	whatsapp   whatsapp.IWhatsappSender
	archive    s3.ItfS3
	now        func() time.Time

	deliveryTimeout time.Duration
	deliveries      sync.WaitGroup
}

// Option plugs an optional collaborator into the service. Every one of them
// may be left out; the matching feature then degrades to a log line.
type Option func(*focusService)

func WithRedis(r redis.IRedis) Option {
	return func(s *focusService) { s.redis = r }
}

func WithMailer(m smtp.ItfSmtp) Option {
	return func(s *focusService) { s.mailer = m }
}

func WithWhatsapp(w whatsapp.IWhatsappSender) Option {
	return func(s *focusService) { s.whatsapp = w }
}

func WithArchive(a s3.ItfS3) Option {
	return func(s *focusService) { s.archive = a }
}

func WithDeliveryTimeout(d time.Duration) Option {
	return func(s *focusService) { s.deliveryTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *focusService) { s.now = now }
}

func NewFocusService(
	log *logrus.Logger,
	repo focusRepository.Repository,
	classifier classifier.IClassifier,
	opts ...Option,
) IFocusService {
	s := &focusService{
		log:        log,
		repo:       repo,
		classifier: classifier,
		now:        time.Now,

		deliveryTimeout: defaultDeliveryTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *focusService) Wait() {
	s.deliveries.Wait()
}
