package widget

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"weather-widget/internal/models"
	"weather-widget/internal/observability"
)

// Publisher receives every display model that a session commits.
type Publisher interface {
	Publish(ctx context.Context, model models.DisplayModel) error
}

// DefaultPublishTimeout bounds how long a committed search waits on the publisher.
const DefaultPublishTimeout = 3 * time.Second

type Sessions struct {
	svc            *Service
	store          Store
	pub            Publisher
	publishTimeout time.Duration
}

// NewSessions wires the lookup service to a state store. pub may be nil.
func NewSessions(svc *Service, store Store, pub Publisher) *Sessions {
	return &Sessions{svc: svc, store: store, pub: pub, publishTimeout: DefaultPublishTimeout}
}

func (s *Sessions) Create(ctx context.Context) (View, error) {
	st, err := s.store.Create(ctx, uuid.NewString())
	if err != nil {
		return View{}, err
	}
	return renderState(st), nil
}

func (s *Sessions) View(ctx context.Context, id string) (View, error) {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return renderState(st), nil
}

// Search looks up city for the session. Only the most recently issued search
// may replace the model; an older one finishing later gets ErrSuperseded. A
// failed lookup leaves the previous model in place.
func (s *Sessions) Search(ctx context.Context, id, city string) (View, error) {
	city, err := normalizeCity(city)
	if err != nil {
		return View{}, err
	}
	seq, err := s.store.Issue(ctx, id)
	if err != nil {
		return View{}, err
	}

	model, err := s.svc.Lookup(ctx, city)
	if err != nil {
		return View{}, err
	}

	ok, err := s.store.Commit(ctx, id, seq, model)
	if err != nil {
		return View{}, err
	}
	if !ok {
		observability.RecordSuperseded()
		slog.Info("discarding superseded search", "session", id, "seq", seq, "city", city)
		return View{}, ErrSuperseded
	}

	s.publish(ctx, id, model)
	return s.View(ctx, id)
}

// publish is best effort and bounded by publishTimeout. The model is already
// committed when it runs.
func (s *Sessions) publish(ctx context.Context, id string, model models.DisplayModel) {
	if s.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.pub.Publish(ctx, model); err != nil {
		slog.Warn("publish display model failed", "session", id, "error", err)
	}
}

func (s *Sessions) SetUnit(ctx context.Context, id string, useCelsius bool) (View, error) {
	st, err := s.store.SetUnit(ctx, id, useCelsius)
	if err != nil {
		return View{}, err
	}
	return renderState(st), nil
}

func (s *Sessions) ToggleUnit(ctx context.Context, id string) (View, error) {
	st, err := s.store.ToggleUnit(ctx, id)
	if err != nil {
		return View{}, err
	}
	return renderState(st), nil
}
