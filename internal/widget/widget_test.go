package widget

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"weather-widget/internal/models"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	// gates block FetchCurrent for a city until closed; entered is signalled first.
	gates   map[string]chan struct{}
	entered chan string
	fail    map[string]error
	temps   map[string]float64
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		gates:   map[string]chan struct{}{},
		entered: make(chan string, 4),
		fail:    map[string]error{},
		temps:   map[string]float64{},
	}
}

func (f *fakeProvider) FetchCurrent(ctx context.Context, city string) (models.CurrentPayload, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gates[city]
	err := f.fail[city]
	temp, ok := f.temps[city]
	f.mu.Unlock()

	if gate != nil {
		f.entered <- city
		select {
		case <-gate:
		case <-ctx.Done():
			return models.CurrentPayload{}, ctx.Err()
		}
	}
	if err != nil {
		return models.CurrentPayload{}, err
	}
	if !ok {
		temp = 21.7
	}
	return models.CurrentPayload{
		Name:    city,
		Dt:      1717416000,
		Coord:   models.Coord{Lat: 1, Lon: 2},
		Main:    models.MainBlock{Temp: temp, TempMin: temp - 3, TempMax: temp + 2, Humidity: 58},
		Wind:    models.Wind{Speed: 3.9},
		Weather: []models.Condition{{Main: "Rain", Icon: "10d"}},
	}, nil
}

func (f *fakeProvider) FetchForecast(_ context.Context, _, _ float64) (models.ForecastPayload, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	list := make([]models.IntervalRecord, 40)
	for i := range list {
		list[i] = models.IntervalRecord{
			Dt:      1717416000 + int64(i)*10800,
			Main:    models.MainBlock{Temp: 10.5},
			Weather: []models.Condition{{Main: "Clear", Icon: "01d"}},
		}
	}
	return models.ForecastPayload{List: list}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestLookup_EmptyCityMakesNoCalls(t *testing.T) {
	p := newFakeProvider()
	svc := NewService(p, time.Second)

	for _, city := range []string{"", "   "} {
		_, err := svc.Lookup(context.Background(), city)
		var ve *ValidationError
		if !errors.As(err, &ve) || !errors.Is(err, ErrCityNotSpecified) {
			t.Fatalf("expected ValidationError got %v", err)
		}
	}
	if p.callCount() != 0 {
		t.Fatalf("expected no provider calls got %d", p.callCount())
	}
}

func TestLookup_BuildsModel(t *testing.T) {
	svc := NewService(newFakeProvider(), time.Second)

	m, err := svc.Lookup(context.Background(), " London ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if m.Current.Location != "London" || m.Current.Temperature != 21 || m.Current.WindSpeed != 3 {
		t.Fatalf("unexpected current %+v", m.Current)
	}
	if m.Current.IconKey != "/rain.png" || len(m.DailySummary) != 5 {
		t.Fatalf("unexpected model %+v", m)
	}
}

func TestLookup_ProviderErrorIsLookupError(t *testing.T) {
	p := newFakeProvider()
	boom := errors.New("API returned status 500")
	p.fail["Paris"] = boom
	svc := NewService(p, time.Second)

	_, err := svc.Lookup(context.Background(), "Paris")
	var le *LookupError
	if !errors.As(err, &le) || !errors.Is(err, boom) {
		t.Fatalf("expected LookupError wrapping cause, got %v", err)
	}
	if le.City != "Paris" {
		t.Fatalf("unexpected city %q", le.City)
	}
}

func TestLookup_Timeout(t *testing.T) {
	p := newFakeProvider()
	p.gates["Slow"] = make(chan struct{})
	svc := NewService(p, 20*time.Millisecond)

	_, err := svc.Lookup(context.Background(), "Slow")
	var le *LookupError
	if !errors.As(err, &le) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timed out LookupError got %v", err)
	}
}

func newSessions(p Provider) (*Sessions, *MemoryStore) {
	store := NewMemoryStore(time.Minute)
	return NewSessions(NewService(p, time.Second), store, nil), store
}

func TestSessions_LastSearchWins(t *testing.T) {
	p := newFakeProvider()
	p.gates["Paris"] = make(chan struct{})
	p.temps["London"] = 12.2
	s, _ := newSessions(p)
	ctx := context.Background()

	v, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := v.SessionID

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Search(ctx, id, "Paris")
		firstErr <- err
	}()
	<-p.entered

	v, err = s.Search(ctx, id, "London")
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if v.Current == nil || v.Current.Location != "London" || v.Sequence != 2 {
		t.Fatalf("unexpected view after second search %+v", v)
	}

	close(p.gates["Paris"])
	if err := <-firstErr; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected first search to be superseded, got %v", err)
	}

	v, err = s.View(ctx, id)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if v.Current.Location != "London" || v.Current.Temperature != 12 {
		t.Fatalf("stale result replaced the display: %+v", v.Current)
	}
}

func TestSessions_FailedSearchKeepsPreviousModel(t *testing.T) {
	p := newFakeProvider()
	p.fail["Atlantis"] = errors.New("API returned status 404")
	s, _ := newSessions(p)
	ctx := context.Background()

	v, _ := s.Create(ctx)
	id := v.SessionID
	if _, err := s.Search(ctx, id, "London"); err != nil {
		t.Fatalf("search: %v", err)
	}
	_, err := s.Search(ctx, id, "Atlantis")
	var le *LookupError
	if !errors.As(err, &le) {
		t.Fatalf("expected LookupError got %v", err)
	}

	v, err = s.View(ctx, id)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if v.Current == nil || v.Current.Location != "London" {
		t.Fatalf("expected previous model to remain, got %+v", v.Current)
	}
}

func TestSessions_InvalidCityDoesNotIssueSequence(t *testing.T) {
	p := newFakeProvider()
	s, store := newSessions(p)
	ctx := context.Background()

	v, _ := s.Create(ctx)
	if _, err := s.Search(ctx, v.SessionID, ""); !errors.Is(err, ErrCityNotSpecified) {
		t.Fatalf("expected ErrCityNotSpecified got %v", err)
	}
	st, err := store.Get(ctx, v.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.Issued != 0 || p.callCount() != 0 {
		t.Fatalf("expected no sequence and no calls, issued=%d calls=%d", st.Issued, p.callCount())
	}
}

func TestSessions_UnknownSession(t *testing.T) {
	s, _ := newSessions(newFakeProvider())
	ctx := context.Background()

	if _, err := s.Search(ctx, "missing", "London"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound got %v", err)
	}
	if _, err := s.ToggleUnit(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound got %v", err)
	}
}

func TestSessions_ToggleDoesNotTouchStoredModel(t *testing.T) {
	s, store := newSessions(newFakeProvider())
	ctx := context.Background()

	v, _ := s.Create(ctx)
	id := v.SessionID
	if _, err := s.Search(ctx, id, "London"); err != nil {
		t.Fatalf("search: %v", err)
	}
	before, _ := store.Get(ctx, id)

	v, err := s.ToggleUnit(ctx, id)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if v.Unit != "fahrenheit" || v.Symbol != "°F" || v.ToggleLabel != "°C" {
		t.Fatalf("unexpected unit fields %+v", v)
	}
	// 21°C -> 69.8°F, 10°C -> 50°F
	if math.Abs(v.Current.Temperature-69.8) > 1e-9 || v.Daily[0].Temperature != 50 {
		t.Fatalf("unexpected converted temps %v %v", v.Current.Temperature, v.Daily[0].Temperature)
	}

	after, _ := store.Get(ctx, id)
	if after.UseCelsius || after.Model.Current.Temperature != before.Model.Current.Temperature ||
		after.Model.DailySummary[0].Temperature != 10 {
		t.Fatalf("stored model changed by toggle: %+v", after.Model.Current)
	}

	v, err = s.SetUnit(ctx, id, true)
	if err != nil {
		t.Fatalf("set unit: %v", err)
	}
	if v.Current.Temperature != 21 || v.ToggleLabel != "°F" {
		t.Fatalf("unexpected celsius view %+v", v.Current)
	}
}

func TestRender_Empty(t *testing.T) {
	v := Render(nil, true)
	if v.Current != nil || v.Daily == nil || len(v.Daily) != 0 || v.Symbol != "°C" {
		t.Fatalf("unexpected empty view %+v", v)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := store.Create(ctx, "a"); err != nil {
		t.Fatalf("create: %v", err)
	}
	now = now.Add(50 * time.Second)
	if _, err := store.Get(ctx, "a"); err != nil {
		t.Fatalf("expected live session: %v", err)
	}
	// Get slid the expiry forward.
	now = now.Add(50 * time.Second)
	if _, err := store.Issue(ctx, "a"); err != nil {
		t.Fatalf("expected live session after slide: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestMemoryStore_CommitRequiresLatestSequence(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	_, _ = store.Create(ctx, "a")

	first, _ := store.Issue(ctx, "a")
	second, _ := store.Issue(ctx, "a")

	ok, err := store.Commit(ctx, "a", first, models.DisplayModel{Current: models.Current{Location: "old"}})
	if err != nil || ok {
		t.Fatalf("expected stale commit to be rejected, ok=%v err=%v", ok, err)
	}
	ok, err = store.Commit(ctx, "a", second, models.DisplayModel{Current: models.Current{Location: "new"}})
	if err != nil || !ok {
		t.Fatalf("expected latest commit, ok=%v err=%v", ok, err)
	}
	st, _ := store.Get(ctx, "a")
	if st.Applied != second || st.Model.Current.Location != "new" {
		t.Fatalf("unexpected state %+v", st)
	}
}

// hangingPublisher never completes on its own, like a QoS1 publish queued
// while the broker is away.
type hangingPublisher struct {
	calls chan struct{}
}

func (p *hangingPublisher) Publish(ctx context.Context, _ models.DisplayModel) error {
	p.calls <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

func TestSessions_SearchDoesNotWaitOnStuckPublisher(t *testing.T) {
	pub := &hangingPublisher{calls: make(chan struct{}, 1)}
	s := NewSessions(NewService(newFakeProvider(), time.Second), NewMemoryStore(time.Minute), pub)
	s.publishTimeout = 50 * time.Millisecond
	ctx := context.Background()

	v, _ := s.Create(ctx)
	done := make(chan error, 1)
	go func() {
		_, err := s.Search(ctx, v.SessionID, "London")
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("search: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("search still blocked on publisher")
	}
	select {
	case <-pub.calls:
	default:
		t.Fatalf("expected publisher to be called")
	}

	v, err := s.View(ctx, v.SessionID)
	if err != nil || v.Current == nil || v.Current.Location != "London" {
		t.Fatalf("expected committed model, got %+v %v", v, err)
	}
}
