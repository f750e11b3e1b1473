package feedback

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-mis/internal/storage"
)

var (
	// ErrNotFound is returned when no feedback exists for an order.
	ErrNotFound = errors.New("feedback not found")
	// ErrExists is returned when the order already has feedback.
	ErrExists = errors.New("feedback already submitted for this order")
)

// Averages holds the mean of each rating dimension.
type Averages struct {
	Rating         float64
	FoodQuality    float64
	ServiceQuality float64
	DeliveryTime   float64
}

// Stats summarizes all stored feedback.
type Stats struct {
	Total         int
	AverageRating float64
	// RecommendPercent is the share of feedback with WouldRecommend set, 0..100.
	RecommendPercent float64
	// Distribution counts overall ratings; keys 1 through 5 are always present.
	Distribution map[int]int
}

// Repository keeps feedback, most recent first, persisting the whole
// collection through a storage port after every change.
type Repository struct {
	port storage.Port
	lg   *zap.Logger
	now  func() time.Time

	mu     sync.Mutex
	loaded bool
	list   []Feedback
}

// NewRepository creates a Repository persisting to port.
func NewRepository(port storage.Port, lg *zap.Logger) *Repository {
	return &Repository{port: port, lg: lg, now: time.Now}
}

func (r *Repository) load(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	data, err := r.port.Load(ctx, storage.FeedbacksKey)
	if err != nil {
		return errors.Wrap(err, "load feedback")
	}
	list, err := Unmarshal(data)
	if err != nil {
		r.lg.Error("Stored feedback is corrupt, starting empty",
			zap.String("key", storage.FeedbacksKey),
			zap.Error(err),
		)
		list = nil
	}
	r.list = list
	r.loaded = true
	return nil
}

func (r *Repository) persist(ctx context.Context, next []Feedback) error {
	data, err := Marshal(next)
	if err != nil {
		return errors.Wrap(err, "marshal feedback")
	}
	if err := r.port.Save(ctx, storage.FeedbacksKey, data); err != nil {
		return errors.Wrap(err, "save feedback")
	}
	r.list = next
	return nil
}

// SaveFeedback stores in as new feedback dated now, or returns ErrExists if
// the order already has some. Input is not validated; callers run Validate
// first.
func (r *Repository) SaveFeedback(ctx context.Context, in Input) (*Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	if slices.ContainsFunc(r.list, func(f Feedback) bool { return f.OrderNumber == in.OrderNumber }) {
		return nil, ErrExists
	}

	f := Feedback{
		ID:             uuid.NewString(),
		OrderID:        in.OrderID,
		OrderNumber:    in.OrderNumber,
		CustomerName:   in.CustomerName,
		CustomerPhone:  in.CustomerPhone,
		Rating:         in.Rating,
		FoodQuality:    in.FoodQuality,
		ServiceQuality: in.ServiceQuality,
		DeliveryTime:   in.DeliveryTime,
		Comments:       in.Comments,
		Date:           r.now(),
		WouldRecommend: in.WouldRecommend,
	}

	next := make([]Feedback, 0, len(r.list)+1)
	next = append(next, f)
	next = append(next, r.list...)
	if err := r.persist(ctx, next); err != nil {
		return nil, err
	}
	return &f, nil
}

// Feedbacks returns all feedback, newest first.
func (r *Repository) Feedbacks(ctx context.Context) ([]Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	out := slices.Clone(r.list)
	slices.SortStableFunc(out, func(a, b Feedback) int { return b.Date.Compare(a.Date) })
	return out, nil
}

// FeedbacksByPhone returns the feedback left from phone, newest first.
func (r *Repository) FeedbacksByPhone(ctx context.Context, phone string) ([]Feedback, error) {
	all, err := r.Feedbacks(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(f Feedback) bool { return f.CustomerPhone != phone }), nil
}

// FeedbackByOrderNumber returns the first feedback stored for the order.
func (r *Repository) FeedbackByOrderNumber(ctx context.Context, number string) (*Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	i := slices.IndexFunc(r.list, func(f Feedback) bool { return f.OrderNumber == number })
	if i < 0 {
		return nil, ErrNotFound
	}
	f := r.list[i]
	return &f, nil
}

// ClearAllFeedbacks removes all feedback.
func (r *Repository) ClearAllFeedbacks(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return err
	}
	return r.persist(ctx, nil)
}

// Merge adds feedback whose IDs are not yet stored and returns how many were
// added.
func (r *Repository) Merge(ctx context.Context, list []Feedback) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(r.list))
	for _, f := range r.list {
		seen[f.ID] = struct{}{}
	}
	next := slices.Clone(r.list)
	added := 0
	for _, f := range list {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		next = append(next, f)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	slices.SortStableFunc(next, func(a, b Feedback) int { return b.Date.Compare(a.Date) })
	if err := r.persist(ctx, next); err != nil {
		return 0, err
	}
	return added, nil
}

// AverageRatings returns the mean of every rating dimension, or zeros when
// there is no feedback.
func (r *Repository) AverageRatings(ctx context.Context) (Averages, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return Averages{}, err
	}
	return averages(r.list), nil
}

func averages(list []Feedback) Averages {
	if len(list) == 0 {
		return Averages{}
	}
	var sum Averages
	for _, f := range list {
		sum.Rating += float64(f.Rating)
		sum.FoodQuality += float64(f.FoodQuality)
		sum.ServiceQuality += float64(f.ServiceQuality)
		sum.DeliveryTime += float64(f.DeliveryTime)
	}
	n := float64(len(list))
	return Averages{
		Rating:         sum.Rating / n,
		FoodQuality:    sum.FoodQuality / n,
		ServiceQuality: sum.ServiceQuality / n,
		DeliveryTime:   sum.DeliveryTime / n,
	}
}

// Stats returns totals, the average overall rating, the recommendation rate
// and the rating distribution.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return Stats{}, err
	}

	st := Stats{
		Total:        len(r.list),
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	if st.Total == 0 {
		return st, nil
	}

	recommend := 0
	for _, f := range r.list {
		if f.WouldRecommend {
			recommend++
		}
		if _, ok := st.Distribution[f.Rating]; ok {
			st.Distribution[f.Rating]++
		}
	}
	st.AverageRating = averages(r.list).Rating
	st.RecommendPercent = float64(recommend) * 100 / float64(st.Total)
	return st, nil
}
