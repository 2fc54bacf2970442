package review

import (
	"context"
	"testing"
	"time"

	"github.com/pot-code/brain-trails/internal/deck"
	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/uuid"
	"github.com/pot-code/brain-trails/internal/srs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	review *ReviewUseCaseImpl
	decks  *deck.DeckUseCaseImpl
	repo   *ProgressSQL
	kv     *driver.MemoryKV
	now    time.Time
}

func (f *fixture) setClock(t time.Time) {
	f.now = t
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	conn, err := driver.NewSQLiteConn(driver.MemoryDSN, &driver.DBConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(ctx) })
	require.NoError(t, driver.EnsureSchema(ctx, conn))

	now := time.Now().UTC()
	for _, id := range []string{"ada", "grace"} {
		_, err := conn.ExecContext(ctx, `INSERT INTO users (id, username, email, password, display_name, bio, theme,
		avatar_url, login_retry, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			id, id, id+"@example.com", "x", id, "", "system", "", 0, now, now)
		require.NoError(t, err)
	}

	gen := uuid.NewNanoIDGenerator(16)
	kv := driver.NewMemoryKV()
	f := &fixture{
		decks: deck.NewDeckUseCase(deck.NewDeckRepository(conn, gen), NewDueCountCache(kv, time.Hour)),
		repo:  NewProgressRepository(conn, gen),
		kv:    kv,
		now:   time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.review = NewReviewUseCase(f.repo, f.decks, f.kv, 20, time.Hour)
	clock := func() time.Time { return f.now }
	f.review.now = clock
	f.review.Scheduler = srs.NewScheduler(clock)
	return f
}

func (f *fixture) card(t *testing.T, userID, question string) *deck.FlashcardModel {
	t.Helper()
	ctx := context.Background()
	d, err := f.decks.CreateDeck(ctx, userID, "deck of "+question)
	require.NoError(t, err)
	c, err := f.decks.CreateFlashcard(ctx, userID, d.ID, question, "answer")
	require.NoError(t, err)
	return c
}

func TestReviewUseCase_Review(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	card := f.card(t, "ada", "q1")

	res, err := f.review.Review(ctx, "ada", card.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, card.ID, res.FlashcardID)
	assert.Equal(t, 1, res.Repetitions)
	assert.Equal(t, 1, res.Interval)
	assert.InDelta(t, 2.5, res.EaseFactor, 1e-9)
	assert.True(t, f.now.Equal(*res.LastReviewed))
	assert.True(t, f.now.AddDate(0, 0, 1).Equal(*res.NextReview))

	f.setClock(f.now.AddDate(0, 0, 1))
	res, err = f.review.Review(ctx, "ada", card.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Repetitions)
	assert.Equal(t, 6, res.Interval)
	assert.InDelta(t, 2.6, res.EaseFactor, 1e-9)

	stored, err := f.repo.FindProgress(ctx, "ada", card.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, 6, stored.Interval)
	assert.True(t, f.now.AddDate(0, 0, 6).Equal(*stored.NextReview))

	// lapse
	res, err = f.review.Review(ctx, "ada", card.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Repetitions)
	assert.Equal(t, 1, res.Interval)
	assert.InDelta(t, 2.06, res.EaseFactor, 1e-9)
}

func TestReviewUseCase_ReviewNotOwned(t *testing.T) {
	f := newFixture(t)
	card := f.card(t, "ada", "q1")

	_, err := f.review.Review(context.Background(), "grace", card.ID, 4)
	assert.ErrorIs(t, err, deck.ErrFlashcardNotFound)
}

func TestReviewUseCase_Due(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reviewed := f.card(t, "ada", "reviewed")
	fresh := f.card(t, "ada", "fresh")

	_, err := f.review.Review(ctx, "ada", reviewed.ID, 4)
	require.NoError(t, err)

	next, err := f.review.NextDue(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, next.ID)
	assert.Nil(t, next.NextReview)
	assert.Equal(t, srs.DefaultInterval, next.Interval)
	assert.InDelta(t, srs.DefaultEaseFactor, next.EaseFactor, 1e-9)

	f.setClock(f.now.AddDate(0, 0, 1))
	due, err := f.review.ListDue(ctx, "ada", 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, reviewed.ID, due[0].ID)
	assert.Equal(t, 1, due[0].Repetitions)
	assert.Equal(t, fresh.ID, due[1].ID)

	due, err = f.review.ListDue(ctx, "ada", 1)
	require.NoError(t, err)
	assert.Len(t, due, 1)

	_, err = f.review.NextDue(ctx, "grace")
	assert.ErrorIs(t, err, ErrNoCardsDue)
}

func TestReviewUseCase_DueCountCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	card := f.card(t, "ada", "q1")
	f.card(t, "ada", "q2")

	n, err := f.review.DueCount(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	cached, err := f.kv.Get(ctx, DueCountKey("ada"))
	require.NoError(t, err)
	assert.Equal(t, "2", cached)

	_, err = f.review.Review(ctx, "ada", card.ID, 5)
	require.NoError(t, err)
	ok, _ := f.kv.Exists(ctx, DueCountKey("ada"))
	assert.False(t, ok, "review invalidates the cached count")

	require.NoError(t, f.review.RefreshDueCounts(ctx))
	cached, err = f.kv.Get(ctx, DueCountKey("ada"))
	require.NoError(t, err)
	assert.Equal(t, "1", cached)
}

func TestReviewUseCase_DueCountFollowsCardChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.card(t, "ada", "q1")

	n, err := f.review.DueCount(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	second, err := f.decks.CreateFlashcard(ctx, "ada", first.DeckID, "q2", "answer")
	require.NoError(t, err)
	_, err = f.decks.CreateFlashcard(ctx, "ada", first.DeckID, "q3", "answer")
	require.NoError(t, err)
	n, err = f.review.DueCount(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, f.decks.DeleteFlashcard(ctx, "ada", second.ID))
	n, err = f.review.DueCount(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, f.decks.DeleteDeck(ctx, "ada", first.DeckID))
	n, err = f.review.DueCount(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReviewUseCase_DueCountWithoutTTL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.review.DueCounts = NewDueCountCache(f.kv, 0)
	f.card(t, "ada", "q1")

	n, err := f.review.DueCount(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	ok, err := f.kv.Exists(ctx, DueCountKey("ada"))
	require.NoError(t, err)
	assert.False(t, ok, "a zero TTL must not store a key that never expires")

	require.NoError(t, f.review.RefreshDueCounts(ctx))
	ok, _ = f.kv.Exists(ctx, DueCountKey("ada"))
	assert.False(t, ok)
}

func TestProgress_CascadeWithDeck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	card := f.card(t, "ada", "q1")
	_, err := f.review.Review(ctx, "ada", card.ID, 3)
	require.NoError(t, err)

	require.NoError(t, f.decks.DeleteDeck(ctx, "ada", card.DeckID))
	p, err := f.repo.FindProgress(ctx, "ada", card.ID)
	require.NoError(t, err)
	assert.Nil(t, p)
}

type mockProgressRepository struct {
	mock.Mock
}

func (m *mockProgressRepository) FindProgress(ctx context.Context, userID, cardID string) (*ProgressModel, error) {
	args := m.Called(ctx, userID, cardID)
	p, _ := args.Get(0).(*ProgressModel)
	return p, args.Error(1)
}

func (m *mockProgressRepository) InsertProgress(ctx context.Context, p *ProgressModel) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProgressRepository) UpdateProgress(ctx context.Context, p *ProgressModel) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *mockProgressRepository) ListDue(ctx context.Context, userID string, at time.Time, limit int) ([]*DueCard, error) {
	args := m.Called(ctx, userID, at, limit)
	return args.Get(0).([]*DueCard), args.Error(1)
}

func (m *mockProgressRepository) CountDue(ctx context.Context, userID string, at time.Time) (int, error) {
	args := m.Called(ctx, userID, at)
	return args.Int(0), args.Error(1)
}

func (m *mockProgressRepository) ListLearners(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type ownedCards struct{}

func (ownedCards) GetFlashcard(ctx context.Context, userID, cardID string) (*deck.FlashcardModel, error) {
	return &deck.FlashcardModel{ID: cardID}, nil
}

func stored(version int) *ProgressModel {
	p := &ProgressModel{ID: "p1", UserID: "ada", FlashcardID: "c1", Version: version}
	p.Progress = srs.Progress{Repetitions: 2, EaseFactor: 2.5, Interval: 6}
	return p
}

func TestReviewUseCase_RetriesStaleVersion(t *testing.T) {
	repo := new(mockProgressRepository)
	repo.On("FindProgress", mock.Anything, "ada", "c1").Return(stored(3), nil).Once()
	repo.On("FindProgress", mock.Anything, "ada", "c1").Return(stored(4), nil).Once()
	repo.On("UpdateProgress", mock.Anything, mock.MatchedBy(func(p *ProgressModel) bool { return p.Version == 3 })).Return(false, nil).Once()
	repo.On("UpdateProgress", mock.Anything, mock.MatchedBy(func(p *ProgressModel) bool { return p.Version == 4 })).Return(true, nil).Once()

	ru := NewReviewUseCase(repo, ownedCards{}, nil, 20, time.Hour)
	res, err := ru.Review(context.Background(), "ada", "c1", 4)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Repetitions)
	assert.Equal(t, 15, res.Interval)
	repo.AssertExpectations(t)
}

func TestReviewUseCase_FirstReviewRace(t *testing.T) {
	repo := new(mockProgressRepository)
	repo.On("FindProgress", mock.Anything, "ada", "c1").Return(nil, nil).Once()
	repo.On("InsertProgress", mock.Anything, mock.Anything).Return(ErrProgressExists).Once()
	repo.On("FindProgress", mock.Anything, "ada", "c1").Return(stored(1), nil).Once()
	repo.On("UpdateProgress", mock.Anything, mock.Anything).Return(true, nil).Once()

	ru := NewReviewUseCase(repo, ownedCards{}, nil, 20, time.Hour)
	res, err := ru.Review(context.Background(), "ada", "c1", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Repetitions)
	repo.AssertExpectations(t)
}

func TestReviewUseCase_GivesUpAfterBoundedAttempts(t *testing.T) {
	repo := new(mockProgressRepository)
	for i := 0; i < maxReviewAttempts; i++ {
		repo.On("FindProgress", mock.Anything, "ada", "c1").Return(stored(1), nil).Once()
	}
	repo.On("UpdateProgress", mock.Anything, mock.Anything).Return(false, nil).Times(maxReviewAttempts)

	ru := NewReviewUseCase(repo, ownedCards{}, nil, 20, time.Hour)
	_, err := ru.Review(context.Background(), "ada", "c1", 5)
	assert.ErrorIs(t, err, ErrConcurrentReview)
	repo.AssertExpectations(t)
}
