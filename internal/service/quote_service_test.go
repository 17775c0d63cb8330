package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/domain/quote"
	"github.com/ndquotes/quote-api/internal/ierr"
	"github.com/ndquotes/quote-api/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newQuoteFixture() (*QuoteService, *memstorage.QuoteRepository) {
	repo := memstorage.NewQuoteRepository()
	return NewQuoteService(repo, zap.NewNop()), repo
}

func seedQuote(t *testing.T, svc *QuoteService, text string, published bool, tags ...string) *quote.Quote {
	t.Helper()
	q, err := svc.Create(context.Background(), &quote.Quote{
		Text:        text,
		Author:      "Seneca",
		Tags:        tags,
		IsPublished: published,
	})
	require.NoError(t, err)
	return q
}

func TestCreateQuoteTrimsAndValidates(t *testing.T) {
	svc, _ := newQuoteFixture()

	created, err := svc.Create(context.Background(), &quote.Quote{
		Text:   "  Luck is what happens when preparation meets opportunity.  ",
		Author: " Seneca ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Luck is what happens when preparation meets opportunity.", created.Text)
	assert.Equal(t, "Seneca", created.Author)
	assert.False(t, created.IsPublished, "quotes start unpublished unless stated")

	_, err = svc.Create(context.Background(), &quote.Quote{Text: "   ", Author: "x"})
	assert.ErrorIs(t, err, ierr.ErrValidation)

	_, err = svc.Create(context.Background(), &quote.Quote{Text: "some text", Author: ""})
	assert.ErrorIs(t, err, ierr.ErrValidation)
}

func TestCreateQuoteDuplicateText(t *testing.T) {
	svc, _ := newQuoteFixture()
	seedQuote(t, svc, "We suffer more often in imagination than in reality.", true)

	_, err := svc.Create(context.Background(), &quote.Quote{
		Text:   "We suffer more often in imagination than in reality.",
		Author: "Someone Else",
	})
	assert.ErrorIs(t, err, ierr.ErrDuplicateQuote)
}

func TestGetPublishedHidesUnpublished(t *testing.T) {
	svc, _ := newQuoteFixture()
	draft := seedQuote(t, svc, "Draft wisdom.", false)

	_, err := svc.GetPublished(context.Background(), draft.ID)
	assert.ErrorIs(t, err, ierr.ErrNotFound)

	// The operator view still sees it.
	got, err := svc.Get(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
}

func TestGetQuoteNotFound(t *testing.T) {
	svc, _ := newQuoteFixture()

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ierr.ErrNotFound)
}

func TestListPublishedFiltersDrafts(t *testing.T) {
	svc, _ := newQuoteFixture()
	seedQuote(t, svc, "Published one.", true)
	seedQuote(t, svc, "Published two.", true)
	seedQuote(t, svc, "Hidden draft.", false)

	quotes, total, err := svc.ListPublished(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, q := range quotes {
		assert.True(t, q.IsPublished)
	}
}

func TestListAllFiltersByTag(t *testing.T) {
	svc, _ := newQuoteFixture()
	seedQuote(t, svc, "Stoic line.", true, "stoicism")
	seedQuote(t, svc, "Other line.", true, "humor")

	quotes, total, err := svc.ListAll(context.Background(), quote.ListParams{Tag: "stoicism"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Stoic line.", quotes[0].Text)
}

func TestRandomOnlyServesPublished(t *testing.T) {
	svc, _ := newQuoteFixture()
	seedQuote(t, svc, "Only published candidate.", true)
	seedQuote(t, svc, "Never served draft.", false)

	for i := 0; i < 10; i++ {
		q, err := svc.Random(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Only published candidate.", q.Text)
	}
}

func TestRandomEmptyCatalog(t *testing.T) {
	svc, _ := newQuoteFixture()

	_, err := svc.Random(context.Background())
	assert.ErrorIs(t, err, ierr.ErrNotFound)
}

func TestUpdateQuotePublishToggle(t *testing.T) {
	svc, _ := newQuoteFixture()
	draft := seedQuote(t, svc, "Toggle me.", false)

	published := true
	updated, err := svc.Update(context.Background(), draft.ID, quote.UpdateParams{IsPublished: &published})
	require.NoError(t, err)
	assert.True(t, updated.IsPublished)

	got, err := svc.GetPublished(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
}

func TestUpdateQuoteDuplicateText(t *testing.T) {
	svc, _ := newQuoteFixture()
	seedQuote(t, svc, "First text.", true)
	second := seedQuote(t, svc, "Second text.", true)

	clash := "first text."
	_, err := svc.Update(context.Background(), second.ID, quote.UpdateParams{Text: &clash})
	assert.ErrorIs(t, err, ierr.ErrDuplicateQuote)
}

func TestDeleteQuote(t *testing.T) {
	svc, _ := newQuoteFixture()
	q := seedQuote(t, svc, "Ephemeral.", true)

	require.NoError(t, svc.Delete(context.Background(), q.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), q.ID), ierr.ErrNotFound)
}
