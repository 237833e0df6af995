package answer_test

import (
	"testing"

	"github.com/lectern-dev/lectern/pkg/model"
	"github.com/lectern-dev/lectern/pkg/usecase/answer"
	"github.com/m-mizutani/gt"
)

func TestSessionUpsert(t *testing.T) {
	store := answer.NewSessionStore(2)
	id := model.NewSessionID()

	first, created := store.Upsert(id)
	gt.True(t, created)
	gt.V(t, first.ID).Equal(id)

	second, created := store.Upsert(id)
	gt.False(t, created)
	gt.V(t, second).Equal(first)
}

func TestSessionHistoryCap(t *testing.T) {
	store := answer.NewSessionStore(2)
	id := model.NewSessionID()

	store.AddExchange(id, "q1", "a1")
	store.AddExchange(id, "q2", "a2")
	store.AddExchange(id, "q3", "a3")

	history := store.History(id)
	gt.V(t, len(history)).Equal(2)
	gt.V(t, history[0].Query).Equal("q2")
	gt.V(t, history[1].Query).Equal("q3")
	gt.V(t, history[1].Response).Equal("a3")
}

func TestSessionHistoryIsCopy(t *testing.T) {
	store := answer.NewSessionStore(5)
	id := model.NewSessionID()
	store.AddExchange(id, "q1", "a1")

	history := store.History(id)
	history[0].Query = "tampered"

	gt.V(t, store.History(id)[0].Query).Equal("q1")
}

func TestSessionUnknownHistoryEmpty(t *testing.T) {
	store := answer.NewSessionStore(2)
	gt.V(t, len(store.History(model.NewSessionID()))).Equal(0)
}
