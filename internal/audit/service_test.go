package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dipta-sdd/campaignbay-sub002/internal/common"
)

type stubStore struct {
	last   Entry
	called bool
	err    error
}

func (s *stubStore) InsertActivityLog(_ context.Context, entry Entry) error {
	s.called = true
	s.last = entry
	return s.err
}

func TestRecordUsesAuthenticatedUser(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: true}
	ctx := common.WithUserID(context.Background(), " admin-1 ")

	err := svc.Record(ctx, Activity{CampaignID: 4, Action: ActionUpdated, Message: "Campaign updated", Extra: map[string]any{"title": "Summer"}})
	require.NoError(t, err)
	require.True(t, store.called)
	require.Equal(t, ActorKindUser, store.last.ActorKind)
	require.NotNil(t, store.last.UserID)
	require.Equal(t, "admin-1", *store.last.UserID)
	require.EqualValues(t, 4, store.last.CampaignID)
	require.JSONEq(t, `{"action":"updated","message":"Campaign updated","title":"Summer"}`, string(store.last.ExtraData))
}

func TestRecordDefaultsToSystemActor(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: true}
	require.NoError(t, svc.Record(context.Background(), Activity{CampaignID: 1, Action: ActionDeleted}))
	require.Equal(t, ActorKindSystem, store.last.ActorKind)
	require.Nil(t, store.last.UserID)
}

func TestRecordDisabledSkipsStore(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store}
	require.NoError(t, svc.Record(context.Background(), Activity{CampaignID: 1, Action: ActionCreated}))
	require.False(t, store.called)
}

func TestRecordRequiresAction(t *testing.T) {
	svc := Service{Store: &stubStore{}, Enabled: true}
	require.Error(t, svc.Record(context.Background(), Activity{CampaignID: 1}))
}

func TestRecordPropagatesStoreError(t *testing.T) {
	svc := Service{Store: &stubStore{err: errors.New("insert failed")}, Enabled: true}
	require.ErrorContains(t, svc.Record(context.Background(), Activity{CampaignID: 1, Action: ActionCreated}), "insert failed")
}
