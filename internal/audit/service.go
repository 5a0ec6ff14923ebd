package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dipta-sdd/campaignbay-sub002/internal/common"
)

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	// ActorKindUser represents an authenticated administrator.
	ActorKindUser ActorKind = "user"
	// ActorKindSystem represents internal automated actions.
	ActorKindSystem ActorKind = "system"
)

// Action names recorded for campaign lifecycle changes.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Activity is a single campaign activity entry.
type Activity struct {
	CampaignID int64
	Action     string
	Message    string
	Extra      map[string]any
}

// Entry is the normalised row handed to the store.
type Entry struct {
	CampaignID int64
	UserID     *string
	ActorKind  ActorKind
	Action     string
	ExtraData  []byte
}

// Store persists activity entries.
type Store interface {
	InsertActivityLog(ctx context.Context, entry Entry) error
}

// Service records campaign activity alongside sale logs.
type Service struct {
	Store   Store
	Enabled bool
}

// Record persists an activity entry when auditing is enabled.
func (s Service) Record(ctx context.Context, act Activity) error {
	if !s.Enabled {
		return nil
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}
	action := strings.TrimSpace(act.Action)
	if action == "" {
		return errors.New("audit: action is required")
	}
	entry := Entry{
		CampaignID: act.CampaignID,
		ActorKind:  ActorKindSystem,
		Action:     action,
	}
	if id, ok := common.UserID(ctx); ok && strings.TrimSpace(id) != "" {
		trimmed := strings.TrimSpace(id)
		entry.UserID = &trimmed
		entry.ActorKind = ActorKindUser
	}
	extra, err := buildExtra(action, act.Message, act.Extra)
	if err != nil {
		return err
	}
	entry.ExtraData = extra
	return s.Store.InsertActivityLog(ctx, entry)
}

func buildExtra(action, message string, extra map[string]any) ([]byte, error) {
	payload := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		payload[k] = v
	}
	payload["action"] = action
	if msg := strings.TrimSpace(message); msg != "" {
		payload["message"] = msg
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.New("audit: extra data is not serialisable")
	}
	return data, nil
}
