package validation

import (
	"bytes"
	"encoding/json"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	domainerrors "github.com/illustrationsapp/illustrations-server/internal/errors"
	"github.com/illustrationsapp/illustrations-server/internal/util"
)

// MaxBulkIllustrations caps the size of one bulk batch.
const MaxBulkIllustrations = 1000

// ValidateBulkAction checks a raw bulk request.
// Duplicate ids are collapsed, keeping first-seen order.
func ValidateBulkAction(raw domain.BulkRequest) (domain.BulkAction, error) {
	if len(raw.IllustrationIDs) == 0 {
		return domain.BulkAction{}, domainerrors.ValidationField("illustration_ids", "must not be empty")
	}
	if len(raw.IllustrationIDs) > MaxBulkIllustrations {
		return domain.BulkAction{}, domainerrors.ValidationField("illustration_ids", "must not exceed 1000 items")
	}

	seen := make(map[int64]struct{}, len(raw.IllustrationIDs))
	ids := make([]int64, 0, len(raw.IllustrationIDs))
	for _, id := range raw.IllustrationIDs {
		if id <= 0 {
			return domain.BulkAction{}, domainerrors.ValidationField("illustration_ids", "must contain positive integers")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	action := domain.BulkAction{
		IllustrationIDs: ids,
		Action:          domain.BulkActionKind(raw.Action),
	}

	if action.Action != domain.ActionTogglePrivacy && action.Action != domain.ActionRemoveTag {
		return domain.BulkAction{}, domainerrors.ValidationField("action", "must be one of: toggle_privacy remove_tag")
	}

	data := bytes.TrimSpace(raw.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return domain.BulkAction{}, domainerrors.ValidationField("data", "is required")
	}

	switch action.Action {
	case domain.ActionTogglePrivacy:
		var private bool
		if err := json.Unmarshal(data, &private); err != nil {
			return domain.BulkAction{}, domainerrors.ValidationField("data", "must be a boolean for toggle_privacy")
		}
		action.Private = private

	case domain.ActionRemoveTag:
		ref, err := parseTagRef(data)
		if err != nil {
			return domain.BulkAction{}, err
		}
		action.Tag = ref

	default:
		return domain.BulkAction{}, domainerrors.ValidationField("action", "must be one of: toggle_privacy remove_tag")
	}

	return action, nil
}

// parseTagRef accepts a tag slug or name (JSON string) or a tag id (JSON integer).
func parseTagRef(data []byte) (domain.TagRef, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		name, err := util.NormalizeTag(s)
		if err != nil {
			return domain.TagRef{}, domainerrors.ValidationField("data", "must identify a tag")
		}
		return domain.TagRef{Slug: name.Slug}, nil
	}

	var id int64
	if err := json.Unmarshal(data, &id); err == nil {
		if id <= 0 {
			return domain.TagRef{}, domainerrors.ValidationField("data", "must be a positive tag id")
		}
		return domain.TagRef{ID: id}, nil
	}

	return domain.TagRef{}, domainerrors.ValidationField("data", "must be a tag slug or id for remove_tag")
}
