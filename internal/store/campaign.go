package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jmcastell/lorekeeper/internal/kv"
	"github.com/jmcastell/lorekeeper/internal/model"
)

// RecordUpdate describes a partial update to a campaign record. Content
// merges into the existing map; Name and Tags replace only when set.
type RecordUpdate struct {
	Name    string
	Content map[string]any
	Tags    []string
}

// CreateRecord stores a new campaign record at version 1 and adds it to the
// campaign-wide and type-specific indexes in one atomic batch.
func (s *Store) CreateRecord(ctx context.Context, campaignID, dataType string, data map[string]any) (*model.CampaignRecord, error) {
	now := time.Now().UTC()
	rec := &model.CampaignRecord{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		DataType:   dataType,
		Name:       stringField(data, "name"),
		Content:    data,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
		Tags:       tagsField(data),
	}

	key := recordKey(campaignID, dataType, rec.ID)
	fields, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}

	err = s.kv.Batch(ctx, func(b kv.Batch) error {
		b.HSet(key, fields)
		b.SAdd(campaignIndex+campaignID, key)
		b.SAdd(campaignType+campaignID+":"+dataType, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Records lists a campaign's records, optionally narrowed to one data type.
// An unreadable record is logged and skipped. Order is deterministic by id.
func (s *Store) Records(ctx context.Context, campaignID, dataType string) ([]*model.CampaignRecord, error) {
	indexKey := campaignIndex + campaignID
	if dataType != "" {
		indexKey = campaignType + campaignID + ":" + dataType
	}
	keys, err := s.kv.SMembers(ctx, indexKey)
	if err != nil {
		return nil, err
	}

	records := make([]*model.CampaignRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := s.recordByKey(ctx, key)
		if err != nil {
			s.logger.Warn("skipping unreadable campaign record", "key", key, "error", err)
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// GetRecord loads one record by id within a campaign.
func (s *Store) GetRecord(ctx context.Context, campaignID, recordID string) (*model.CampaignRecord, error) {
	key, err := s.findRecordKey(ctx, campaignID, recordID)
	if err != nil {
		return nil, err
	}
	return s.recordByKey(ctx, key)
}

// UpdateRecord merges updates into an existing record, bumps its version,
// and refreshes the update timestamp.
func (s *Store) UpdateRecord(ctx context.Context, campaignID, recordID string, update RecordUpdate) (*model.CampaignRecord, error) {
	key, err := s.findRecordKey(ctx, campaignID, recordID)
	if err != nil {
		return nil, err
	}
	rec, err := s.recordByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if rec.Content == nil {
		rec.Content = make(map[string]any)
	}
	for k, v := range update.Content {
		rec.Content[k] = v
	}
	if update.Name != "" {
		rec.Name = update.Name
	}
	if update.Tags != nil {
		rec.Tags = update.Tags
	}
	rec.Version++
	rec.UpdatedAt = time.Now().UTC()

	fields, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}
	if err := s.kv.HSet(ctx, key, fields); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRecord removes a record and both of its index memberships in one
// atomic batch: no window exists where an index still lists a deleted record.
func (s *Store) DeleteRecord(ctx context.Context, campaignID, recordID string) error {
	key, err := s.findRecordKey(ctx, campaignID, recordID)
	if err != nil {
		return err
	}
	dataType, err := s.kv.HGet(ctx, key, "data_type")
	if err != nil {
		return err
	}

	return s.kv.Batch(ctx, func(b kv.Batch) error {
		b.SRem(campaignIndex+campaignID, key)
		b.SRem(campaignType+campaignID+":"+dataType, key)
		b.Del(key)
		return nil
	})
}

func recordKey(campaignID, dataType, id string) string {
	return campaignPrefix + campaignID + ":" + dataType + ":" + id
}

func (s *Store) findRecordKey(ctx context.Context, campaignID, recordID string) (string, error) {
	keys, err := s.kv.SMembers(ctx, campaignIndex+campaignID)
	if err != nil {
		return "", err
	}
	for _, key := range keys {
		id, err := s.kv.HGet(ctx, key, "id")
		if err != nil {
			continue
		}
		if id == recordID {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrRecordNotFound, campaignID, recordID)
}

func (s *Store) recordByKey(ctx context.Context, key string) (*model.CampaignRecord, error) {
	fields, err := s.kv.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
		}
		return nil, err
	}
	return decodeRecord(fields)
}

// encodeRecord flattens a record into hash fields. Nested structures travel
// as embedded JSON so round-trips keep full fidelity.
func encodeRecord(rec *model.CampaignRecord) (map[string]string, error) {
	content, err := json.Marshal(rec.Content)
	if err != nil {
		return nil, fmt.Errorf("encode record content: %w", err)
	}
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode record tags: %w", err)
	}
	return map[string]string{
		"id":          rec.ID,
		"campaign_id": rec.CampaignID,
		"data_type":   rec.DataType,
		"name":        rec.Name,
		"content":     string(content),
		"created_at":  rec.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  rec.UpdatedAt.Format(time.RFC3339Nano),
		"version":     strconv.Itoa(rec.Version),
		"tags":        string(tags),
	}, nil
}

func decodeRecord(fields map[string]string) (*model.CampaignRecord, error) {
	rec := &model.CampaignRecord{
		ID:         fields["id"],
		CampaignID: fields["campaign_id"],
		DataType:   fields["data_type"],
		Name:       fields["name"],
	}

	if err := json.Unmarshal([]byte(fields["content"]), &rec.Content); err != nil {
		return nil, fmt.Errorf("decode record content: %w", err)
	}
	if err := json.Unmarshal([]byte(fields["tags"]), &rec.Tags); err != nil {
		return nil, fmt.Errorf("decode record tags: %w", err)
	}

	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return nil, fmt.Errorf("decode record created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updated_at"]); err != nil {
		return nil, fmt.Errorf("decode record updated_at: %w", err)
	}
	if rec.Version, err = strconv.Atoi(fields["version"]); err != nil {
		return nil, fmt.Errorf("decode record version: %w", err)
	}
	return rec, nil
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func tagsField(data map[string]any) []string {
	switch v := data["tags"].(type) {
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	default:
		return nil
	}
}
