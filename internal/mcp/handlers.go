package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jmcastell/lorekeeper/internal/ingest"
	"github.com/jmcastell/lorekeeper/internal/personality"
	"github.com/jmcastell/lorekeeper/internal/search"
	"github.com/jmcastell/lorekeeper/internal/store"
)

// makeSearchHandler creates the search_rulebook tool handler.
// Flow:
// 1. Build filter set from the optional rulebook/system/content_type inputs
// 2. Run the hybrid search engine (vector pass, keyword fallback)
// 3. Map ranked results to wire hits
func makeSearchHandler(engine *search.Engine) func(
	context.Context, *mcp.CallToolRequest, SearchRulebookInput,
) (*mcp.CallToolResult, SearchRulebookOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchRulebookInput) (
		*mcp.CallToolResult, SearchRulebookOutput, error,
	) {
		if input.Query == "" {
			return nil, SearchRulebookOutput{}, errors.New("query is required")
		}

		filters := map[string]string{}
		if input.Rulebook != "" {
			filters[store.FilterRulebook] = input.Rulebook
		}
		if input.System != "" {
			filters[store.FilterSystem] = input.System
		}
		if input.ContentType != "" {
			filters[store.FilterCategory] = input.ContentType
		}

		results, err := engine.Search(ctx, input.Query, filters, input.MaxResults)
		if err != nil {
			return nil, SearchRulebookOutput{}, fmt.Errorf("search failed: %w", err)
		}

		hits := make([]RulebookHit, 0, len(results))
		for _, r := range results {
			hits = append(hits, RulebookHit{
				ID:          r.Chunk.ID,
				Title:       r.Chunk.Title,
				Content:     r.Chunk.Content,
				Rulebook:    r.Chunk.Rulebook,
				System:      r.Chunk.System,
				ContentType: string(r.Chunk.Category),
				Page:        r.Chunk.PageNumber,
				SectionPath: r.Chunk.SectionPath,
				Score:       r.Score,
				MatchType:   string(r.MatchType),
			})
		}

		if len(hits) == 0 {
			return nil, SearchRulebookOutput{
				Results: []RulebookHit{},
				Message: "No matching content found. Try broader search terms or fewer filters.",
			}, nil
		}

		return nil, SearchRulebookOutput{Results: hits}, nil
	}
}

// makeAddRulebookHandler creates the add_rulebook tool handler.
// Runs the full ingestion pipeline and reports its statistics.
func makeAddRulebookHandler(pipeline *ingest.Pipeline) func(
	context.Context, *mcp.CallToolRequest, AddRulebookInput,
) (*mcp.CallToolResult, AddRulebookOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AddRulebookInput) (
		*mcp.CallToolResult, AddRulebookOutput, error,
	) {
		if input.Path == "" || input.Rulebook == "" || input.System == "" {
			return nil, AddRulebookOutput{}, errors.New("path, rulebook, and system are required")
		}

		res, err := pipeline.Ingest(ctx, input.Path, input.Rulebook, input.System)
		if err != nil {
			return nil, AddRulebookOutput{}, fmt.Errorf("ingestion failed: %w", err)
		}

		return nil, AddRulebookOutput{
			Pages:    res.Pages,
			Sections: res.Sections,
			Chunks:   res.Chunks,
			Embedded: res.Embedded,
			Skipped:  res.SkippedEmbeds,
			Duration: res.Duration.String(),
		}, nil
	}
}

// makeCampaignHandler creates the manage_campaign tool handler.
// Dispatches on the action field: create, read, update, delete, list.
func makeCampaignHandler(st *store.Store) func(
	context.Context, *mcp.CallToolRequest, ManageCampaignInput,
) (*mcp.CallToolResult, ManageCampaignOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ManageCampaignInput) (
		*mcp.CallToolResult, ManageCampaignOutput, error,
	) {
		if input.CampaignID == "" {
			return nil, ManageCampaignOutput{}, errors.New("campaign_id is required")
		}

		switch input.Action {
		case "create":
			if input.DataType == "" {
				return nil, ManageCampaignOutput{}, errors.New("data_type is required for create")
			}
			rec, err := st.CreateRecord(ctx, input.CampaignID, input.DataType, input.Data)
			if err != nil {
				return nil, ManageCampaignOutput{}, fmt.Errorf("create failed: %w", err)
			}
			return nil, ManageCampaignOutput{Record: rec, Message: "record created"}, nil

		case "read":
			if input.RecordID == "" {
				return nil, ManageCampaignOutput{}, errors.New("record_id is required for read")
			}
			rec, err := st.GetRecord(ctx, input.CampaignID, input.RecordID)
			if err != nil {
				if errors.Is(err, store.ErrRecordNotFound) {
					return nil, ManageCampaignOutput{Message: "record not found"}, nil
				}
				return nil, ManageCampaignOutput{}, fmt.Errorf("read failed: %w", err)
			}
			return nil, ManageCampaignOutput{Record: rec}, nil

		case "update":
			if input.RecordID == "" {
				return nil, ManageCampaignOutput{}, errors.New("record_id is required for update")
			}
			rec, err := st.UpdateRecord(ctx, input.CampaignID, input.RecordID, store.RecordUpdate{
				Name:    input.Name,
				Content: input.Data,
				Tags:    input.Tags,
			})
			if err != nil {
				if errors.Is(err, store.ErrRecordNotFound) {
					return nil, ManageCampaignOutput{Message: "record not found"}, nil
				}
				return nil, ManageCampaignOutput{}, fmt.Errorf("update failed: %w", err)
			}
			return nil, ManageCampaignOutput{Record: rec, Message: "record updated"}, nil

		case "delete":
			if input.RecordID == "" {
				return nil, ManageCampaignOutput{}, errors.New("record_id is required for delete")
			}
			if err := st.DeleteRecord(ctx, input.CampaignID, input.RecordID); err != nil {
				if errors.Is(err, store.ErrRecordNotFound) {
					return nil, ManageCampaignOutput{Message: "record not found"}, nil
				}
				return nil, ManageCampaignOutput{}, fmt.Errorf("delete failed: %w", err)
			}
			return nil, ManageCampaignOutput{Message: "record deleted"}, nil

		case "list":
			recs, err := st.Records(ctx, input.CampaignID, input.DataType)
			if err != nil {
				return nil, ManageCampaignOutput{}, fmt.Errorf("list failed: %w", err)
			}
			return nil, ManageCampaignOutput{Records: recs}, nil

		default:
			return nil, ManageCampaignOutput{}, fmt.Errorf("unknown action %q", input.Action)
		}
	}
}

// makePersonalityHandler creates the manage_personality tool handler.
func makePersonalityHandler(mgr *personality.Manager) func(
	context.Context, *mcp.CallToolRequest, ManagePersonalityInput,
) (*mcp.CallToolResult, ManagePersonalityOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ManagePersonalityInput) (
		*mcp.CallToolResult, ManagePersonalityOutput, error,
	) {
		switch input.Action {
		case "list":
			systems, err := mgr.List(ctx)
			if err != nil {
				return nil, ManagePersonalityOutput{}, fmt.Errorf("list failed: %w", err)
			}
			return nil, ManagePersonalityOutput{Systems: systems}, nil

		case "get", "summary", "delete":
			if input.System == "" {
				return nil, ManagePersonalityOutput{}, fmt.Errorf("system is required for %s", input.Action)
			}
		default:
			return nil, ManagePersonalityOutput{}, fmt.Errorf("unknown action %q", input.Action)
		}

		switch input.Action {
		case "get":
			prof, err := mgr.Get(ctx, input.System)
			if err != nil {
				if errors.Is(err, personality.ErrProfileNotFound) {
					return nil, ManagePersonalityOutput{Message: "no profile for system"}, nil
				}
				return nil, ManagePersonalityOutput{}, fmt.Errorf("get failed: %w", err)
			}
			return nil, ManagePersonalityOutput{Profile: prof}, nil

		case "summary":
			prof, err := mgr.Get(ctx, input.System)
			if err != nil {
				if errors.Is(err, personality.ErrProfileNotFound) {
					return nil, ManagePersonalityOutput{Message: "no profile for system"}, nil
				}
				return nil, ManagePersonalityOutput{}, fmt.Errorf("get failed: %w", err)
			}
			sum := prof.Summarize()
			return nil, ManagePersonalityOutput{Summary: &sum}, nil

		default: // delete
			if err := mgr.Delete(ctx, input.System); err != nil {
				return nil, ManagePersonalityOutput{}, fmt.Errorf("delete failed: %w", err)
			}
			return nil, ManagePersonalityOutput{Message: "profile deleted"}, nil
		}
	}
}

// makeStatusHandler creates the get_status tool handler.
func makeStatusHandler(st *store.Store) func(
	context.Context, *mcp.CallToolRequest, GetStatusInput,
) (*mcp.CallToolResult, GetStatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetStatusInput) (
		*mcp.CallToolResult, GetStatusOutput, error,
	) {
		stats, err := st.CorpusStats(ctx)
		if err != nil {
			return nil, GetStatusOutput{}, fmt.Errorf("stats failed: %w", err)
		}
		return nil, GetStatusOutput{Backend: st.Backend().Name(), Stats: stats}, nil
	}
}
