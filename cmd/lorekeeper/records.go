package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmcastell/lorekeeper/internal/store"
)

var (
	flagDataType string
	flagData     string
	flagName     string
	flagTags     []string
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage versioned campaign records",
}

var campaignCreateCmd = &cobra.Command{
	Use:   "create <campaign-id>",
	Short: "Create a campaign record",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignCreate,
}

var campaignListCmd = &cobra.Command{
	Use:   "list <campaign-id>",
	Short: "List campaign records",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignList,
}

var campaignGetCmd = &cobra.Command{
	Use:   "get <campaign-id> <record-id>",
	Short: "Show one campaign record",
	Args:  cobra.ExactArgs(2),
	RunE:  runCampaignGet,
}

var campaignUpdateCmd = &cobra.Command{
	Use:   "update <campaign-id> <record-id>",
	Short: "Update a campaign record (bumps its version)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCampaignUpdate,
}

var campaignDeleteCmd = &cobra.Command{
	Use:   "delete <campaign-id> <record-id>",
	Short: "Delete a campaign record",
	Args:  cobra.ExactArgs(2),
	RunE:  runCampaignDelete,
}

var personalityCmd = &cobra.Command{
	Use:   "personality",
	Short: "Manage per-system personality profiles",
}

var personalityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List systems with a stored profile",
	RunE:  runPersonalityList,
}

var personalityShowCmd = &cobra.Command{
	Use:   "show <system>",
	Short: "Show a system's personality profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonalityShow,
}

var personalityDeleteCmd = &cobra.Command{
	Use:   "delete <system>",
	Short: "Delete a system's personality profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonalityDelete,
}

func init() {
	campaignCreateCmd.Flags().StringVar(&flagDataType, "type", "", "record data type, e.g. character, npc, location (required)")
	campaignCreateCmd.Flags().StringVar(&flagData, "data", "{}", "record payload as a JSON object")
	campaignCreateCmd.MarkFlagRequired("type")

	campaignListCmd.Flags().StringVar(&flagDataType, "type", "", "restrict to one record data type")

	campaignUpdateCmd.Flags().StringVar(&flagData, "data", "", "fields to merge into the record, as a JSON object")
	campaignUpdateCmd.Flags().StringVar(&flagName, "name", "", "replacement display name")
	campaignUpdateCmd.Flags().StringSliceVar(&flagTags, "tags", nil, "replacement tags")

	campaignCmd.AddCommand(campaignCreateCmd, campaignListCmd, campaignGetCmd, campaignUpdateCmd, campaignDeleteCmd)
	personalityCmd.AddCommand(personalityListCmd, personalityShowCmd, personalityDeleteCmd)
}

func parseData(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("invalid --data JSON: %w", err)
	}
	return data, nil
}

func runCampaignCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	data, err := parseData(flagData)
	if err != nil {
		return err
	}

	rec, err := d.store.CreateRecord(ctx, args[0], flagDataType, data)
	if err != nil {
		return fmt.Errorf("create failed: %w", err)
	}
	fmt.Printf("Created %s record %s (version %d)\n", rec.DataType, rec.ID, rec.Version)
	return nil
}

func runCampaignList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	recs, err := d.store.Records(ctx, args[0], flagDataType)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}
	if len(recs) == 0 {
		fmt.Println("No records found.")
		return nil
	}
	for _, rec := range recs {
		name := rec.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("%s  %-10s  v%d  %s\n", rec.ID, rec.DataType, rec.Version, name)
	}
	return nil
}

func runCampaignGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	rec, err := d.store.GetRecord(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runCampaignUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	data, err := parseData(flagData)
	if err != nil {
		return err
	}

	rec, err := d.store.UpdateRecord(ctx, args[0], args[1], store.RecordUpdate{
		Name:    flagName,
		Content: data,
		Tags:    flagTags,
	})
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	fmt.Printf("Updated record %s to version %d\n", rec.ID, rec.Version)
	return nil
}

func runCampaignDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	if err := d.store.DeleteRecord(ctx, args[0], args[1]); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Printf("Deleted record %s\n", args[1])
	return nil
}

func runPersonalityList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	systems, err := d.personalities.List(ctx)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}
	if len(systems) == 0 {
		fmt.Println("No personality profiles stored.")
		return nil
	}
	for _, s := range systems {
		fmt.Println(s)
	}
	return nil
}

func runPersonalityShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	prof, err := d.personalities.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}
	out, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runPersonalityDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	if err := d.personalities.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Printf("Deleted profile for %s\n", args[0])
	return nil
}
