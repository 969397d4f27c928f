package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/enum"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var planFile string

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Manage the plan catalog",
}

var plansSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upsert the plan catalog from a YAML file",
	Long: `Upsert every plan listed in the YAML file, keyed by stripe_price_id.

Plans missing from the file are left as they are; set active: false to
retire one.`,
	RunE: runPlansSync,
}

func init() {
	plansSyncCmd.Flags().StringVar(&planFile, "file", "plans.yaml", "path to the plan catalog")
	plansCmd.AddCommand(plansSyncCmd)
}

type planCatalog struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	Name          string         `yaml:"name"`
	StripePriceID string         `yaml:"stripe_price_id"`
	Amount        string         `yaml:"amount"`
	Currency      string         `yaml:"currency"`
	Interval      string         `yaml:"interval"`
	Features      map[string]any `yaml:"features"`
	SortOrder     int32          `yaml:"sort_order"`
	Active        *bool          `yaml:"active"`
}

// parseCatalog decodes and validates a plan catalog.
func parseCatalog(data []byte) ([]database.UpsertPlanParams, error) {
	var catalog planCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(catalog.Plans) == 0 {
		return nil, errors.New("catalog lists no plans")
	}

	seen := make(map[string]bool, len(catalog.Plans))
	params := make([]database.UpsertPlanParams, 0, len(catalog.Plans))
	for i, p := range catalog.Plans {
		if p.Name == "" || p.StripePriceID == "" {
			return nil, fmt.Errorf("plan %d: name and stripe_price_id are required", i)
		}
		if seen[p.StripePriceID] {
			return nil, fmt.Errorf("plan %q: duplicate stripe_price_id %s", p.Name, p.StripePriceID)
		}
		seen[p.StripePriceID] = true

		amount, err := decimal.NewFromString(p.Amount)
		if err != nil || amount.IsNegative() {
			return nil, fmt.Errorf("plan %q: invalid amount %q", p.Name, p.Amount)
		}

		interval := strings.ToLower(p.Interval)
		if interval == "" {
			interval = enum.BillingIntervalMonth
		}
		if interval != enum.BillingIntervalMonth && interval != enum.BillingIntervalYear {
			return nil, fmt.Errorf("plan %q: interval must be month or year", p.Name)
		}

		featureType, _ := p.Features["type"].(string)
		if featureType != enum.PlanFeatureEditor && featureType != enum.PlanFeatureDesign {
			return nil, fmt.Errorf("plan %q: features.type must be %s or %s", p.Name, enum.PlanFeatureEditor, enum.PlanFeatureDesign)
		}
		features, err := json.Marshal(p.Features)
		if err != nil {
			return nil, fmt.Errorf("plan %q: encode features: %w", p.Name, err)
		}

		currency := strings.ToLower(p.Currency)
		if currency == "" {
			currency = "usd"
		}

		active := true
		if p.Active != nil {
			active = *p.Active
		}

		params = append(params, database.UpsertPlanParams{
			Name:            p.Name,
			StripePriceID:   p.StripePriceID,
			Amount:          database.DecimalToNumeric(amount),
			Currency:        currency,
			BillingInterval: interval,
			Features:        features,
			SortOrder:       p.SortOrder,
			IsActive:        active,
		})
	}
	return params, nil
}

func runPlansSync(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(planFile)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	params, err := parseCatalog(data)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	q := database.New(tx)
	for _, p := range params {
		plan, err := q.UpsertPlan(ctx, p)
		if err != nil {
			return fmt.Errorf("upsert plan %q: %w", p.Name, err)
		}
		logger.Info("plan synced",
			zap.String("id", plan.ID.String()),
			zap.String("name", plan.Name),
			zap.Bool("active", plan.IsActive))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Info("plan catalog synced", zap.Int("plans", len(params)))
	return nil
}
