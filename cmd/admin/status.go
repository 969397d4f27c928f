package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/service"
	"github.com/spf13/cobra"
)

var statusRestaurant string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a restaurant's subscription status as JSON",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusRestaurant, "restaurant", "", "restaurant ID")
	_ = statusCmd.MarkFlagRequired("restaurant")
}

func runStatus(cmd *cobra.Command, args []string) error {
	restaurantID, err := uuid.Parse(statusRestaurant)
	if err != nil {
		return fmt.Errorf("invalid restaurant ID: %w", err)
	}

	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Status reads only from the store; no gateway needed.
	subs := service.NewSubscriptionService(database.New(pool), nil, nil, service.BillingURLs{}, 0)
	info, err := subs.Status(ctx, restaurantID, false)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
