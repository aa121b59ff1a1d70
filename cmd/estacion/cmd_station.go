package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

var stationCmd = &cobra.Command{
	Use:   "station",
	Short: "Station management commands",
	Long:  `Commands for managing weather stations.`,
}

var listStationsCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered stations",
	RunE:  runListStations,
}

var createStationCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new station",
	RunE:  runCreateStation,
}

var deleteStationCmd = &cobra.Command{
	Use:   "delete <station-id>",
	Short: "Delete a station and all of its readings",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteStation,
}

var stationCreateFlags struct {
	name        string
	location    string
	latitude    float64
	longitude   float64
	description string
}

func init() {
	rootCmd.AddCommand(stationCmd)
	stationCmd.AddCommand(listStationsCmd)
	stationCmd.AddCommand(createStationCmd)
	stationCmd.AddCommand(deleteStationCmd)

	createStationCmd.Flags().StringVar(&stationCreateFlags.name, "name", "", "station name")
	createStationCmd.Flags().StringVar(&stationCreateFlags.location, "location", "", "human-readable location")
	createStationCmd.Flags().Float64Var(&stationCreateFlags.latitude, "lat", 0, "latitude")
	createStationCmd.Flags().Float64Var(&stationCreateFlags.longitude, "lon", 0, "longitude")
	createStationCmd.Flags().StringVar(&stationCreateFlags.description, "description", "", "optional description")
	createStationCmd.MarkFlagRequired("name")
	createStationCmd.MarkFlagRequired("location")
}

func runListStations(cmd *cobra.Command, args []string) error {
	a := appFromContext(cmd.Context())

	stations, err := a.dbManager.ListStations(cmd.Context(), models.StationListFilter{Limit: 1000})
	if err != nil {
		return fmt.Errorf("failed to list stations: %w", err)
	}

	if len(stations) == 0 {
		fmt.Println("No stations registered.")
		return nil
	}

	for _, s := range stations {
		state := "inactive"
		if s.Active {
			state = "active"
		}
		fmt.Printf("%s  %-20s  %-8s  %s\n", s.ID, s.Name, state, s.Location)
	}

	return nil
}

func runDeleteStation(cmd *cobra.Command, args []string) error {
	a := appFromContext(cmd.Context())

	stationID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid station id: %w", err)
	}

	if err := a.dbManager.DeleteStation(cmd.Context(), stationID); err != nil {
		return fmt.Errorf("failed to delete station: %w", err)
	}

	fmt.Printf("Station %s deleted.\n", stationID)
	return nil
}

func runCreateStation(cmd *cobra.Command, args []string) error {
	a := appFromContext(cmd.Context())

	create := models.StationCreate{
		Name:      stationCreateFlags.name,
		Location:  stationCreateFlags.location,
		Latitude:  stationCreateFlags.latitude,
		Longitude: stationCreateFlags.longitude,
	}
	if stationCreateFlags.description != "" {
		create.Description = &stationCreateFlags.description
	}

	if err := models.Validate(create); err != nil {
		return fmt.Errorf("invalid station: %w", err)
	}

	station, err := a.dbManager.CreateStation(cmd.Context(), create)
	if err != nil {
		return fmt.Errorf("failed to create station: %w", err)
	}

	fmt.Printf("Station created successfully!\n")
	fmt.Printf("ID: %s\n", station.ID)
	fmt.Printf("Name: %s\n", station.Name)

	return nil
}
