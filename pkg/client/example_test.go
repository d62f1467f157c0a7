package client_test

import (
	"context"
	"fmt"
	"log"

	"github.com/toolbridge-io/toolbridge/pkg/client"
)

// Example demonstrates basic usage of the ToolBridge client
func Example() {
	// Create a new client with a platform-issued token
	c := client.NewClient(client.Config{
		BaseURL: "https://api.toolbridge.io",
	})
	c.SetToken("platform-issued-jwt")

	ctx := context.Background()

	// List integrations
	integrations, err := c.Integrations().List(ctx, nil)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Found %d integrations\n", integrations.TotalItems)
}

// ExampleDriftService_List demonstrates listing drift records with filters
func ExampleDriftService_List() {
	c := client.NewClient(client.Config{
		BaseURL: "https://api.toolbridge.io",
	})
	c.SetToken("platform-issued-jwt")

	severity := "breaking"
	resolved := false

	drifts, err := c.Drifts().List(context.Background(), "integration-id", &client.DriftListOptions{
		ListOptions: client.ListOptions{
			Page:     1,
			PageSize: 20,
		},
		Severity: &severity,
		Resolved: &resolved,
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, d := range drifts.Data {
		fmt.Printf("%s %s.%s (%s)\n", d.Severity, d.Action, d.FieldPath, d.ChangeKind)
	}
}

// ExampleMaintenanceService_Generate demonstrates the proposal review flow
func ExampleMaintenanceService_Generate() {
	c := client.NewClient(client.Config{
		BaseURL: "https://api.toolbridge.io",
	})
	c.SetToken("platform-issued-jwt")

	ctx := context.Background()

	// Bundle unresolved drift into a proposal
	p, err := c.Maintenance().Generate(ctx, "integration-id")
	if err != nil {
		log.Fatal(err)
	}

	// Approve it, applying the schema changes
	approved, err := c.Maintenance().Approve(ctx, "integration-id", p.ID)
	if err != nil {
		log.Fatal(err)
	}

	// Accept the suggested description for one affected tool
	_, err = c.Maintenance().DecideDescriptions(ctx, "integration-id", approved.ID, []client.DescriptionDecision{
		{ToolID: approved.AffectedToolIDs[0], Accept: true},
	})
	if err != nil {
		log.Fatal(err)
	}
}
