package main

import (
	"context"
	"fmt"

	"github.com/lexlapax/atlas/pkg/arch"
	"github.com/lexlapax/atlas/pkg/atlas"
	"github.com/lexlapax/atlas/pkg/memory"
)

// runDemo runs the scripted demo: a baseline prompt, architecture setup,
// then the same prompt and a follow-up with full context.
func runDemo(ctx context.Context, a *atlas.Atlas) error {
	fmt.Println("\n=== Atlas Demo Sequence ===")

	samplePrompt := "We are building a payment processing service. Create a Node.js API with Stripe integration."
	if err := executePrompt(ctx, a, samplePrompt, atlas.Options{Mode: memory.ModeBaseline}); err != nil {
		return err
	}

	nodes := []struct {
		name, description string
	}{
		{"API Gateway", "Routes HTTP requests and enforces auth."},
		{"Payment Service", "Handles Stripe charges and retries."},
		{"Webhook Handler", "Processes Stripe webhook payloads."},
	}
	graph := a.Arch().Snapshot()
	for _, node := range nodes {
		if graph.HasNode(node.name) {
			continue
		}
		if err := a.Arch().AddNode(node.name, arch.NodeTypeService, node.description); err != nil {
			return err
		}
	}
	if len(graph.Edges) == 0 {
		if err := a.Arch().AddEdge("API Gateway", "Payment Service", "routes to"); err != nil {
			return err
		}
		if err := a.Arch().AddEdge("Payment Service", "Webhook Handler", "notifies"); err != nil {
			return err
		}
	}

	if err := executePrompt(ctx, a, samplePrompt, atlas.Options{
		Note: "Initial payment service setup",
		Tags: []string{"architecture"},
	}); err != nil {
		return err
	}

	return executePrompt(ctx, a, "Why did we choose async webhooks?", atlas.Options{
		Note: "Clarify webhook decision",
		Tags: []string{"reasoning"},
	})
}
