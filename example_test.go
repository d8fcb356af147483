package vaultguard_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/vaultguard"
	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/pkg/ports"
)

// ExampleNew runs a session through the first two steps of the dashboard flow.
// Scripted randomness and no simulated latency make the output reproducible.
func ExampleNew() {
	guard := vaultguard.New(vaultguard.WithEngineOptions(
		engine.WithRandom(ports.Sequence(0.9)),
		engine.WithWaiter(ports.NoWait),
	))
	defer guard.Close()

	ctx := context.Background()
	if _, err := guard.Start(ctx, "demo"); err != nil {
		log.Fatal(err)
	}

	result, err := guard.Dispatch(ctx, "demo", "Connect Wallet")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(result.Severity, result.FollowUp())

	session, err := guard.Manager().Load(ctx, "demo")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(session.Step, session.Connected, session.VaultsDetected)

	// Output:
	// success Scan Vault
	// 1 true 3
}

// ExampleGuard_Check evaluates raw metrics without a session.
func ExampleGuard_Check() {
	guard := vaultguard.New(vaultguard.WithEngineOptions(engine.WithWaiter(ports.NoWait)))
	defer guard.Close()

	alert, triggered, err := guard.Check(context.Background(), 92, 40)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(triggered, alert.Urgency, alert.AutoAction)

	// Output:
	// true critical Activate Anti-Liquidation
}
