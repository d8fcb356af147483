/*
Package vaultguard is a simulation engine for an AI guard of DeFi vaults ("Super Eliza").

It resolves named protection actions into results and metric changes, answers chat
messages by keyword intent, and raises proactive alerts when the live risk score or
loan-to-value ratio of a session crosses a threshold. Every outcome is simulated:
nothing here talks to a chain or an oracle.

# Concept

A session carries the dashboard state of one user: agent status, step counter,
vault metrics, the recommended next action and an audit trail. The engine is
stateless; the session Manager serializes every mutation of a session and owns the
auto-action countdowns that follow critical results and alerts.

The adapters expose the same operations over HTTP (pkg/adapters/http), the Model
Context Protocol (pkg/adapters/mcp) and an interactive terminal (pkg/runner).
Sessions live in memory or in Redis.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/vaultguard"
	)

	func main() {
		guard := vaultguard.New()
		defer guard.Close()

		ctx := context.Background()
		if _, err := guard.Start(ctx, "demo"); err != nil {
			log.Fatal(err)
		}

		reply, err := guard.Chat(ctx, "demo", "connect my wallet")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(reply.Turn.ResponseText)
		if reply.Result != nil {
			fmt.Println(reply.Result.Message)
		}
	}
*/
package vaultguard
