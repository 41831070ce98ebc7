package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"tryon-widget-be/pkg/fitengine"
)

// Drives a running service end to end the way the widget does: submit a
// session, poll it to a terminal state, then exercise the optimistic
// mutations against the stored result.

type toastPrinter struct{}

func (toastPrinter) Notify(message string) {
	color.Yellow("  [toast] %s", message)
}

func main() {
	baseURL := flag.String("url", "http://localhost:3000", "service base URL")
	retailerId := flag.String("retailer", "", "retailer UUID to attribute the session to")
	photoURL := flag.String("photo", "https://example.com/shopper.jpg", "photo URL to submit")
	token := flag.String("token", "", "optional widget bearer token")
	flag.Parse()

	if *retailerId == "" {
		color.Red("A -retailer UUID is required")
		os.Exit(1)
	}

	client := fitengine.NewHTTPClient(*baseURL, func() string { return *token })

	color.Cyan("=== Try-on flow simulation against %s ===", *baseURL)

	done := make(chan fitengine.FlowEvent, 8)
	submitter := fitengine.NewSubmitter(client)
	poller := fitengine.NewPoller(client)
	flow := fitengine.NewFlow(submitter, poller, func(ev fitengine.FlowEvent) {
		switch ev.State {
		case fitengine.FlowSubmitting:
			color.White("-> submitting...")
		case fitengine.FlowPolling:
			color.White("-> polling session %s", ev.SessionId)
		default:
			done <- ev
		}
	})
	defer flow.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err := flow.Begin(ctx, fitengine.CreateRequest{
		PhotoURL:   *photoURL,
		Products:   []fitengine.ProductRef{{Id: "sim-product-1", Name: "Simulated jacket"}},
		RetailerId: *retailerId,
		Guest:      *token == "",
	})
	if err != nil {
		color.Red("Submission failed: %v", err)
		os.Exit(1)
	}

	ev := <-done
	switch ev.State {
	case fitengine.FlowResultReady:
		color.Green("Result ready: %s", ev.ResultURL)
	case fitengine.FlowFailed:
		color.Red("Session failed: %s", ev.Message)
		os.Exit(1)
	case fitengine.FlowTimedOut:
		color.Yellow("Timed out: %s", ev.Message)
		os.Exit(0)
	}

	// Mutations against the finished session.
	store := fitengine.NewSessionStore()
	store.Put(&fitengine.Session{
		Id:        ev.SessionId,
		Status:    fitengine.StatusCompleted,
		ResultURL: ev.ResultURL,
	})
	coord := fitengine.NewCoordinator(store, client, toastPrinter{})

	step("toggle favorite on", coord.ToggleFavorite(ctx, ev.SessionId))
	step("toggle favorite off", coord.ToggleFavorite(ctx, ev.SessionId))
	step("record feedback", coord.RecordFeedback(ctx, ev.SessionId, true, "Looks great in the simulation"))
	step("delete session", coord.Delete(ctx, ev.SessionId))

	color.Cyan("=== Done ===")
}

func step(name string, err error) {
	if err != nil {
		color.Red("  %-22s FAILED: %v", name, err)
		return
	}
	fmt.Printf("  %-22s ", name)
	color.Green("OK")
}
