/*
Package liveslides is a live presentation runtime: a presenter drives a deck
of interactive slides and every connected participant follows along,
answering questions whose results are tallied in real time.

The shared state of a presentation lives in a document store (in memory or
Redis). The presenter writes the current slide id; each participant resolves
it against the deck and runs the action pipeline of the option it picks
(navigate, track, identify, publish a response, open a URL, record a vote).

# Key Features

  - One source of truth: participants only ever read the Current-State
    document, so late joiners and reconnects land on the right slide.
  - Ordered, fault-tolerant pipelines: a failing action is reported and the
    rest of the pipeline still runs.
  - Pluggable stores: in-memory for tests and demos, Redis for production.
  - Surfaces: HTTP (REST, SSE, WebSocket), MCP and a terminal client.

# Usage

	app, err := liveslides.New(ctx, config.New())
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	if err := app.Catalog.Put(ctx, "AB23", deck); err != nil {
		log.Fatal(err)
	}

	p := app.Participant("AB23", runner.NewIdentity(), opener)
	if err := p.Start(ctx); err != nil {
		log.Fatal(err)
	}
	for view := range p.Watch(ctx) {
		log.Println("now showing", view.Phase, view.SlideID())
	}
*/
package liveslides
