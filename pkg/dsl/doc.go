/*
Package dsl provides a Go DSL for building presentations programmatically.

It lets tests and hosts define decks with a type-safe, fluent builder instead
of JSON or YAML files. Build validates the result with the same rules as the
catalog.

Example usage:

	deck := dsl.New("Launch")

	deck.Question("Q1", "Ready?").
		Option("Yes").Value("yes").Primary().Tally("Yes").GoTo("END")

	deck.Identify("ID", "Who are you?").
		OnSubmit().Identify(map[string]any{"email": "${email}"}).GoTo("END")

	deck.Ended("END", "Thanks")

	p, err := deck.Build()
*/
package dsl
