/*
Package runner drives a presentation participant from a terminal.

It renders every view change of the participant through a pluggable
IOHandler and turns input lines into commands: an option number or value
answers the current slide, key=value pairs submit an Identify form, "r"
reloads after a connection loss and "q" quits.

# Key Components

  - Runner: the loop that merges view changes and user input.
  - IOHandler: decouples presentation (Text, JSON) from the loop.
  - ConfirmOpener: asks before a URL action opens anything.

# Usage

	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)))
	p := rt.NewParticipant(rt.ParticipantConfig{
		Store:    store,
		Code:     code,
		Identity: runner.NewIdentity(),
		Opener:   r.ConfirmOpener(process.NewOpener(process.WithSystemBrowser())),
	})
	if err := p.Start(ctx); err != nil {
		log.Fatal(err)
	}
	if err := r.Run(ctx, p); err != nil {
		log.Fatal(err)
	}
*/
package runner
