/*
Package domain contains the core data model of the presentation runtime.

It defines the declarative presentation document (slides, options and the
actions attached to them), the shared Current-State document, the response
events published to a presentation's stream and the phases a participant's
view moves through. The package is kept free of I/O so it can be shared by
every adapter.

# Key Entities

  - Presentation: a title plus an ordered list of Slides.
  - Slide: one node of the navigation graph, tagged by SlideKind.
  - Action: a closed set of side-effecting instructions (Slide, Track,
    Identify, Stream, URL, Tally) executed in order by the runtime.
  - CurrentState: the presenter-owned pointer to the active slide.
  - ResponseEvent: an append-only message published by an audience client.
*/
package domain
