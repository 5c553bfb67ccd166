/*
Package ports defines the driven ports (interfaces) of the liveslides runtime.

These interfaces decouple the runtime from the real-time store, the analytics
vendor and the host environment, so the same participant logic runs against
Redis, an in-memory store or a test double.

# Key Interfaces

  - DocumentStore: named mutable JSON documents with change notifications.
  - StreamStore: append-only publish/subscribe channels of JSON messages.
  - MapStore: string-keyed maps, used for the presentation catalog.
  - ConnectionMonitor: connectivity signal of the underlying store.
  - Analytics and URLOpener: the side effects of the action pipeline.
  - DeckSource: read-only sources of presentation files (e.g. a Loam vault).
  - DistributedLocker: serialises presenter writes across replicas.
*/
package ports
