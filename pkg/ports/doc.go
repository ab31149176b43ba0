/*
Package ports defines the driven ports (interfaces) for dialogue asset persistence.

These interfaces decouple the asset builder and the outer surfaces (CLI, HTTP, MCP) from
the storage backends, so a dialogue tree can be kept in memory, on disk, in Redis, in
PostgreSQL or in a read-only document library.

# Key Interfaces

  - AssetLoader: Loads saved assets and lists their ids.
  - AssetStore: An AssetLoader that can also save and delete assets.
  - CompileObserver: Receives the outcome of every compile (used for metrics).
*/
package ports
