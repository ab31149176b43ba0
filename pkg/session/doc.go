/*
Package session serializes authoring sessions on dialogue assets.

A dialogue graph is edited by one authoring session at a time. Manager enforces that
for the outer surfaces (HTTP, MCP) where several requests may target the same asset:
every operation on an asset id runs under a per-id mutex, and optionally under a
distributed lock so replicas sharing a store do not interleave read-modify-write cycles.
*/
package session
