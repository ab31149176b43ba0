/*
Package graph implements the relational core of a dialogue tree: the Model.

The Model owns every Node, Plug, Connection and DialogueNode and is the only way to
create or destroy them, so that id uniqueness and cascading deletes are enforced in one
place:

  - Removing a node first removes every connection touching it, then its dialogue entry,
    then the node itself.
  - Removing an output plug first removes every connection leaving it, then shrinks the
    node's dimension.

Ids come from a counter owned by the Model. Codecs rebuild a Model through the Insert*
methods, which keep the ids found in the stream and advance the counter past them.

All collections are kept in insertion order, so iteration (and therefore encoding and
branch derivation) is deterministic. A Model is not safe for concurrent mutation; it is
edited by one authoring session at a time.
*/
package graph
