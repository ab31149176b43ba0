/*
Package domain contains the core entities of a dialogue tree.

It defines the authoring-time graph (Nodes with one input Plug and any number of output
Plugs, and Connections wiring an output plug to an input plug), the narrative payload
attached 1:1 to every node (DialogueNode), and the persisted Asset that carries both
serialized forms. This package is kept pure and free of I/O.

# Key Entities

  - Node: an authoring-time dialogue step with a position and a plug layout.
  - Plug: a typed connection point (input or output) owned by exactly one node.
  - Connection: a directed edge from an output plug to an input plug.
  - DialogueNode: speaker, body and preview text, plus the start flag and derived branch data.
  - Asset: the authoring blob and the runtime blob saved together.
*/
package domain
