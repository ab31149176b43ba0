/*
Package compiler derives the runtime form of a dialogue tree from its graph.

The runtime form keeps only what a playback engine needs: for every dialogue entry its
text, whether it branches, and the ordered list of node ids it leads to, plus the id of
the start node. It is a pure function of the graph.Model and is recomputed wholesale on
every save; it is never edited directly.

Branch order is the insertion order of the source node's output plugs, so the order in
which the author added dialogue options is the order in which playback presents them.

The runtime stream has the layout (after the format tag):

	node_count {node_id speaker body preview is_branching next_count {next_node_id}*}* start_node_id
*/
package compiler
