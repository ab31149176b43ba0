/*
Package dialoguetree builds branching dialogue trees as graphs and compiles them into the
two forms a game needs: an authoring form that reopens the editor exactly as it was left,
and a compact runtime form that a playback engine walks.

# Concept

A dialogue tree is a graph of nodes. Each node has one input plug and one output plug per
dialogue option; a connection links an output plug to the input plug of the next node.
Every node carries a dialogue payload (speaker, body, preview text, start flag).

The graph lives in pkg/graph, which keeps nodes, plugs, connections and payloads
referentially consistent (removing a node removes the connections touching it).
pkg/authoring and pkg/compiler turn the graph into flat, versioned token streams.
AssetBuilder ties the pieces together for one asset and a store from pkg/ports.

# Usage

	store := memory.NewStore()
	b := dialoguetree.New("gate-guard", dialoguetree.WithStore(store))

	m := b.Model()
	greet := m.AddNode(domain.Vector2{})
	reply := m.AddNode(domain.Vector2{X: 220})
	option, _ := m.AddOutputPlug(greet)
	_, _ = m.Connect(option, reply)
	_ = m.SetDialogue(domain.DialogueNode{NodeID: greet, Speaker: "Guard", Body: "Halt!"})
	_ = m.SetStartNode(greet)

	asset, err := b.Save(ctx)
	if err != nil {
		log.Fatal(err)
	}

	// Playback side: no graph, only the runtime view.
	view, err := dialoguetree.LoadRuntime(asset)

For building trees in code, see pkg/dsl.
*/
package dialoguetree
