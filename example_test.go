package dialoguetree_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/dialoguetree"
	"github.com/aretw0/dialoguetree/pkg/adapters/memory"
	"github.com/aretw0/dialoguetree/pkg/domain"
)

// ExampleAssetBuilder builds a two-line dialogue, saves it and reads back the runtime view.
func ExampleAssetBuilder() {
	ctx := context.Background()
	b := dialoguetree.New("gate-guard", dialoguetree.WithStore(memory.NewStore()))

	m := b.Model()
	greet := m.AddNode(domain.Vector2{})
	reply := m.AddNode(domain.Vector2{X: 220})
	option, _ := m.AddOutputPlug(greet)
	if _, err := m.Connect(option, reply); err != nil {
		log.Fatal(err)
	}
	_ = m.SetDialogue(domain.DialogueNode{NodeID: greet, Speaker: "Guard", Body: "Halt!"})
	_ = m.SetDialogue(domain.DialogueNode{NodeID: reply, Speaker: "Hero", Body: "A friend.", Preview: "Friend"})
	_ = m.SetStartNode(greet)

	asset, err := b.Save(ctx)
	if err != nil {
		log.Fatal(err)
	}

	view, err := dialoguetree.LoadRuntime(asset)
	if err != nil {
		log.Fatal(err)
	}

	start, _ := view.Start()
	fmt.Printf("%s: %s\n", start.Speaker, start.Body)
	for _, next := range start.NextNodeIDs {
		e, _ := view.Entry(next)
		fmt.Printf("  > %s\n", e.Preview)
	}
	// Output:
	// Guard: Halt!
	//   > Friend
}
