/*
Package dsl provides a fluent builder for constructing dialogue trees in Go code.

Lines are declared by label; labels are resolved to node ids when the tree is built, so
lines may refer to lines declared later. Each target passed to Go becomes one output plug
(one dialogue option) connected to the target's input plug, in the order given.

Example usage:

	b := dsl.New()

	b.Line("greet").
		Say("Guard", "Halt! Who goes there?").
		Start().
		Go("friend", "foe")

	b.Line("friend").
		Say("Hero", "A friend.").
		Preview("Friend")

	b.Line("foe").
		Say("Hero", "Your worst nightmare.").
		Preview("Foe")

	tree, err := b.Build()
	if err != nil {
		// handle unknown labels or several start lines
	}
	stream := authoring.Encode(tree.Model)
*/
package dsl
