package compiler

import (
	"testing"
	"time"

	"github.com/aretw0/dialoguetree/pkg/authoring"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackage(t *testing.T) {
	m := graph.New()
	n1 := m.AddNode(domain.Vector2{X: 10})
	n2 := m.AddNode(domain.Vector2{X: 200})
	p, _ := m.AddOutputPlug(n1)
	_, err := m.Connect(p, n2)
	require.NoError(t, err)
	require.NoError(t, m.SetStartNode(n1))

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	asset := Package("intro", m, at)

	assert.Equal(t, "intro", asset.ID)
	assert.Equal(t, at, asset.UpdatedAt)
	assert.Equal(t, authoring.Encode(m), asset.AuthoringData)

	v, err := Decode(asset.RuntimeData)
	require.NoError(t, err)
	assert.Equal(t, n1, v.StartNodeID)
	e, _ := v.Entry(n1)
	assert.Equal(t, []int{n2}, e.NextNodeIDs)

	// The authoring half reopens into an equivalent model.
	back, err := authoring.Decode(asset.AuthoringData)
	require.NoError(t, err)
	assert.Equal(t, asset.AuthoringData, authoring.Encode(back))
}
