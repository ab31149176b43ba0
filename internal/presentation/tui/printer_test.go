package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/dialoguetree/pkg/compiler"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestPrinter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	assert.False(t, p.Styled())

	v := &compiler.View{
		StartNodeID: 1,
		Entries: []domain.DialogueNode{
			{NodeID: 1, Speaker: "Guard", Body: "Halt!\nWho goes there?", IsBranching: true, NextNodeIDs: []int{2, 3}},
			{NodeID: 2, Speaker: "Hero", Preview: "Friend"},
			{NodeID: 3, Preview: "Foe"},
			{NodeID: 4, Body: "lost"},
		},
	}
	p.PrintView(v)

	out := buf.String()
	assert.Contains(t, out, "▶ #1 Guard\n")
	assert.Contains(t, out, "    Halt!\n    Who goes there?\n")
	assert.Contains(t, out, "    → #2 Friend\n")
	assert.Contains(t, out, "    → #3 Foe\n")
	assert.Contains(t, out, "• #3 (narrator)\n")
	assert.Contains(t, out, "unreachable: [4]")
	assert.Contains(t, out, "dialogue ends at: [2 3]")
	assert.NotContains(t, out, "\x1b[", "no escape codes outside a terminal")
}

func TestPrinter_ReportOK(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintReport(compiler.Report{DeadEnds: []int{2}})
	assert.Contains(t, buf.String(), "every line is reachable")
}

func TestPrinter_MissingStart(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintReport(compiler.Report{MissingStart: true, Unreachable: []int{1}})
	assert.Contains(t, buf.String(), "no start node")
	assert.NotContains(t, buf.String(), "unreachable")
}

func TestPrinter_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintModelSummary("intro", 3, 2, domain.NoNode)
	p.PrintModelSummary("intro", 3, 2, 7)
	assert.Equal(t, "intro: 3 nodes, 2 connections, start none\nintro: 3 nodes, 2 connections, start #7\n", buf.String())
}

func TestPrinter_BannerSilentWhenPlain(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintBanner()
	assert.Empty(t, buf.String())

	printBanner(&buf, termenv.Ascii)
	assert.Contains(t, buf.String(), "|___/")
}
