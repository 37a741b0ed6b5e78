package ack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcknowledgeFirstStartsTimeout(t *testing.T) {
	c := New()
	res := c.Acknowledge("ROOM01", "p1", []string{"p1", "p2", "p3"})
	require.True(t, res.First)
	require.False(t, res.Duplicate)
	require.Equal(t, 1, res.AcknowledgedCount)
	require.Equal(t, 3, res.TotalCount)
	require.ElementsMatch(t, []string{"p2", "p3"}, res.Outstanding)
	require.False(t, res.AllAcked)
}

func TestAcknowledgeAllConnectedAdvances(t *testing.T) {
	c := New()
	c.Acknowledge("ROOM01", "p1", []string{"p1", "p2"})
	res := c.Acknowledge("ROOM01", "p2", []string{"p1", "p2"})
	require.False(t, res.First)
	require.True(t, res.AllAcked)
	require.Empty(t, res.Outstanding)
}

func TestAcknowledgeDuplicateIsNoOp(t *testing.T) {
	c := New()
	c.Acknowledge("ROOM01", "p1", []string{"p1", "p2"})
	res := c.Acknowledge("ROOM01", "p1", []string{"p1", "p2"})
	require.True(t, res.Duplicate)
	require.Equal(t, 1, res.AcknowledgedCount)
	require.False(t, res.AllAcked)
}

func TestDisconnectedPlayersNeverBlockProgression(t *testing.T) {
	c := New()
	// p3 is disconnected and so is absent from connectedIDs entirely.
	res := c.Acknowledge("ROOM01", "p2", []string{"p1", "p2"})
	require.False(t, res.AllAcked)
	res = c.Acknowledge("ROOM01", "p1", []string{"p1", "p2"})
	require.True(t, res.AllAcked)
}

func TestResetClearsAckSet(t *testing.T) {
	c := New()
	c.Acknowledge("ROOM01", "p1", []string{"p1", "p2"})
	c.Reset("ROOM01")
	res := c.Outstanding("ROOM01", []string{"p1", "p2"})
	require.Equal(t, 0, res.AcknowledgedCount)
	require.ElementsMatch(t, []string{"p1", "p2"}, res.Outstanding)
}
