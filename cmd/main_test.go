package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_GathersRuntimeMetrics(t *testing.T) {
	families, err := newRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["go_goroutines"])
}

func TestNewServer(t *testing.T) {
	handler := http.NewServeMux()
	server := newServer("9090", handler, time.Minute)

	assert.Equal(t, ":9090", server.Addr)
	assert.Equal(t, handler, server.Handler)
	assert.Greater(t, server.WriteTimeout, time.Minute)
	assert.NotZero(t, server.ReadHeaderTimeout)
}

func TestServe_ShutsDownWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := newServer("0", http.NewServeMux(), time.Second)

	done := make(chan error, 1)
	go func() { done <- serve(ctx, server) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServe_ListenError(t *testing.T) {
	server := newServer("-1", http.NewServeMux(), time.Second)
	err := serve(context.Background(), server)
	assert.Error(t, err)
}
