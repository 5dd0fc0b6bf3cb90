package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/KAsare1/Postly-server/service/cache"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()
	for _, path := range [][]string{
		{"serve"},
		{"migrate"},
		{"clear-db"},
		{"group", "create"},
		{"group", "delete"},
		{"group", "list"},
		{"user", "delete"},
		{"cache", "flush"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	create, _, err := root.Find([]string{"group", "create"})
	require.NoError(t, err)
	for _, name := range []string{titleFlag, slugFlag, descriptionFlag} {
		assert.NotNil(t, create.Flags().Lookup(name), name)
	}
}

func TestGroupCreateNeedsTitle(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"group", "create"})
	root.SetOut(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--title")
}

func TestClearDBCanBeCancelled(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetArgs([]string{"clear-db"})
	root.SetIn(strings.NewReader("no\n"))
	root.SetOut(&out)
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "cancelled")
}

func TestCacheFlushRefusesMemoryBackend(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", "file::memory:")
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("CACHE_BACKEND", "memory")

	root := newRootCommand()
	var out bytes.Buffer
	root.SetArgs([]string{"cache", "flush"})
	root.SetOut(&out)
	err := root.Execute()
	assert.ErrorIs(t, err, errMemoryFlush)
	assert.NotContains(t, out.String(), "flushed")
}

func TestHangupFlushesPages(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	pages, err := cache.NewMemory(8)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pages.Set(ctx, "0|/", []byte("page"), time.Minute)
	hup := make(chan os.Signal, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		flushOnHangup(ctx, pages, hup, log)
	}()

	hup <- syscall.SIGHUP
	assert.Eventually(t, func() bool { return pages.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("flushOnHangup did not return after cancel")
	}
}
