package ipfs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacopkm/tpkm/errutil"
)

func TestAdd_UploadsAndReturnsCID(t *testing.T) {
	var gotPath, gotPin string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPin = r.URL.Query().Get("pin")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"Name":"archive","Hash":"QmTestCID","Size":"2"}`)
	}))
	defer srv.Close()

	c := New(srv.URL + "/api/v0")
	cid, err := c.Add(context.Background(), strings.NewReader("hi"))
	require.NoError(t, err)
	assert.Equal(t, "QmTestCID", cid)
	assert.Equal(t, "/api/v0/add", gotPath)
	assert.Equal(t, "true", gotPin)
}

func TestAdd_EmptyCIDFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"Name":"archive","Hash":"","Size":"2"}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Add(context.Background(), strings.NewReader("hi"))
	require.Error(t, err)
	assert.Equal(t, errutil.KindUnknown, errutil.KindOf(err))
}

func TestAdd_CanceledContextAbortsUpload(t *testing.T) {
	reached := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL)
	_, err := c.Add(ctx, strings.NewReader("hi"))
	require.Error(t, err)
	assert.Equal(t, errutil.KindIPFSUnreachable, errutil.KindOf(err))
	assert.False(t, reached, "a canceled upload should never leave the client")
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound("merkledag: not found"))
	assert.True(t, isNotFound(`no link named "lib" under QmYwAPJz`))
	assert.False(t, isNotFound("context canceled"))
}
