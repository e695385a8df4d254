package transport_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/nestform"
	"github.com/reoring/nestform/transport"
)

type searchConstraints struct {
	IDs      []uint32                  `form:"ids,omitempty"`
	PHIDs    []string                  `form:"phids,omitempty"`
	Query    *string                   `form:"query"`
	Projects []string                  `form:"projects,omitempty"`
	Custom   map[string]nestform.Value `form:",inline"`
}

type searchAttachments struct {
	Subscribers bool `form:"subscribers,omitempty"`
	Columns     bool `form:"columns,omitempty"`
	Projects    bool `form:"projects,omitempty"`
}

type maniphestSearch struct {
	Constraints searchConstraints `form:"constraints"`
	Attachments searchAttachments `form:"attachments"`
	After       *string           `form:"after"`
}

type received struct {
	path        string
	contentType string
	body        string
}

func newServer(t *testing.T, status int) (*httptest.Server, *received) {
	t.Helper()
	got := &received{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		got.path = r.URL.Path
		got.contentType = r.Header.Get("Content-Type")
		got.body = string(b)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":null}`))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newClient(t *testing.T, base string) *transport.Client {
	t.Helper()
	c, err := transport.NewClient(transport.ClientConfig{
		BaseURL:    base + "/api",
		Token:      "api-secret",
		HTTPClient: http.DefaultClient,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	require.NoError(t, err)
	return c
}

func TestCall_PostsNestedForm(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	c := newClient(t, srv.URL)

	req := maniphestSearch{
		Constraints: searchConstraints{
			IDs: []uint32{7},
			Custom: map[string]nestform.Value{
				"custom.points": nestform.Seq(nestform.Int(3)),
			},
		},
		Attachments: searchAttachments{Columns: true},
	}
	resp, err := c.Call(context.Background(), "maniphest.search", req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "/api/maniphest.search", got.path)
	assert.Equal(t, transport.ContentType, got.contentType)

	pairs, err := nestform.ParseForm(got.body)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"api.token",
		"constraints[ids][0]",
		"constraints[custom.points][0]",
		"attachments[columns]",
	}, pairs.Keys())

	tree, err := nestform.Unflatten(pairs)
	require.NoError(t, err)
	want := nestform.Map(
		nestform.E("api.token", nestform.String("api-secret")),
		nestform.E("constraints", nestform.Map(
			nestform.E("ids", nestform.Seq(nestform.String("7"))),
			nestform.E("custom.points", nestform.Seq(nestform.String("3"))),
		)),
		nestform.E("attachments", nestform.Map(nestform.E("columns", nestform.String("true")))),
	)
	assert.True(t, tree.Equal(want), "body: %s", got.body)
}

func TestCall_AcceptsValue(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	c := newClient(t, srv.URL)

	v := nestform.Struct(nestform.F("transactions", nestform.Seq(
		nestform.Struct(nestform.F("type", nestform.String("title")), nestform.F("value", nestform.String("a&b"))),
	)))
	resp, err := c.Call(context.Background(), "maniphest.edit", v)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "api.token=api-secret&transactions%5B0%5D%5Btype%5D=title&transactions%5B0%5D%5Bvalue%5D=a%26b", got.body)
}

func TestCall_StatusError(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden)
	c := newClient(t, srv.URL)

	_, err := c.Call(context.Background(), "user.whoami", nestform.Struct())
	var se *transport.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, "user.whoami", se.Route)
}

func TestNewRequest_EncodeFailure(t *testing.T) {
	c := newClient(t, "http://example.invalid")
	bad := nestform.Map(nestform.Entry{Key: nestform.Int(1), Value: nestform.String("x")})
	_, err := c.NewRequest(context.Background(), "x.y", bad)
	require.ErrorIs(t, err, nestform.ErrUnsupportedKeyType)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := transport.NewClient(transport.ClientConfig{})
	assert.Error(t, err)
	_, err = transport.NewClient(transport.ClientConfig{BaseURL: "://bad"})
	assert.Error(t, err)
}
