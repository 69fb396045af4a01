package settlement

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *stubStore) {
	t.Helper()
	svc, store, _ := newTestService(twoMemberSnapshot())
	srv := httptest.NewServer(NewHandler(svc).Routes())
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandlerBalances(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/group/1/balances")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool           `json:"success"`
		Data    []BalanceEntry `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "member_1", body.Data[0].Entity)
}

func TestHandlerPlanPreview(t *testing.T) {
	srv, store := newTestServer(t)

	resp := postJSON(t, srv.URL+"/group/1/plan", `{"strategy":"optimized"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, store.created, "preview must not persist")
}

func TestHandlerPlanRejectsUnknownStrategy(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/group/1/plan", `{"strategy":"pairwise"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHandlerPlanRequiresCenterForStar(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/group/1/plan", `{"strategy":"around_member"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerCreateSettlement(t *testing.T) {
	srv, store := newTestServer(t)

	resp := postJSON(t, srv.URL+"/group/1", `{"strategy":"optimized"}`)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotNil(t, store.created)
	assert.Len(t, store.created.Members, 1)
}

func TestHandlerCompleteAndReopenMember(t *testing.T) {
	srv, store := newTestServer(t)

	postJSON(t, srv.URL+"/group/1", `{"strategy":"optimized"}`)
	require.NotNil(t, store.created)

	resp := postJSON(t, srv.URL+"/1/members/1/complete", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, MemberStatusCompleted, store.created.Members[0].Status)

	resp = postJSON(t, srv.URL+"/1/members/1/reopen", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, MemberStatusOpen, store.created.Members[0].Status)
}

func TestHandlerGetUnknownSettlement(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/42")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
