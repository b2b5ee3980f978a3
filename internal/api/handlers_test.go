package api

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"grimm.is/burrow/internal/config"
	"grimm.is/burrow/internal/netstate"
	"grimm.is/burrow/internal/rtnl"
)

// asUID wraps a handler so every request carries fake peer credentials,
// standing in for the unix listener's SO_PEERCRED lookup.
func asUID(h http.Handler, uid uint32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(WithPeerCred(r.Context(), PeerCred{Uid: uid, Pid: 1234})))
	})
}

func newTestServer(t *testing.T, cfg *config.Config) (*netstate.MockManager, http.Handler) {
	t.Helper()
	mgr := &netstate.MockManager{}
	srv, err := NewServer(ServerOptions{Config: cfg, Manager: mgr})
	require.NoError(t, err)
	return mgr, asUID(srv.Handler(), 0)
}

func doJSON(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStatus(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	mgr.On("ListNamespaces").Return([]string{"blue"}, nil)

	w := doJSON(h, "GET", "/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"blue"}, resp.Namespaces)
}

func TestNamespaceCreate(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	mgr.On("CreateNamespace", mock.Anything, "blue").Return(nil)

	w := doJSON(h, "POST", "/v1/netns", NamespaceRequest{Name: "blue"})
	assert.Equal(t, http.StatusCreated, w.Code)
	mgr.AssertExpectations(t)
}

func TestNamespaceCreateMissingName(t *testing.T) {
	_, h := newTestServer(t, nil)
	w := doJSON(h, "POST", "/v1/netns", NamespaceRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNamespaceCreateExists(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	mgr.On("CreateNamespace", mock.Anything, "blue").Return(netstate.ErrExists)

	w := doJSON(h, "POST", "/v1/netns", NamespaceRequest{Name: "blue"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestNamespaceRemoveNotFound(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	mgr.On("RemoveNamespace", mock.Anything, "ghost").Return(netstate.ErrNotFound)

	w := doJSON(h, "DELETE", "/v1/netns/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInterfaceCreate(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	req := netstate.InterfaceRequest{Name: "dummy0"}
	mgr.On("CreateInterface", "blue", req).
		Return(&netstate.Interface{Index: 2, Name: "dummy0", Kind: "dummy"}, nil)

	w := doJSON(h, "POST", "/v1/netns/blue/interfaces", req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp InterfaceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Index)
	assert.Equal(t, "dummy", resp.Kind)
}

func TestInterfaceCreateInvalidIndex(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	req := netstate.InterfaceRequest{Name: "dummy0", Index: 99}
	mgr.On("CreateInterface", "blue", req).Return(nil, netstate.ErrInvalidIndex)

	w := doJSON(h, "POST", "/v1/netns/blue/interfaces", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInterfaceListDefaultNamespace(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	// the "default" path segment means the daemon's own namespace
	mgr.On("ListInterfaces", "").Return([]netstate.Interface{{Index: 1, Name: "lo"}}, nil)

	w := doJSON(h, "GET", "/v1/netns/default/interfaces", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []InterfaceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "lo", resp[0].Name)
}

func TestAddressListNamespaceWide(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	// the dev-less route passes an empty device, meaning all of them
	mgr.On("ListAddresses", "blue", "").Return([]netstate.Address{
		{Index: 2, Address: net.ParseIP("10.1.0.1"), PrefixLen: 24, Family: unix.AF_INET, Scope: "global"},
		{Index: 3, Address: net.ParseIP("10.2.0.1"), PrefixLen: 24, Family: unix.AF_INET, Scope: "global"},
	}, nil)

	w := doJSON(h, "GET", "/v1/netns/blue/addresses", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []AddressResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, 2, resp[0].Index)
	assert.Equal(t, "10.1.0.1/24", resp[0].CIDR)
	assert.Equal(t, 3, resp[1].Index)
	mgr.AssertExpectations(t)
}

func TestAddressListDevice(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	mgr.On("ListAddresses", "blue", "dummy0").Return([]netstate.Address{
		{Index: 2, Address: net.ParseIP("10.1.0.1"), PrefixLen: 24, Family: unix.AF_INET, Scope: "global"},
	}, nil)

	w := doJSON(h, "GET", "/v1/netns/blue/interfaces/dummy0/addresses", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []AddressResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, 2, resp[0].Index)
}

func TestAddressAddInvalidCIDR(t *testing.T) {
	_, h := newTestServer(t, nil)
	w := doJSON(h, "POST", "/v1/netns/blue/interfaces/dummy0/addresses",
		AddressRequest{CIDR: "not-a-cidr"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddressAdd(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	mgr.On("AddAddress", "blue", "dummy0", mock.MatchedBy(func(r netstate.AddressRequest) bool {
		return r.Address.String() == "192.168.10.20" && r.PrefixLen == 24 && r.Broadcast
	})).Return(nil)

	w := doJSON(h, "POST", "/v1/netns/blue/interfaces/dummy0/addresses",
		AddressRequest{CIDR: "192.168.10.20/24", Scope: "link", Broadcast: true})
	assert.Equal(t, http.StatusCreated, w.Code)
	mgr.AssertExpectations(t)
}

func TestRuleListBadFamily(t *testing.T) {
	_, h := newTestServer(t, nil)
	w := doJSON(h, "GET", "/v1/netns/blue/rules?family=5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuleList(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	mgr.On("ListRules", "blue", unix.AF_INET).Return([]netstate.Rule{
		{Family: unix.AF_INET, Priority: 0, Table: 255},
		{Family: unix.AF_INET, Priority: 32766, Table: 254},
		{Family: unix.AF_INET, Priority: 32767, Table: 253},
	}, nil)

	w := doJSON(h, "GET", "/v1/netns/blue/rules?family=4", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []RuleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 3)
	assert.Equal(t, 4, resp[0].Family)
	assert.Equal(t, 255, resp[0].Table)
}

func TestRuleAddDuplicate(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	mgr.On("AddRule", "blue", mock.Anything).Return(netstate.ErrRuleExists)

	w := doJSON(h, "POST", "/v1/netns/blue/rules", RuleRequest{Family: 4})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRuleAddTimeout(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	mgr.On("AddRule", "blue", mock.Anything).Return(netstate.ErrTimeout)

	w := doJSON(h, "POST", "/v1/netns/blue/rules", RuleRequest{Family: 4})
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestKernelErrorMapsToBadGateway(t *testing.T) {
	mgr, h := newTestServer(t, nil)
	mgr.On("AddRule", "blue", mock.Anything).
		Return(&rtnl.KernelError{Op: "rule_add", Errno: unix.EINVAL})

	w := doJSON(h, "POST", "/v1/netns/blue/rules", RuleRequest{Family: 4})
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "EINVAL", resp.Errno)
}

func TestAuthorizeNoCredentials(t *testing.T) {
	mgr := &netstate.MockManager{}
	srv, err := NewServer(ServerOptions{Manager: mgr})
	require.NoError(t, err)

	// no peer credentials attached at all
	w := doJSON(srv.Handler(), "GET", "/v1/netns", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthorizeUnlistedUID(t *testing.T) {
	mgr := &netstate.MockManager{}
	srv, err := NewServer(ServerOptions{Manager: mgr})
	require.NoError(t, err)

	w := doJSON(asUID(srv.Handler(), 1000), "GET", "/v1/netns", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthorizeAllowedUID(t *testing.T) {
	cfg := config.Default()
	cfg.API.AllowedUIDs = []int{1000}

	mgr := &netstate.MockManager{}
	srv, err := NewServer(ServerOptions{Config: cfg, Manager: mgr})
	require.NoError(t, err)
	mgr.On("ListNamespaces").Return([]string{}, nil)

	w := doJSON(asUID(srv.Handler(), 1000), "GET", "/v1/netns", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
