package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"grimm.is/burrow/internal/brand"
	"grimm.is/burrow/internal/clock"
	"grimm.is/burrow/internal/events"
	"grimm.is/burrow/internal/netstate"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	namespaces, err := s.mgr.ListNamespaces()
	if err != nil {
		writeManagerError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, StatusResponse{
		Version:    brand.Version,
		UptimeSecs: int64(clock.Since(s.startTime).Seconds()),
		Namespaces: namespaces,
	})
}

// ── Namespaces ──

func (s *Server) handleNamespaceList(w http.ResponseWriter, r *http.Request) {
	namespaces, err := s.mgr.ListNamespaces()
	if err != nil {
		writeManagerError(w, err)
		return
	}
	if namespaces == nil {
		namespaces = []string{}
	}
	WriteJSON(w, http.StatusOK, namespaces)
}

func (s *Server) handleNamespaceCreate(w http.ResponseWriter, r *http.Request) {
	var req NamespaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "namespace name is required")
		return
	}

	if err := s.mgr.CreateNamespace(r.Context(), req.Name); err != nil {
		writeManagerError(w, err)
		return
	}
	events.PublishMutation(s.hub, events.EventNamespaceCreate, req.Name, "", "")
	WriteJSON(w, http.StatusCreated, req)
}

func (s *Server) handleNamespaceRemove(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("ns")
	if err := s.mgr.RemoveNamespace(r.Context(), name); err != nil {
		writeManagerError(w, err)
		return
	}
	events.PublishMutation(s.hub, events.EventNamespaceRemove, name, "", "")
	w.WriteHeader(http.StatusNoContent)
}

// ── Interfaces ──

func (s *Server) handleInterfaceList(w http.ResponseWriter, r *http.Request) {
	ifaces, err := s.mgr.ListInterfaces(pathNamespace(r))
	if err != nil {
		writeManagerError(w, err)
		return
	}
	out := make([]InterfaceResponse, 0, len(ifaces))
	for _, iface := range ifaces {
		out = append(out, interfaceResponse(iface))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleInterfaceCreate(w http.ResponseWriter, r *http.Request) {
	ns := pathNamespace(r)

	var req netstate.InterfaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	iface, err := s.mgr.CreateInterface(ns, req)
	if err != nil {
		writeManagerError(w, err)
		return
	}
	events.PublishMutation(s.hub, events.EventLinkAdd, ns, req.Name, req.DeviceKind())
	WriteJSON(w, http.StatusCreated, interfaceResponse(*iface))
}

func (s *Server) handleInterfaceDelete(w http.ResponseWriter, r *http.Request) {
	ns, dev := pathNamespace(r), r.PathValue("dev")
	if err := s.mgr.DeleteInterface(ns, dev); err != nil {
		writeManagerError(w, err)
		return
	}
	events.PublishMutation(s.hub, events.EventLinkDelete, ns, dev, "")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInterfaceUp(w http.ResponseWriter, r *http.Request) {
	ns, dev := pathNamespace(r), r.PathValue("dev")
	if err := s.mgr.SetInterfaceUp(ns, dev); err != nil {
		writeManagerError(w, err)
		return
	}
	events.PublishMutation(s.hub, events.EventLinkChange, ns, dev, "up")
	w.WriteHeader(http.StatusNoContent)
}

// ── Addresses ──

func (s *Server) handleAddressList(w http.ResponseWriter, r *http.Request) {
	addrs, err := s.mgr.ListAddresses(pathNamespace(r), r.PathValue("dev"))
	if err != nil {
		writeManagerError(w, err)
		return
	}
	out := make([]AddressResponse, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, addressResponse(addr))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddressAdd(w http.ResponseWriter, r *http.Request) {
	ns, dev := pathNamespace(r), r.PathValue("dev")

	var req AddressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	areq, err := req.toRequest()
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.mgr.AddAddress(ns, dev, areq); err != nil {
		writeManagerError(w, err)
		return
	}
	events.PublishMutation(s.hub, events.EventAddrAdd, ns, dev, req.CIDR)
	WriteJSON(w, http.StatusCreated, req)
}

func (s *Server) handleAddressDelete(w http.ResponseWriter, r *http.Request) {
	ns, dev := pathNamespace(r), r.PathValue("dev")

	var req AddressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	areq, err := req.toRequest()
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.mgr.DeleteAddress(ns, dev, areq); err != nil {
		writeManagerError(w, err)
		return
	}
	events.PublishMutation(s.hub, events.EventAddrDelete, ns, dev, req.CIDR)
	w.WriteHeader(http.StatusNoContent)
}

// ── Policy rules ──

func (s *Server) handleRuleList(w http.ResponseWriter, r *http.Request) {
	family := 4
	if v := r.URL.Query().Get("family"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid family %q", v))
			return
		}
		family = n
	}
	af, err := ruleFamily(family)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rules, err := s.mgr.ListRules(pathNamespace(r), af)
	if err != nil {
		writeManagerError(w, err)
		return
	}
	out := make([]RuleResponse, 0, len(rules))
	for _, rule := range rules {
		resp := ruleResponse(rule)
		resp.Family = wireFamily(rule.Family)
		out = append(out, resp)
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleRuleAdd(w http.ResponseWriter, r *http.Request) {
	ns := pathNamespace(r)

	var req RuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	spec, err := req.toSpec()
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.mgr.AddRule(ns, spec); err != nil {
		writeManagerError(w, err)
		return
	}
	events.PublishMutation(s.hub, events.EventRuleAdd, ns, "", req.Src)
	WriteJSON(w, http.StatusCreated, req)
}

func (s *Server) handleRuleDelete(w http.ResponseWriter, r *http.Request) {
	ns := pathNamespace(r)

	var req RuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	spec, err := req.toSpec()
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.mgr.DeleteRule(ns, spec); err != nil {
		writeManagerError(w, err)
		return
	}
	events.PublishMutation(s.hub, events.EventRuleDelete, ns, "", req.Src)
	w.WriteHeader(http.StatusNoContent)
}

// ── Event history ──

func (s *Server) handleEventHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		WriteError(w, http.StatusNotFound, "event history is not enabled")
		return
	}

	since := time.Time{}
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid since %q", v))
			return
		}
		since = t
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	evs, err := s.history.Query(since, limit)
	if err != nil {
		writeManagerError(w, err)
		return
	}
	if evs == nil {
		evs = []events.StoredEvent{}
	}
	WriteJSON(w, http.StatusOK, evs)
}
