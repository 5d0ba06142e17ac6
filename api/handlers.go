package api

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/evmcfg/evmcfg/cfg"
	"github.com/evmcfg/evmcfg/signature"
	"github.com/evmcfg/evmcfg/vmstate"
)

// handleCreateSession handles POST /api/v1/session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionCreateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var sigs signature.Lookup = signature.Empty()
	if req.SignatureFile != "" {
		m, err := signature.Load(req.SignatureFile)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("loading signature file: %v", err))
			return
		}
		sigs = m
	}

	session, err := s.sessions.CreateSession(req.Bytecode, sigs)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to create session: %v", err))
		return
	}

	writeJSON(w, http.StatusCreated, SessionCreateResponse{
		SessionID:    session.ID,
		CreatedAt:    session.CreatedAt,
		Instructions: len(session.Program.Instructions),
		Blocks:       len(session.Graph.Blocks),
		Functions:    len(session.Graph.Functions),
	})
}

// handleListSessions handles GET /api/v1/session.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.sessions.ListSessions()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": ids,
		"count":    len(ids),
	})
}

// handleGetSessionStatus handles GET /api/v1/session/{id}.
func (s *Server) handleGetSessionStatus(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, SessionStatusResponse{
		SessionID:    sessionID,
		Instructions: len(session.Program.Instructions),
		Blocks:       len(session.Graph.Blocks),
		Functions:    len(session.Graph.Functions),
		Edges:        len(session.Graph.Edges),
	})
}

// handleDestroySession handles DELETE /api/v1/session/{id}.
func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.sessions.DestroySession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "session destroyed"})
}

// handleRun handles POST /api/v1/session/{id}/run: one dynamic
// emulation pass, seeded with the session's accumulated storage. Once
// the pass has finished, every trace step and newly discovered edge is
// broadcast to subscribed WebSocket clients.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req RunRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	callinfo, err := parseCallInfo(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state := vmstate.NewWithStorage(session.Storage)
	result := cfg.BuildDynamicWithState(session.Graph, callinfo, state)

	if s.broadcaster != nil {
		for _, step := range result.Trace {
			s.broadcaster.BroadcastTraceStep(sessionID, map[string]interface{}{
				"step":     step.Step,
				"offset":   step.Offset,
				"mnemonic": step.Mnemonic,
				"stack":    step.Stack,
			})
		}
		for _, e := range result.Edges {
			s.broadcaster.BroadcastEdge(sessionID, map[string]interface{}{
				"from": e.FromOffset,
				"to":   e.ToOffset,
				"kind": e.Kind.String(),
			})
		}
		s.broadcaster.BroadcastHalt(sessionID, map[string]interface{}{
			"halt": string(result.HaltKind),
		})
	}

	errMsg := ""
	if result.Err != nil {
		errMsg = result.Err.Error()
	}

	writeJSON(w, http.StatusOK, RunResponse{
		Halt:         string(result.HaltKind),
		Error:        errMsg,
		Stack:        stackStrings(result.State),
		Storage:      storageStrings(result.State),
		Visited:      result.State.Visited(),
		NewEdgeCount: len(result.Edges),
	})
}

func parseCallInfo(req RunRequest) (*vmstate.CallInfo, error) {
	calldata, err := decodeHexField(req.Calldata)
	if err != nil {
		return nil, fmt.Errorf("invalid calldata: %w", err)
	}

	callValue := big.NewInt(0)
	if req.CallValue != "" {
		trimmed := strings.TrimPrefix(strings.TrimPrefix(req.CallValue, "0x"), "0X")
		base := 10
		if trimmed != req.CallValue {
			base = 16
		}
		v, ok := new(big.Int).SetString(trimmed, base)
		if !ok || v.Sign() < 0 {
			return nil, fmt.Errorf("invalid callValue %q", req.CallValue)
		}
		callValue = v
	}

	return &vmstate.CallInfo{Calldata: calldata, CallValue: callValue}, nil
}

func stackStrings(state *vmstate.VMState) []string {
	stack := state.ConcreteStack()
	out := make([]string, len(stack))
	for i, v := range stack {
		out[i] = fmt.Sprintf("0x%x", v)
	}
	return out
}

func storageStrings(state *vmstate.VMState) map[string]string {
	snap := state.Storage.Snapshot()
	out := make(map[string]string, len(snap))
	for k, v := range snap {
		out[k] = fmt.Sprintf("0x%x", v)
	}
	return out
}

// handleGetCFG handles GET /api/v1/session/{id}/cfg.
func (s *Server) handleGetCFG(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	resp := CFGResponse{}
	for _, b := range session.Graph.Blocks {
		resp.Blocks = append(resp.Blocks, BlockInfo{
			StartOffset: b.StartOffset,
			EndOffset:   b.EndOffset,
			InstrCount:  len(b.Instructions),
		})
	}
	for _, f := range session.Graph.SortedFunctions() {
		fi := FunctionInfo{
			EntryOffset:   f.EntryOffset,
			Name:          f.Name,
			PreferredName: f.PreferredName,
			IsDispatcher:  f.IsDispatcher,
		}
		if !f.IsDispatcher {
			fi.Selector = fmt.Sprintf("0x%08x", f.Selector)
		}
		resp.Functions = append(resp.Functions, fi)
	}
	for _, e := range session.Graph.Edges {
		resp.Edges = append(resp.Edges, EdgeInfo{
			FromOffset: e.FromOffset,
			ToOffset:   e.ToOffset,
			Kind:       e.Kind.String(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetDisassembly handles GET /api/v1/session/{id}/disassembly.
func (s *Server) handleGetDisassembly(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	lines := make([]DisassemblyLine, 0, len(session.Program.Instructions))
	for _, inst := range session.Program.Instructions {
		line := DisassemblyLine{Offset: inst.Offset, Mnemonic: inst.Mnemonic}
		if inst.HasImmediateValue {
			line.Operand = fmt.Sprintf("0x%x", inst.OperandInterpretation)
		}
		lines = append(lines, line)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"instructions": lines})
}

func decodeHexField(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(trimmed)
}
