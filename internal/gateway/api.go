// ABOUTME: HTTP handlers for robot commands, reads, maps and markers
// ABOUTME: Bodies are validated by the version's schema registry before any capability call

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/2389/robot-gateway/internal/schema"
)

// maxBodyBytes bounds command bodies. Marker sets are the largest payload.
const maxBodyBytes = 1 << 20

// commandResponse is the success body of every command and read.
type commandResponse struct {
	Response any `json:"response"`
}

type mapListResponse struct {
	MapList any `json:"map_list"`
}

type mapDataResponse struct {
	MapID   int `json:"map_id"`
	MapData any `json:"map_data"`
}

type evictResponse struct {
	MapID   int  `json:"map_id"`
	Evicted bool `json:"evicted"`
}

type markersResponse struct {
	MapID   int               `json:"map_id"`
	Markers []json.RawMessage `json:"markers"`
	Warning string            `json:"warning,omitempty"`
}

type statusResponse struct {
	Status any `json:"status"`
}

type lastErrorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// handleCommand decodes a command envelope for endpoint and dispatches it.
func (a *api) handleCommand(endpoint schema.Endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeError(w, r, a.logger, err)
			return
		}

		cmd, err := a.schema.Decode(endpoint, body)
		if err != nil {
			writeError(w, r, a.logger, err)
			return
		}

		result, err := a.router.Dispatch(r.Context(), cmd)
		if err != nil {
			writeError(w, r, a.logger, err)
			return
		}

		a.logger.Info("command executed",
			"endpoint", endpoint,
			"method", cmd.Method(),
			"request_id", requestIDFromContext(r.Context()),
		)
		sendJSON(w, http.StatusOK, commandResponse{Response: result})
	}
}

// handleIdleMode handles PUT /head.
func (a *api) handleIdleMode(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}

	cmd, err := a.schema.DecodeIdleMode(body)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}

	result, err := a.router.Dispatch(r.Context(), cmd)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, commandResponse{Response: result})
}

// handleRead wraps a parameterless router read.
func (a *api) handleRead(read func(context.Context) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := read(r.Context())
		if err != nil {
			writeError(w, r, a.logger, err)
			return
		}
		sendJSON(w, http.StatusOK, commandResponse{Response: result})
	}
}

func (a *api) handleListMaps(w http.ResponseWriter, r *http.Request) {
	list, err := a.maps.List(r.Context())
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	if list == nil {
		writeError(w, r, a.logger, errNoMapList)
		return
	}
	sendJSON(w, http.StatusOK, mapListResponse{MapList: list})
}

func (a *api) handleGetMap(w http.ResponseWriter, r *http.Request) {
	id, err := mapIDParam(r)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}

	data, err := a.maps.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, mapDataResponse{MapID: id, MapData: data})
}

func (a *api) handleEvictMap(w http.ResponseWriter, r *http.Request) {
	id, err := mapIDParam(r)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}

	evicted := a.maps.Evict(id)
	a.logger.Info("map evicted", "map_id", id, "cached", evicted)
	sendJSON(w, http.StatusOK, evictResponse{MapID: id, Evicted: evicted})
}

func (a *api) handleSaveMarkers(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}

	set, err := a.schema.DecodeMarkers(body)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}

	a.markers.Save(set.MapID, set.Markers)
	sendJSON(w, http.StatusOK, markersResponse{MapID: set.MapID, Markers: set.Markers})
}

func (a *api) handleLoadMarkers(w http.ResponseWriter, r *http.Request) {
	id, err := mapIDParam(r)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}

	markers, found := a.markers.Load(id)
	resp := markersResponse{MapID: id, Markers: markers}
	if !found {
		resp.Warning = "No markers found for this map_id"
	}
	sendJSON(w, http.StatusOK, resp)
}

// handleStatus reports the current action, or 204 when the robot is idle.
func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	action, err := a.router.CurrentAction(r.Context())
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	if action == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sendJSON(w, http.StatusOK, statusResponse{Status: action})
}

func (a *api) handleLastError(w http.ResponseWriter, r *http.Request) {
	msg, err := a.router.LastError(r.Context())
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	if msg == "" {
		sendJSON(w, http.StatusOK, messageResponse{Message: "None"})
		return
	}
	sendJSON(w, http.StatusOK, lastErrorResponse{Error: msg})
}

// readBody reads at most maxBodyBytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", schema.ErrMalformed, err)
	}
	return body, nil
}

// mapIDParam parses the {mapID} path segment.
func mapIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "mapID"))
	if err != nil {
		return 0, &schema.ValidationError{Field: "map_id", Reason: "must be an integer"}
	}
	return id, nil
}
