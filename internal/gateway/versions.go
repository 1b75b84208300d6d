// ABOUTME: Version registry mounting one handler set per API prefix
// ABOUTME: Each version pairs a schema registry profile with a dispatch result policy

package gateway

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/2389/robot-gateway/internal/config"
	"github.com/2389/robot-gateway/internal/dispatch"
	"github.com/2389/robot-gateway/internal/mapcache"
	"github.com/2389/robot-gateway/internal/schema"
)

// Version binds a URL prefix to a validation profile.
type Version struct {
	Prefix  string
	Profile schema.Profile
}

// versionsFromConfig converts configured versions, rejecting unknown profiles.
func versionsFromConfig(cfgs []config.VersionConfig) ([]Version, error) {
	out := make([]Version, 0, len(cfgs))
	for _, c := range cfgs {
		p := schema.Profile(c.Profile)
		if !p.Valid() {
			return nil, fmt.Errorf("api version %s: unknown profile %q", c.Prefix, c.Profile)
		}
		out = append(out, Version{Prefix: c.Prefix, Profile: p})
	}
	return out, nil
}

// policyFor returns the result policy matching a validation profile.
func policyFor(p schema.Profile) dispatch.Policy {
	if p == schema.ProfileStrict {
		return dispatch.PolicyStrict
	}
	return dispatch.PolicyLoose
}

// api is the handler set of one version. Router, cache and marker store
// are shared by every version.
type api struct {
	version Version
	schema  *schema.Registry
	router  *dispatch.Router
	maps    *mapcache.MapCache
	markers *mapcache.MarkerStore
	logger  *slog.Logger
}

func newAPI(v Version, router *dispatch.Router, maps *mapcache.MapCache, markers *mapcache.MarkerStore, logger *slog.Logger) *api {
	return &api{
		version: v,
		schema:  schema.New(v.Profile),
		router:  router.WithPolicy(policyFor(v.Profile)),
		maps:    maps,
		markers: markers,
		logger:  logger.With("version", v.Prefix, "profile", string(v.Profile)),
	}
}

// routes returns the version's route table, relative to its prefix.
func (a *api) routes(mw ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(mw...)

	r.Post("/core", a.handleCommand(schema.EndpointCore))
	r.Get("/core/version", a.handleRead(a.router.Version))

	r.Post("/base", a.handleCommand(schema.EndpointBase))
	r.Get("/base/status", a.handleRead(a.router.Status))

	r.Post("/base/maps", a.handleCommand(schema.EndpointMaps))
	r.Get("/base/maps", a.handleListMaps)
	r.Get("/base/maps/position", a.handleRead(a.router.Position))
	r.Get("/base/maps/{mapID}", a.handleGetMap)
	r.Delete("/base/maps/{mapID}", a.handleEvictMap)

	r.Post("/save-markers", a.handleSaveMarkers)
	r.Get("/load-markers/{mapID}", a.handleLoadMarkers)

	r.Post("/head", a.handleCommand(schema.EndpointHead))
	r.Put("/head", a.handleIdleMode)

	r.Post("/arm", a.handleCommand(schema.EndpointArm))
	r.Post("/arm/gripper", a.handleCommand(schema.EndpointGripper))

	r.Get("/status", a.handleStatus)
	r.Get("/error", a.handleLastError)

	return r
}
