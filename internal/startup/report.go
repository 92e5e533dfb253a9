package startup

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"photo-catalog/internal/logging"
)

const rule = "------------------------------------------------------------"

// section starts a titled block of the startup report.
func section(title string, args ...any) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(title, args...)
	logging.Info(rule)
}

func printBanner() {
	fmt.Println(rule)
	fmt.Println(`    ____  __          __           ______      __        __
   / __ \/ /_  ____  / /_____     / ____/___ _/ /_____ _/ /___  ____ _
  / /_/ / __ \/ __ \/ __/ __ \   / /   / __ '/ __/ __ '/ / __ \/ __ '/
 / ____/ / / / /_/ / /_/ /_/ /  / /___/ /_/ / /_/ /_/ / / /_/ / /_/ /
/_/   /_/ /_/\____/\__/\____/   \____/\__,_/\__/\__,_/_/\____/\__, /
                                                             /____/`)
	fmt.Println(rule)
	logging.Info("  Version %s (%s), built %s", Version, Commit, BuildTime)
	logging.Info("  Started %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go %s on %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs: %d available, GOMAXPROCS %d", runtime.NumCPU(), runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		wd, _ := os.Getwd()
		host, _ := os.Hostname()
		logging.Debug("  Working dir %s on host %s", wd, host)
	}
}

// LogDatabaseInit reports the opened catalog store.
func LogDatabaseInit(driver string, duration time.Duration) {
	section("DATABASE")
	logging.Info("  [OK] %s catalog ready in %v", driver, duration)
}

// LogThumbnailInit explains how the gallery degrades without thumbnails.
func LogThumbnailInit(enabled bool) {
	if !enabled {
		logging.Info("  Thumbnails disabled, the gallery links full-size images")
	}
}

// LogIndexerInit describes how the catalog will be kept in sync.
func LogIndexerInit(sync SyncConfig) {
	section("CATALOG SYNC")
	switch {
	case sync.Interval > 0 && sync.OnStart:
		logging.Info("  Every %v, first pass now", sync.Interval)
	case sync.Interval > 0:
		logging.Info("  Every %v, first pass after one interval", sync.Interval)
	case sync.OnStart:
		logging.Info("  Periodic sync DISABLED, one pass now")
	default:
		logging.Info("  Periodic sync DISABLED, no pass scheduled")
	}
	if sync.Watch {
		logging.Info("  Watching the upload folder, debounce %v", sync.Debounce)
	}
}

// LogIndexerStarted confirms the sync runner is scheduled.
func LogIndexerStarted() {
	logging.Info("  [OK] Catalog sync started")
}

// RouteInfo is one method/path pair of the router.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes lists every route of router. Routes without a method matcher
// are reported with method "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path, Name: route.GetName()})
		}
		return nil
	})
	return routes, err
}

// getRouteGroup names the block a route is listed under: its first path
// segment, or api/<resource> for the JSON API.
func getRouteGroup(path string) string {
	first, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first == "api" && rest != "" {
		resource, _, _ := strings.Cut(rest, "/")
		return "api/" + resource
	}
	return first
}

// LogHTTPRoutes summarizes the router and, at debug level, lists it.
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	section("HTTP SERVER SETUP")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	groups := make(map[string][]RouteInfo)
	for _, r := range routes {
		g := getRouteGroup(r.Path)
		if g == "" {
			g = "root"
		}
		groups[g] = append(groups[g], r)
	}
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)

	logging.Info("  %d routes in %d groups", len(routes), len(groups))
	if logging.IsDebugEnabled() {
		for _, g := range names {
			logging.Debug("  [%s]", g)
			for _, r := range groups[g] {
				logging.Debug("    %-6s %s", r.Method, r.Path)
			}
		}
	}

	logging.Info("  Access log: images %s, health checks %s", onOff(logStaticFiles), onOff(logHealthChecks))
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// ServerStartedInfo is what LogServerStarted reports.
type ServerStartedInfo struct {
	Addr            string
	MetricsAddr     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted prints the reachable endpoints.
func LogServerStarted(config ServerStartedInfo) {
	section("SERVER STARTED in %v", config.StartupDuration)
	logging.Info("  Gallery:  http://%s/gallery", config.Addr)
	logging.Info("  API:      http://%s/api/images", config.Addr)
	if config.MetricsEnabled {
		logging.Info("  Metrics:  http://%s/metrics", config.MetricsAddr)
	}
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info(rule)
}

// Shutdown reports the steps of a graceful shutdown.
type Shutdown struct {
	start time.Time
}

// BeginShutdown announces a shutdown triggered by reason.
func BeginShutdown(reason string) *Shutdown {
	section("SHUTDOWN (%s)", reason)
	return &Shutdown{start: time.Now()}
}

// Step runs fn and logs how long it took.
func (s *Shutdown) Step(name string, fn func()) {
	logging.Debug("  %s...", name)
	t := time.Now()
	fn()
	logging.Info("  [OK] %s (%v)", name, time.Since(t).Round(time.Millisecond))
}

// Done logs the total shutdown time.
func (s *Shutdown) Done() {
	logging.Info("  [OK] Shutdown complete in %v", time.Since(s.start).Round(time.Millisecond))
}

// LogFatal logs and exits with status 1.
func LogFatal(format string, args ...any) {
	logging.Fatal(format, args...)
}
