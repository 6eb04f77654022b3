package migrate

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/mod/semver"

	"github.com/espegro/logtrail/internal/logger"
	"github.com/espegro/logtrail/internal/metrics"
)

// ErrInvalidVersion is returned for version keys that are not semver
var ErrInvalidVersion = errors.New("invalid migration version")

// step is one entry of an ordered migration chain
type step struct {
	version string
	fn      MigrateFunc
}

// Registry accumulates migration functions from several sources and
// applies them in version order.
type Registry struct {
	fns     FunctionsObject
	sources map[string][]string // source -> versions it contributed
	chains  *lru.Cache[string, []step]
	log     *logger.Logger
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry caching up to cacheSize chains
func NewRegistry(cacheSize int) *Registry {
	if cacheSize <= 0 {
		cacheSize = 128 // Default fallback
	}
	chains, _ := lru.New[string, []step](cacheSize)

	return &Registry{
		fns:     FunctionsObject{},
		sources: make(map[string][]string),
		chains:  chains,
		log:     logger.Get("migrate"),
	}
}

// Register adds the functions contributed by source. For a version that
// already has a function, the earlier contribution runs first and its
// output is fed to the new one.
func (r *Registry) Register(source string, fns FunctionsObject) error {
	versions := make([]string, 0, len(fns))
	for version, fn := range fns {
		if !validVersion(version) {
			return fmt.Errorf("%w: %q from %s", ErrInvalidVersion, version, source)
		}
		if fn == nil {
			return fmt.Errorf("nil migration for %s from %s", version, source)
		}
		versions = append(versions, version)
	}
	sortVersions(versions)

	r.mu.Lock()
	r.fns = Merge(fns, r.fns)
	r.sources[source] = append(r.sources[source], versions...)
	r.chains.Purge()
	r.mu.Unlock()

	r.log.Debug("Registered %d migration(s) from %s: %v", len(versions), source, versions)
	return nil
}

// Versions returns every registered version, ascending
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := make([]string, 0, len(r.fns))
	for version := range r.fns {
		versions = append(versions, version)
	}
	sortVersions(versions)
	return versions
}

// Sources returns the versions each source contributed
func (r *Registry) Sources() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.sources))
	for source, versions := range r.sources {
		out[source] = append([]string(nil), versions...)
	}
	return out
}

// Functions returns a copy of the merged function map
func (r *Registry) Functions() FunctionsObject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Merge(r.fns, nil)
}

// Migrate applies, in ascending order, every migration newer than from
// ("" applies all of them). It returns the migrated state and the version
// it is now at, which is from when nothing applied. The caller's map is
// not modified by the registry; migration functions get a shallow copy.
// A panic inside a migration function propagates to the caller.
func (r *Registry) Migrate(state State, from string) (State, string, error) {
	if from != "" && !validVersion(from) {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidVersion, from)
	}

	chain := r.chain(from)

	current := make(State, len(state))
	for k, v := range state {
		current[k] = v
	}

	version := from
	for _, s := range chain {
		current = s.fn(current)
		version = s.version
		metrics.RecordMigration(s.version)
	}

	if len(chain) > 0 {
		r.log.Debug("Migrated state from %q to %s (%d step(s))", from, version, len(chain))
	}
	return current, version, nil
}

// chain returns the ordered steps newer than from, cached per from
func (r *Registry) chain(from string) []step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cached, ok := r.chains.Get(from); ok {
		metrics.RecordCacheHit()
		return cached
	}
	metrics.RecordCacheMiss()

	var steps []step
	for version, fn := range r.fns {
		if from == "" || compareVersions(version, from) > 0 {
			steps = append(steps, step{version: version, fn: fn})
		}
	}
	sort.Slice(steps, func(i, j int) bool {
		return compareVersions(steps[i].version, steps[j].version) < 0
	})

	// lru.Cache is safe for concurrent use
	r.chains.Add(from, steps)
	return steps
}

func validVersion(v string) bool {
	return semver.IsValid("v" + v)
}

func compareVersions(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}

func sortVersions(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) < 0
	})
}
