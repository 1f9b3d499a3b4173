// Package scene implements the environment host: it loads scenes, keeps
// track of which ones are loaded and exposes their components for test case
// discovery.
package scene

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"sync"

	"scenetest/pkg/scenetest/core"

	"github.com/sirupsen/logrus"
)

// Factory builds the components of a programmatically registered scene.
type Factory func(log *logrus.Logger) ([]any, error)

type Environment struct {
	id         string
	name       string
	components []any
}

var _ core.Environment = (*Environment)(nil)

func (e *Environment) ID() string {
	return e.id
}

func (e *Environment) Name() string {
	return e.name
}

func (e *Environment) Components() []any {
	return e.components
}

// Host manages loaded scenes. Scenes are identified either by the id they
// were registered with, by an sftp:// URL, or by a local manifest path.
type Host struct {
	log       *logrus.Logger
	remote    RemoteSettings
	mu        sync.Mutex
	factories map[string]Factory
	loaded    []*Environment
}

var _ core.EnvironmentSource = (*Host)(nil)

type HostOption func(*Host)

// WithRemoteSettings configures how sftp:// scenes are fetched.
func WithRemoteSettings(settings RemoteSettings) HostOption {
	return func(h *Host) {
		h.remote = settings
	}
}

func NewHost(log *logrus.Logger, opts ...HostOption) *Host {
	h := &Host{
		log:       log,
		factories: make(map[string]Factory),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *Host) Logger() *logrus.Logger {
	return h.log
}

// Register adds a scene that is built in code rather than read from a
// manifest.
func (h *Host) Register(id string, f Factory) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if id == "" {
		return fmt.Errorf("scene id cannot be empty")
	}

	if _, exists := h.factories[id]; exists {
		return fmt.Errorf("scene '%s' already registered", id)
	}

	h.log.Debugf("Registering scene '%s'", id)
	h.factories[id] = f
	return nil
}

// Registered returns the ids of all registered scenes, sorted.
func (h *Host) Registered() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.factories))
	for id := range h.factories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (h *Host) IsLoaded(pathOrID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.indexOf(pathOrID) >= 0
}

func (h *Host) indexOf(pathOrID string) int {
	return slices.IndexFunc(h.loaded, func(e *Environment) bool {
		return e.id == pathOrID
	})
}

// Load loads the scene if it is not loaded yet. Loading an already loaded
// scene logs a warning and reports alreadyLoaded without doing anything.
func (h *Host) Load(ctx context.Context, pathOrID string) (alreadyLoaded bool, err error) {
	if h.IsLoaded(pathOrID) {
		h.log.Warnf("Already loaded scene: %s. skip load", pathOrID)
		return true, nil
	}

	env, err := h.build(ctx, pathOrID)
	if err != nil {
		return false, fmt.Errorf("%w '%s': %w", ErrLoad, pathOrID, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Another caller may have loaded it while we were building.
	if h.indexOf(pathOrID) >= 0 {
		h.log.Warnf("Already loaded scene: %s. skip load", pathOrID)
		return true, nil
	}

	h.loaded = append(h.loaded, env)
	h.log.WithField("scene", env.name).Infof("Loaded test scene: %s", pathOrID)
	return false, nil
}

func (h *Host) build(ctx context.Context, pathOrID string) (*Environment, error) {
	h.mu.Lock()
	factory, registered := h.factories[pathOrID]
	h.mu.Unlock()

	if registered {
		var components []any
		err := core.CatchPanic(func() error {
			var err error
			components, err = factory(h.log)
			return err
		})
		if err != nil {
			return nil, err
		}

		return &Environment{id: pathOrID, name: pathOrID, components: components}, nil
	}

	data, err := h.readManifest(ctx, pathOrID)
	if err != nil {
		return nil, err
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	name := manifest.Name
	if name == "" {
		name = pathOrID
	}

	return &Environment{id: pathOrID, name: name, components: manifest.Components(h.log)}, nil
}

func (h *Host) readManifest(ctx context.Context, pathOrID string) ([]byte, error) {
	if u, err := url.Parse(pathOrID); err == nil && u.Scheme == "sftp" {
		return fetchRemoteManifest(ctx, u, h.remote)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(pathOrID)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene manifest: %w", err)
	}

	return data, nil
}

// Unload drops a loaded scene and closes its components implementing
// io.Closer. Test cases are left untouched: only the runner starts and
// cancels them. Unloading a scene that is not loaded logs a warning and
// reports wasLoaded=false.
func (h *Host) Unload(ctx context.Context, pathOrID string) (wasLoaded bool, err error) {
	h.mu.Lock()
	index := h.indexOf(pathOrID)
	if index < 0 {
		h.mu.Unlock()
		h.log.Warnf("Already unloaded scene: %s. skip unload", pathOrID)
		return false, nil
	}
	env := h.loaded[index]
	h.loaded = slices.Delete(h.loaded, index, index+1)
	h.mu.Unlock()

	var errs []error
	for _, component := range env.components {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if closer, ok := component.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return true, fmt.Errorf("%w '%s': %w", ErrUnload, pathOrID, errors.Join(errs...))
	}

	h.log.WithField("scene", env.name).Infof("Unloaded test scene: %s", pathOrID)
	return true, nil
}

// Environments implements core.EnvironmentSource.
func (h *Host) Environments() []core.Environment {
	h.mu.Lock()
	defer h.mu.Unlock()

	envs := make([]core.Environment, len(h.loaded))
	for i, env := range h.loaded {
		envs[i] = env
	}
	return envs
}
