package loader

import (
	"log/slog"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithSource is an option builder that sets the MeshLoader the Loader pulls mesh data from.
//
// Parameters:
//   - source: the mesh source
//
// Returns:
//   - LoaderBuilderOption: a function that applies the source option to a loader
func WithSource(source MeshLoader) LoaderBuilderOption {
	return func(l *loader) {
		l.source = source
	}
}

// WithMesh is an option builder that pre-populates the mesh cache.
//
// Parameters:
//   - data: the mesh to cache under data.Name
//
// Returns:
//   - LoaderBuilderOption: a function that applies the mesh option to a loader
func WithMesh(data *MeshData) LoaderBuilderOption {
	return func(l *loader) {
		if data != nil {
			l.meshCache[data.Name] = data
		}
	}
}

// WithLogger is an option builder that sets the structured logger.
//
// Parameters:
//   - logger: the logger; nil keeps slog.Default()
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
