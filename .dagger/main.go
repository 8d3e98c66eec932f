// Thoughtstream CI
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/thoughtstream/internal/dagger"
)

// Thoughtstream is the CI module for the relay and its CLI.
type Thoughtstream struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Thoughtstream CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".thoughtstream", "build", "tmp"]
	source *dagger.Directory,
) *Thoughtstream {
	return &Thoughtstream{
		Source: source,
	}
}

// goContainer returns an Alpine Go container with the module caches and
// project source mounted. Nothing in the module needs CGO.
func (t *Thoughtstream) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", t.Source)
}

// Test runs the unit tests via "go test"
func (t *Thoughtstream) Test(ctx context.Context) (string, error) {
	return t.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}

// Vet runs "go vet" over every package.
func (t *Thoughtstream) Vet(ctx context.Context) (string, error) {
	return t.goContainer().
		WithExec([]string{"go", "vet", "./..."}).
		Stdout(ctx)
}
