package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/thoughtstream/internal/dagger"
)

// binaries are the main packages shipped in every build.
var binaries = []string{"./cli/thoughtstream", "./cli/thoughtstreamrelay"}

// Build and return directory of go binaries
func (t *Thoughtstream) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	gooses := []string{"linux", "darwin"}
	goarches := []string{"amd64", "arm64"}

	outputs := dag.Directory()

	for _, goos := range gooses {
		for _, goarch := range goarches {
			path := fmt.Sprintf("%s/%s/", goos, goarch)

			build := t.goContainer().
				WithEnvVariable("GOOS", goos).
				WithEnvVariable("GOARCH", goarch)
			for _, pkg := range binaries {
				build = build.WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, pkg})
			}

			outputs = outputs.WithDirectory(path, build.Directory(path))
		}
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (t *Thoughtstream) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	const utilsPkg = "github.com/papercomputeco/thoughtstream/pkg/utils"

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X '%s.Version=%s'", utilsPkg, version),
		fmt.Sprintf("-X '%s.Sha=%s'", utilsPkg, commit),
		fmt.Sprintf("-X '%s.Buildtime=%s'", utilsPkg, time.Now().UTC().Format(time.RFC3339)),
	}

	return t.Build(ctx, strings.Join(ldflags, " "))
}
