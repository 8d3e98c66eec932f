package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/thoughtstream/internal/dagger"
)

// CheckGoModTidy fails when "go mod tidy" would change go.mod or go.sum.
//
// +check
func (t *Thoughtstream) CheckGoModTidy(ctx context.Context) (string, error) {
	_, err := t.goContainer().
		WithExec([]string{"go", "mod", "tidy", "-diff"}).
		Stdout(ctx)

	var execErr *dagger.ExecError
	switch {
	case errors.As(err, &execErr):
		return "", fmt.Errorf("go.mod or go.sum are not tidy, run 'go mod tidy':\n\n%s", execErr.Stdout)
	case err != nil:
		return "", fmt.Errorf("running go mod tidy: %w", err)
	}

	return "go.mod and go.sum are tidy", nil
}
