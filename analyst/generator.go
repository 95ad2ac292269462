// Package analyst turns the portfolio history into natural language analysis
// using a text generation provider, a local Ollama server or Google Gemini.
//
// Provider failures are never fatal to the ledger: they are returned as
// *microcap.ProviderUnavailableError and callers log them and move on.
package analyst

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Auto selects the first available provider.
const Auto = "auto"

// Generator generates text from a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
	// Ping checks that the provider can serve requests.
	Ping(ctx context.Context) error
}

// ProviderStatus is the availability of one provider.
type ProviderStatus struct {
	Name      string
	Model     string
	Available bool
	Err       error
}

type modeler interface{ Model() string }

// Status pings every provider.
func Status(ctx context.Context, gens ...Generator) []ProviderStatus {
	res := make([]ProviderStatus, 0, len(gens))
	for _, g := range gens {
		s := ProviderStatus{Name: g.Name()}
		if m, ok := g.(modeler); ok {
			s.Model = m.Model()
		}
		s.Err = g.Ping(ctx)
		s.Available = s.Err == nil
		res = append(res, s)
	}
	return res
}

// Select returns the provider called name, or with Auto the first provider
// that answers its ping, in order.
func Select(ctx context.Context, name string, gens ...Generator) (Generator, error) {
	if name == "" || strings.EqualFold(name, Auto) {
		var errs []error
		for _, g := range gens {
			err := g.Ping(ctx)
			if err == nil {
				return g, nil
			}
			errs = append(errs, fmt.Errorf("%s: %w", g.Name(), err))
		}
		return nil, errors.Join(append([]error{errors.New("no AI provider available")}, errs...)...)
	}
	for _, g := range gens {
		if strings.EqualFold(g.Name(), name) {
			return g, nil
		}
	}
	return nil, fmt.Errorf("unknown AI provider %q", name)
}
