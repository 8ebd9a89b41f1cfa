// Package layout builds ball arrangements from Tengo scripts.
//
// A script sees the globals width, height and seed and assigns an array of
// maps to balls:
//
//	balls = []
//	for i := 0; i < 5; i++ {
//		balls = append(balls, {x: 0.5 + i*0.6, y: height - 0.5, vx: random(-1, 1), radius: 0.2})
//	}
//
// random() returns a float in [0, 1) and random(lo, hi) one in [lo, hi),
// drawn from a source seeded with seed, so a layout is reproducible. The
// rand module's global functions are not seedable; scripts that import it
// should use r := rand.rand(seed) instead of rand.seed.
//
// Missing keys default to zero. The stdlib math, rand and text modules are
// importable.
package layout

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/san-kum/bounce/internal/config"
)

var modules = []string{"math", "rand", "text", "fmt"}

// Run executes src and returns the balls it produced.
func Run(ctx context.Context, src []byte, width, height float64, seed int64) ([]config.Ball, error) {
	script := tengo.NewScript(src)
	globals := []struct {
		name  string
		value any
	}{
		{"width", width},
		{"height", height},
		{"seed", seed},
		{"random", randomFunc(rand.New(rand.NewSource(seed)))},
		{"balls", []any{}},
	}
	for _, g := range globals {
		if err := script.Add(g.name, g.value); err != nil {
			return nil, fmt.Errorf("layout script: %s: %w", g.name, err)
		}
	}
	script.SetImports(stdlib.GetModuleMap(modules...))

	compiled, err := script.RunContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("layout script: %w", err)
	}

	raw := compiled.Get("balls")
	if raw.ValueType() != "array" && raw.ValueType() != "immutable-array" {
		return nil, fmt.Errorf("layout script: balls must be an array, got %s", raw.ValueType())
	}

	items := raw.Array()
	balls := make([]config.Ball, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("layout script: balls[%d] is %T, want a map", i, item)
		}
		b, err := toBall(m)
		if err != nil {
			return nil, fmt.Errorf("layout script: balls[%d]: %w", i, err)
		}
		balls = append(balls, b)
	}
	return balls, nil
}

// randomFunc draws from rng: random() in [0, 1), random(lo, hi) in [lo, hi).
func randomFunc(rng *rand.Rand) *tengo.UserFunction {
	return &tengo.UserFunction{
		Name: "random",
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			switch len(args) {
			case 0:
				return &tengo.Float{Value: rng.Float64()}, nil
			case 2:
				lo, ok := tengo.ToFloat64(args[0])
				if !ok {
					return nil, tengo.ErrInvalidArgumentType{Name: "lo", Expected: "float", Found: args[0].TypeName()}
				}
				hi, ok := tengo.ToFloat64(args[1])
				if !ok {
					return nil, tengo.ErrInvalidArgumentType{Name: "hi", Expected: "float", Found: args[1].TypeName()}
				}
				return &tengo.Float{Value: lo + rng.Float64()*(hi-lo)}, nil
			default:
				return nil, tengo.ErrWrongNumArguments
			}
		},
	}
}

func RunFile(ctx context.Context, path string, width, height float64, seed int64) ([]config.Ball, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Run(ctx, src, width, height, seed)
}

// Apply replaces cfg.Balls with the output of cfg.LayoutScript, resolved
// against baseDir when relative. A config without a script is left alone.
func Apply(ctx context.Context, cfg *config.Config, baseDir string) error {
	if cfg.LayoutScript == "" {
		return nil
	}
	path := cfg.LayoutScript
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	balls, err := RunFile(ctx, path, cfg.Arena.Width, cfg.Arena.Height, cfg.Seed)
	if err != nil {
		return err
	}
	cfg.Balls = balls
	return nil
}

func toBall(m map[string]any) (config.Ball, error) {
	var b config.Ball
	fields := []struct {
		key string
		dst *float64
	}{
		{"x", &b.X}, {"y", &b.Y},
		{"vx", &b.VX}, {"vy", &b.VY},
		{"radius", &b.Radius}, {"density", &b.Density},
	}
	for _, f := range fields {
		v, ok := m[f.key]
		if !ok {
			continue
		}
		n, err := number(v)
		if err != nil {
			return b, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = n
	}
	return b, nil
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
