package hcl

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/vyperpp/internal/config"
	"github.com/specialistvlad/vyperpp/internal/ctxlog"
)

// apply copies every value set in fr onto p.
func (l *Loader) apply(ctx context.Context, p *config.Project, fr *fileRoot) error {
	if v := fr.Vyper; v != nil {
		setString(&p.Vyper.Version, v.Version)
		setString(&p.Vyper.Binary, v.Binary)
		setString(&p.Vyper.Format, v.Format)
		if v.Timeout != nil {
			d, err := time.ParseDuration(*v.Timeout)
			if err != nil {
				return fmt.Errorf("vyper.timeout: %w", err)
			}
			p.Vyper.Timeout = d
		}
	}

	seen := make(map[string]bool, len(fr.Networks))
	for _, n := range fr.Networks {
		if seen[n.Name] {
			return fmt.Errorf("duplicate network %q", n.Name)
		}
		seen[n.Name] = true

		network, ok := p.Networks[n.Name]
		if !ok {
			network = &config.Network{Name: n.Name, BlockGasLimit: config.DefaultBlockGasLimit}
			p.Networks[n.Name] = network
		}
		limit, set, err := decodeUint(ctx, n.BlockGasLimit)
		if err != nil {
			return fmt.Errorf("network %q: block_gas_limit: %w", n.Name, err)
		}
		if set {
			network.BlockGasLimit = limit
		}
	}

	if ps := fr.Paths; ps != nil {
		setString(&p.Paths.Sources, ps.Sources)
		setString(&p.Paths.Cache, ps.Cache)
		setString(&p.Paths.Artifacts, ps.Artifacts)
		setString(&p.Paths.Tmp, ps.Tmp)
	}

	if pp := fr.Preprocessor; pp != nil {
		setString(&p.Preprocessor.BasePath, pp.BasePath)
		if pp.IncludePaths != nil {
			p.Preprocessor.IncludePaths = pp.IncludePaths
		}
		defines, err := decodeDefines(ctx, pp.Defines)
		if err != nil {
			return fmt.Errorf("preprocessor.defines: %w", err)
		}
		for name, value := range defines {
			if old, ok := p.Preprocessor.Defines[name]; ok && old != value {
				ctxlog.FromContext(ctx).Debug("Overriding preprocessor define.", "name", name, "from", old, "to", value)
			}
			p.Preprocessor.Defines[name] = value
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
