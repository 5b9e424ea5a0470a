package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a configuration file may contain.
// Each block is optional and may appear at most once, except network.
type fileRoot struct {
	Vyper        *vyperBlock        `hcl:"vyper,block"`
	Networks     []*networkBlock    `hcl:"network,block"`
	Paths        *pathsBlock        `hcl:"paths,block"`
	Preprocessor *preprocessorBlock `hcl:"preprocessor,block"`
}

type vyperBlock struct {
	Version *string `hcl:"version,optional"`
	Binary  *string `hcl:"binary,optional"`
	Format  *string `hcl:"format,optional"`
	Timeout *string `hcl:"timeout,optional"`
}

type networkBlock struct {
	Name          string         `hcl:"name,label"`
	BlockGasLimit hcl.Expression `hcl:"block_gas_limit,optional"`
}

type pathsBlock struct {
	Sources   *string `hcl:"sources,optional"`
	Cache     *string `hcl:"cache,optional"`
	Artifacts *string `hcl:"artifacts,optional"`
	Tmp       *string `hcl:"tmp,optional"`
}

type preprocessorBlock struct {
	BasePath     *string        `hcl:"base_path,optional"`
	IncludePaths []string       `hcl:"include_paths,optional"`
	Defines      hcl.Expression `hcl:"defines,optional"`
}
