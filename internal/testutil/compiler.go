package testutil

import (
	"context"
	"encoding/hex"
	"os"
	"sync"

	"github.com/specialistvlad/vyperpp/internal/compiler"
	"github.com/specialistvlad/vyperpp/internal/fsutil"
)

// EchoVersion is the compiler version reported by EchoCompiler.
const EchoVersion = "0.3.3+commit.48e326f0"

// EchoCompiler stands in for the vyper binary. Each artifact's bytecode is
// the hex-encoded content of its input file, so tests can recover exactly
// what the compiler was given.
type EchoCompiler struct {
	Root string
	// Err, when set, is returned instead of compiling.
	Err error

	mu       sync.Mutex
	requests []*compiler.Request
}

var _ compiler.Compiler = (*EchoCompiler)(nil)

// NewEchoCompiler returns an EchoCompiler for the project at root.
func NewEchoCompiler(root string) *EchoCompiler {
	return &EchoCompiler{Root: root}
}

// Compile implements compiler.Compiler.
func (c *EchoCompiler) Compile(ctx context.Context, req *compiler.Request) (*compiler.Output, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req.Clone())
	c.mu.Unlock()

	if c.Err != nil {
		return nil, c.Err
	}
	out := &compiler.Output{Version: EchoVersion, Contracts: make(map[string]compiler.Artifact, len(req.InputPaths))}
	for _, p := range req.InputPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		key, err := fsutil.NormalizePath(c.Root, p)
		if err != nil {
			return nil, err
		}
		out.Contracts[key] = compiler.Artifact{
			ABI:             []byte(`[]`),
			Bytecode:        "0x" + hex.EncodeToString(data),
			BytecodeRuntime: "0x",
		}
	}
	return out, nil
}

// Requests returns copies of every request received so far.
func (c *EchoCompiler) Requests() []*compiler.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*compiler.Request(nil), c.requests...)
}

// Decode returns the source text an EchoCompiler bytecode was made from.
func Decode(bytecode string) (string, error) {
	if len(bytecode) >= 2 && bytecode[:2] == "0x" {
		bytecode = bytecode[2:]
	}
	data, err := hex.DecodeString(bytecode)
	return string(data), err
}
