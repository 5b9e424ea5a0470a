// Package artifacts persists compiler output as per-contract JSON files.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/vyperpp/internal/compiler"
	"github.com/specialistvlad/vyperpp/internal/ctxlog"
)

// FormatVersion identifies the artifact file layout.
const FormatVersion = "hh-vyper-artifact-1"

// Artifact is the on-disk representation of one compiled contract.
type Artifact struct {
	Format                 string          `json:"_format"`
	ContractName           string          `json:"contractName"`
	SourceName             string          `json:"sourceName"`
	ABI                    json.RawMessage `json:"abi"`
	Bytecode               string          `json:"bytecode"`
	DeployedBytecode       string          `json:"deployedBytecode"`
	LinkReferences         map[string]any  `json:"linkReferences"`
	DeployedLinkReferences map[string]any  `json:"deployedLinkReferences"`
}

// New builds the artifact for the source with the given normalized path.
func New(sourceName string, a compiler.Artifact) *Artifact {
	abi := a.ABI
	if len(abi) == 0 {
		abi = json.RawMessage("[]")
	}
	return &Artifact{
		Format:                 FormatVersion,
		ContractName:           ContractName(sourceName),
		SourceName:             sourceName,
		ABI:                    abi,
		Bytecode:               with0x(a.Bytecode),
		DeployedBytecode:       with0x(a.BytecodeRuntime),
		LinkReferences:         map[string]any{},
		DeployedLinkReferences: map[string]any{},
	}
}

// ContractName is the base name of sourceName without its extension.
func ContractName(sourceName string) string {
	base := path.Base(sourceName)
	return strings.TrimSuffix(base, path.Ext(base))
}

func with0x(code string) string {
	if strings.HasPrefix(code, "0x") {
		return code
	}
	return "0x" + code
}

// Writer stores artifacts below Dir as <Dir>/<sourceName>/<ContractName>.json.
type Writer struct {
	Dir string
}

// Path returns the file an artifact for sourceName is written to.
func (w *Writer) Path(sourceName string) (string, error) {
	clean := path.Clean(sourceName)
	if clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("source name %q is outside the project root", sourceName)
	}
	return filepath.Join(w.Dir, filepath.FromSlash(clean), ContractName(clean)+".json"), nil
}

// Write stores one artifact per entry of out and returns the written files
// in sorted source order.
func (w *Writer) Write(ctx context.Context, out *compiler.Output) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	written := make([]string, 0, len(out.Contracts))
	for _, sourceName := range out.Paths() {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		file, err := w.Path(sourceName)
		if err != nil {
			return written, err
		}
		data, err := json.MarshalIndent(New(sourceName, out.Contracts[sourceName]), "", "  ")
		if err != nil {
			return written, fmt.Errorf("failed to encode artifact for %s: %w", sourceName, err)
		}
		if err := writeFile(file, append(data, '\n')); err != nil {
			return written, fmt.Errorf("failed to write artifact for %s: %w", sourceName, err)
		}
		logger.Debug("Wrote artifact.", "source", sourceName, "file", file)
		written = append(written, file)
	}
	return written, nil
}

// Read loads an artifact written by Write.
func Read(file string) (*Artifact, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", file, err)
	}
	if a.Format != FormatVersion {
		return nil, fmt.Errorf("artifact %s has format %q, want %q", file, a.Format, FormatVersion)
	}
	return &a, nil
}

// writeFile replaces file so readers never see a partial artifact.
func writeFile(file string, data []byte) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), file)
}
