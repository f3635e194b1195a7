// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package discovery is the out-of-scope collaborator described by spec.md
// §1/§6: it spawns the package manager's own query tool and turns its XML
// output into the stream of nixdex.StorePath values a Writer consumes. The
// core's contract with this package is exactly "produce zero or more
// StorePath values, then terminate with success or a descriptive error";
// nothing here is part of the index format.
package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-hclog"

	"github.com/cosnicolaou/nixdex"
)

// xmlItem mirrors a single <item> element emitted by `nix-env -qaP --xml
// --meta --out-path`.
type xmlItem struct {
	Attr    string `xml:"attrPath,attr"`
	Name    string `xml:"name,attr"`
	Outputs []struct {
		Name string `xml:"name,attr"`
		Path string `xml:"path,attr"`
	} `xml:"output"`
}

type xmlItems struct {
	Items []xmlItem `xml:"item"`
}

// Options configures Discover.
type Options struct {
	// Command is the package-manager query tool to invoke; defaults to
	// {"nix-env", "-qaP", "--xml", "--meta", "--out-path"}.
	Command []string
	Logger  hclog.Logger
}

// Discover runs the configured discovery command and decodes its XML
// output, calling emit once per discovered output (a single package
// attribute with multiple outputs yields multiple StorePath values, one
// per output, each with Origin.Toplevel set to true since nix-env -qaP
// only lists top-level attributes).
func Discover(ctx context.Context, opts Options, emit func(nixdex.StorePath) error) error {
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	cmd := opts.Command
	if len(cmd) == 0 {
		cmd = []string{"nix-env", "-qaP", "--xml", "--meta", "--out-path"}
	}

	c := exec.CommandContext(ctx, cmd[0], cmd[1:]...)
	out, err := c.StdoutPipe()
	if err != nil {
		return fmt.Errorf("discovery: starting %v: %w", cmd, err)
	}
	if err := c.Start(); err != nil {
		return fmt.Errorf("discovery: starting %v: %w", cmd, err)
	}

	var items xmlItems
	decodeErr := xml.NewDecoder(out).Decode(&items)
	waitErr := c.Wait()
	if waitErr != nil {
		return fmt.Errorf("discovery: %v: %w", cmd, waitErr)
	}
	if decodeErr != nil {
		return fmt.Errorf("discovery: parsing xml output of %v: %w", cmd, decodeErr)
	}

	for _, it := range items.Items {
		for _, o := range it.Outputs {
			hash, name := splitStorePath(o.Path)
			sp := nixdex.StorePath{
				Hash: hash,
				Name: name,
				Origin: nixdex.Origin{
					Attr:     it.Attr,
					Output:   o.Name,
					Toplevel: true,
				},
			}
			log.Debug("discovered package", "hash", sp.Hash, "name", sp.Name, "attr", sp.Origin.Attr)
			if err := emit(sp); err != nil {
				return err
			}
		}
	}
	return nil
}

// splitStorePath separates a /nix/store/<hash>-<name> path into its hash
// and name components, splitting at the first '-' after the /nix/store/
// prefix is removed (a path without that prefix is split the same way). A
// path with no '-' is returned, prefix removed, as the name with an empty
// hash, rather than failing discovery outright.
func splitStorePath(storePath string) (hash, name string) {
	const prefix = "/nix/store/"
	base := storePath
	if len(storePath) > len(prefix) && storePath[:len(prefix)] == prefix {
		base = storePath[len(prefix):]
	}
	for i := 0; i < len(base); i++ {
		if base[i] == '-' {
			return base[:i], base[i+1:]
		}
	}
	return "", base
}
