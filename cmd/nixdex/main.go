// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"

	"cloudeng.io/cmdutil"
	"cloudeng.io/cmdutil/subcmd"
	"cloudeng.io/errors"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/hashicorp/go-hclog"
	"github.com/schollz/progressbar/v2"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/cosnicolaou/nixdex"
	"github.com/cosnicolaou/nixdex/internal/discovery"
	"github.com/cosnicolaou/nixdex/internal/filetree"
)

type CommonFlags struct {
	Verbose bool `subcmd:"verbose,false,verbose debug/trace information"`
}

type createFlags struct {
	CommonFlags
	Level       int    `subcmd:"level,3,'zstd compression level, 0..=22'"`
	ProgressBar bool   `subcmd:"progress,true,display a progress bar while packages are added"`
	Command     string `subcmd:"discovery-command,,'override the default nix-env discovery command line, space separated'"`
}

type queryFlags struct {
	CommonFlags
	PackagePattern string `subcmd:"package-pattern,,'restrict results to packages whose name matches this regex'"`
	Hash           string `subcmd:"hash,,'restrict results to the package with this exact content-address hash'"`
	Print0         bool   `subcmd:"print0,false,'NUL-terminate output paths instead of newline-terminating them'"`
}

type dumpFlags struct {
	CommonFlags
}

var cmdSet *subcmd.CommandSet

func init() {
	createCmd := subcmd.NewCommand("create",
		subcmd.MustRegisterFlagStruct(&createFlags{}, nil, nil),
		create, subcmd.ExactlyNumArguments(1))
	createCmd.Document(`discover packages and build a new nixdex database at the given path. The path may be local or on S3.`)

	queryCmd := subcmd.NewCommand("query",
		subcmd.MustRegisterFlagStruct(&queryFlags{}, nil, nil),
		query, subcmd.ExactlyNumArguments(2))
	queryCmd.Document(`query an existing nixdex database: query <database> <path-regex>.`)

	dumpCmd := subcmd.NewCommand("dump",
		subcmd.MustRegisterFlagStruct(&dumpFlags{}, nil, nil),
		dump, subcmd.ExactlyNumArguments(1))
	dumpCmd.Document(`decode and print every record in a nixdex database, for debugging.`)

	cmdSet = subcmd.NewCommandSet(createCmd, queryCmd, dumpCmd)
	cmdSet.Document(`build and query a nixdex file index. Files may be local or on S3.`)

	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(
			s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
	})
}

func main() {
	cmdSet.MustDispatch(context.Background())
}

func loggerFromCommonFlags(cl *CommonFlags) hclog.Logger {
	level := hclog.Warn
	if cl.Verbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{Name: "nixdex", Level: level})
}

func create(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cmdutil.HandleSignals(cancel, os.Interrupt)

	cl := values.(*createFlags)
	log := loggerFromCommonFlags(&cl.CommonFlags)

	w, err := nixdex.Create(args[0], nixdex.WriterLevel(cl.Level), nixdex.WriterLogger(log))
	if err != nil {
		return fmt.Errorf("create %v: %w", args[0], err)
	}

	isTTY := terminal.IsTerminal(int(os.Stderr.Fd()))
	var bar *progressbar.ProgressBar
	if cl.ProgressBar && isTTY {
		bar = progressbar.New(-1)
	}

	opts := discovery.Options{Logger: log}
	if cl.Command != "" {
		opts.Command = splitCommand(cl.Command)
	}

	count := 0
	err = discovery.Discover(ctx, opts, func(sp nixdex.StorePath) error {
		tree := filetree.New() // left empty: no store-path walk is done, so each package is added with no file entries
		if addErr := w.Add(sp, tree, nil); addErr != nil {
			return addErr
		}
		count++
		if bar != nil {
			bar.Add(1)
		}
		return nil
	})
	if err != nil {
		errs := &errors.M{}
		errs.Append(err)
		errs.Append(w.Close())
		return errs.Err()
	}
	size, err := w.Finish()
	if err != nil {
		return fmt.Errorf("finish %v: %w", args[0], err)
	}
	log.Info("wrote database", "path", args[0], "packages", count, "bytes", size)
	return nil
}

func query(ctx context.Context, values interface{}, args []string) error {
	cl := values.(*queryFlags)
	log := loggerFromCommonFlags(&cl.CommonFlags)

	r, err := nixdex.Open(args[0], nixdex.ReaderLogger(log))
	if err != nil {
		return fmt.Errorf("open %v: %w", args[0], err)
	}
	defer r.Close()

	q, err := r.Query(args[1])
	if err != nil {
		return err
	}
	if cl.PackagePattern != "" {
		if q, err = q.PackagePattern(cl.PackagePattern); err != nil {
			return err
		}
	}
	if cl.Hash != "" {
		q = q.Hash(cl.Hash)
	}

	sep := byte('\n')
	if cl.Print0 {
		sep = 0
	}
	it := q.Run()
	for it.Next() {
		res := it.Result()
		fmt.Printf("%s\t%s%c", res.Package.Name, res.Entry.Path, sep)
	}
	return it.Err()
}

func dump(ctx context.Context, values interface{}, args []string) error {
	cl := values.(*dumpFlags)
	log := loggerFromCommonFlags(&cl.CommonFlags)

	r, err := nixdex.Open(args[0], nixdex.ReaderLogger(log))
	if err != nil {
		return fmt.Errorf("open %v: %w", args[0], err)
	}
	defer r.Close()
	return r.Dump(os.Stdout)
}

func splitCommand(s string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	return out
}
