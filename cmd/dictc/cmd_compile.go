package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jacoelho/dictionary"
	dicterrors "github.com/jacoelho/dictionary/errors"
)

func newCompileCmd(root *rootFlags) *cobra.Command {
	var skipConstraints bool
	cmd := &cobra.Command{
		Use:   "compile <model>...",
		Short: "Compile model documents against the built-in models",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := dictionary.NewLoadOptions().
				WithSkipConstraintInitialization(skipConstraints).
				WithLogger(root.logger(cmd, nil))
			res, err := compileFiles(args, opts)
			if res == nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range res.Models {
				if werr := writef(out, "%s compiled (%d types, %d aspects)\n",
					m.Model().PrefixedName(), len(m.Types()), len(m.Aspects())); werr != nil {
					return werr
				}
			}
			if err == nil {
				return nil
			}
			stderr := cmd.ErrOrStderr()
			list, ok := dicterrors.AsCompilations(err)
			if !ok {
				return err
			}
			for _, f := range list {
				if werr := writeln(stderr, f.Error()); werr != nil {
					return werr
				}
			}
			if werr := writef(stderr, "%d of %d models failed to compile\n", len(list), len(args)); werr != nil {
				return werr
			}
			return errFailed
		},
	}
	cmd.Flags().BoolVar(&skipConstraints, "skip-constraints", false, "do not initialize constraint implementations")
	return cmd
}

// compileFiles compiles paths as one model set so they may import each other.
func compileFiles(paths []string, opts dictionary.LoadOptions) (*dictionary.CompileResult, error) {
	set := dictionary.NewModelSet(opts)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if err := set.AddFS(os.DirFS(filepath.Dir(abs)), filepath.Base(abs)); err != nil {
			return nil, err
		}
	}
	return set.Compile()
}
