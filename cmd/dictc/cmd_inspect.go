package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacoelho/dictionary"
	"github.com/jacoelho/dictionary/internal/qname"
)

func newInspectCmd(root *rootFlags) *cobra.Command {
	var className string
	var skipConstraints bool
	cmd := &cobra.Command{
		Use:   "inspect <model>... [--class prefix:name]",
		Short: "Print the compiled classes of a model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := dictionary.NewLoadOptions().
				WithSkipConstraintInitialization(skipConstraints).
				WithLogger(root.logger(cmd, nil))
			res, err := compileFiles(args, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if className != "" {
				name, err := qname.Parse(className, res.Registry)
				if err != nil {
					return err
				}
				class := res.Registry.Class(name)
				if class == nil {
					return fmt.Errorf("class %s not found", className)
				}
				return printClass(out, class)
			}
			for _, m := range res.Models {
				if err := writef(out, "model %s\n", m.Model().PrefixedName()); err != nil {
					return err
				}
				for _, c := range m.Classes() {
					if err := printClass(out, c); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&className, "class", "", "print only this class (prefixed name)")
	cmd.Flags().BoolVar(&skipConstraints, "skip-constraints", false, "do not initialize constraint implementations")
	return cmd
}

func printClass(w io.Writer, c *dictionary.ClassDefinition) error {
	f := c.Model().Format
	kind := "type"
	if c.IsAspect() {
		kind = "aspect"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", kind, f(c.Name()))
	if !c.ParentName().IsZero() {
		fmt.Fprintf(&b, " : %s", f(c.ParentName()))
	}
	fmt.Fprintf(&b, " depth=%d\n", c.Depth())
	for _, p := range c.Properties() {
		fmt.Fprintf(&b, "  property %s %s%s\n", f(p.Name()), f(p.DataTypeName()), propertyFlags(p))
	}
	for _, a := range c.Associations() {
		target := "?"
		if t := a.TargetClass(); t != nil {
			target = f(t.Name())
		}
		kind := "association"
		if a.IsChild() {
			kind = "child-association"
		}
		fmt.Fprintf(&b, "  %s %s -> %s\n", kind, f(a.Name()), target)
	}
	for _, asp := range c.MandatoryAspects() {
		fmt.Fprintf(&b, "  mandatory-aspect %s\n", f(asp.Name()))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func propertyFlags(p *dictionary.PropertyDefinition) string {
	var flags []string
	if p.IsMandatory() {
		flags = append(flags, "mandatory")
	}
	if p.IsMultiValued() {
		flags = append(flags, "multiple")
	}
	if p.IsProtected() {
		flags = append(flags, "protected")
	}
	if v, ok := p.DefaultValue(); ok {
		flags = append(flags, "default="+v)
	}
	for _, c := range p.Constraints() {
		flags = append(flags, "constraint="+c.Type())
	}
	if len(flags) == 0 {
		return ""
	}
	return " [" + strings.Join(flags, " ") + "]"
}
