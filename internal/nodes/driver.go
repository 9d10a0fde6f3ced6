package nodes

import (
	"cmp"
	"context"
	"slices"
)

// Visitor receives the graph from a Driver. Renderers implement it.
type Visitor interface {
	VisitProgram(p *ProgramNode) error
	VisitAccount(a *AccountNode) error
	VisitDefinedType(t *DefinedTypeNode) error
	VisitInstruction(ix *InstructionNode) error
	VisitErrors(errs []ErrorNode) error
	// Finish is called once after every node was visited.
	Finish() error
}

// Driver applies visitors to a root node.
type Driver struct {
	root *RootNode
}

// NewDriver wraps root. The root is not copied; visitors must not modify it.
func NewDriver(root *RootNode) *Driver {
	return &Driver{root: root}
}

// Root returns the wrapped graph.
func (d *Driver) Root() *RootNode {
	return d.root
}

// Accept walks the graph: program, accounts, defined types, instructions
// (each sorted by name), errors (sorted by code), then Finish. The first
// visitor error stops the walk and is returned as is. ctx is checked
// between nodes.
func (d *Driver) Accept(ctx context.Context, v Visitor) error {
	p := &d.root.Program
	if err := v.VisitProgram(p); err != nil {
		return err
	}

	accounts := slices.Clone(p.Accounts)
	slices.SortStableFunc(accounts, func(a, b AccountNode) int { return cmp.Compare(a.Name, b.Name) })
	for i := range accounts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := v.VisitAccount(&accounts[i]); err != nil {
			return err
		}
	}

	types := slices.Clone(p.DefinedTypes)
	slices.SortStableFunc(types, func(a, b DefinedTypeNode) int { return cmp.Compare(a.Name, b.Name) })
	for i := range types {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := v.VisitDefinedType(&types[i]); err != nil {
			return err
		}
	}

	instructions := slices.Clone(p.Instructions)
	slices.SortStableFunc(instructions, func(a, b InstructionNode) int { return cmp.Compare(a.Name, b.Name) })
	for i := range instructions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := v.VisitInstruction(&instructions[i]); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	errs := slices.Clone(p.Errors)
	slices.SortStableFunc(errs, func(a, b ErrorNode) int { return cmp.Compare(a.Code, b.Code) })
	if err := v.VisitErrors(errs); err != nil {
		return err
	}

	return v.Finish()
}
