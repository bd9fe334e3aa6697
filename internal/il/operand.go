package il

import "fmt"

// Operand is the tagged union accepted anywhere an instruction reads a
// value: a Variable reference, an immediate Constant, or a FuncRef used
// by Call instructions.
type Operand interface {
	isOperand()
	String() string
}

// Variable references a VarID, SSA-versioned or not.
type Variable struct {
	ID VarID
}

func (Variable) isOperand()      {}
func (v Variable) String() string { return v.ID.String() }

// Constant wraps an immediate Number.
type Constant struct {
	Value Number
}

func (Constant) isOperand()      {}
func (c Constant) String() string { return c.Value.String() }

// FuncRef names a callee by its function id in the owning Module.
type FuncRef struct {
	FuncID uint32
	Name   string
}

func (FuncRef) isOperand() {}
func (f FuncRef) String() string {
	if f.Name != "" {
		return "@" + f.Name
	}
	return fmt.Sprintf("@f%d", f.FuncID)
}

// AsVariable extracts the Variable from an Operand, if it is one.
func AsVariable(op Operand) (Variable, bool) {
	v, ok := op.(Variable)
	return v, ok
}

// AsConstant extracts the Constant from an Operand, if it is one.
func AsConstant(op Operand) (Constant, bool) {
	c, ok := op.(Constant)
	return c, ok
}
